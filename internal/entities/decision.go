package entities

// Decision reasons returned by the evaluator.
const (
	ReasonGlobalRuleDenied = "global rule denied"
	ReasonRuleDenied       = "rule denied"
	ReasonRuleSatisfied    = "rule satisfied"
	ReasonNoRestriction    = "no restriction configured"
)

// Decision is the ephemeral result of evaluating one request.
// It is computed fresh per request and never persisted.
type Decision struct {
	Allowed bool   // Whether the operation is permitted
	Reason  string // Why the decision came out this way
}
