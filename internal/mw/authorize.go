package mw

import (
	"errors"
	"net/http"

	"github.com/torii-authz/torii/internal/httpx"
	"github.com/torii-authz/torii/internal/repositories"
	"github.com/torii-authz/torii/internal/services/authorization"
)

// PrincipalHeader names the header carrying the authenticated login
// identity of the requesting principal. Populating it is the job of
// whatever authentication layer sits in front of this middleware.
const PrincipalHeader = "X-Torii-Principal"

// Authorize consults the checker before letting a request through, as
// explicit middleware composition rather than a framework-wide hook. The
// administrator bypass lives here, on the caller side: an individual with
// the admin designation passes even when the rules deny. The evaluator
// itself never grants exemptions.
//
// Requests without a principal are rejected before the checker is invoked.
// Collaborator failures fail closed: permissioning is a security control,
// so an unavailable rule store means deny, not allow.
func Authorize(checker authorization.CheckerInterface, resource string, operation func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := r.Header.Get(PrincipalHeader)
			if principal == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			resp, err := checker.Check(r.Context(), &authorization.CheckRequest{
				Principal: principal,
				Resource:  resource,
				Operation: operation(r),
			})
			if err != nil {
				if errors.Is(err, repositories.ErrPrincipalNotFound) {
					httpx.WriteError(w, http.StatusUnauthorized, "unknown principal")
					return
				}
				httpx.WriteError(w, http.StatusServiceUnavailable, "authorization backend unavailable")
				return
			}

			if !resp.Allowed && !resp.Admin {
				httpx.WriteError(w, http.StatusForbidden, "operation not permitted")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// OperationFromMethod derives an operation name from the HTTP method:
// "read" for GET and HEAD, "write" for everything else.
func OperationFromMethod(r *http.Request) string {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return "read"
	default:
		return "write"
	}
}
