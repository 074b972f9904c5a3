package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// RevisionProvider reports a token identifying the current state of the
// rule store. The token changes whenever rule data changes, so it can key
// cached decisions without ever serving a stale rule.
type RevisionProvider interface {
	Current(ctx context.Context) (string, error)
}

// TxidRevisionProvider derives the revision token from the PostgreSQL
// transaction snapshot. Any committed write moves the snapshot forward, so
// an administrative rule edit is visible to cached readers on the very next
// request.
type TxidRevisionProvider struct {
	db *sql.DB
}

// NewTxidRevisionProvider creates a new TxidRevisionProvider
func NewTxidRevisionProvider(db *sql.DB) *TxidRevisionProvider {
	return &TxidRevisionProvider{db: db}
}

// Current returns the current revision token
func (p *TxidRevisionProvider) Current(ctx context.Context) (string, error) {
	var snapshot string
	err := p.db.QueryRowContext(ctx, "SELECT txid_current_snapshot()::text").Scan(&snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to get current revision: %w", err)
	}
	return snapshot, nil
}
