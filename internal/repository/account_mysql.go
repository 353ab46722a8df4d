package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gemhub-inventory-api/internal/model"
)

// MySQLAccountRepository implements AccountRepository using MySQL. Account
// credentials live in the marketplace's relational database; the inventory
// store never sees them.
type MySQLAccountRepository struct {
	db *sql.DB
}

// NewMySQLAccountRepository creates a new MySQL account repository.
func NewMySQLAccountRepository(db *sql.DB) *MySQLAccountRepository {
	return &MySQLAccountRepository{db: db}
}

// FindByAPIKey returns the active, approved account holding the given API
// key.
func (r *MySQLAccountRepository) FindByAPIKey(ctx context.Context, apiKey string) (*model.Account, error) {
	query := `
		SELECT id, name, owner_id, role, status
		FROM supplier_accounts
		WHERE api_key = ?
		  AND LOWER(status) = 'approved'
		LIMIT 1`

	var acc model.Account
	err := r.db.QueryRowContext(ctx, query, apiKey).Scan(
		&acc.ID,
		&acc.Name,
		&acc.Owner,
		&acc.Role,
		&acc.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invalid api key or account not approved")
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	return &acc, nil
}
