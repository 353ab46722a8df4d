package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required

	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/pkg/logger"
	"gemhub-inventory-api/pkg/uid"
)

// SQLiteDiamondRepository implements DiamondRepository on an embedded SQLite
// database for single-node deployments. Listings are stored with indexed
// identity columns plus a JSON attribute document, so partial records merge
// instead of clobbering previously stored attributes.
type SQLiteDiamondRepository struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logger.Logger
}

// NewSQLiteDiamondRepository opens (or creates) the database at dbPath with
// WAL mode enabled.
func NewSQLiteDiamondRepository(dbPath string, log *logger.Logger) (*SQLiteDiamondRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createDiamondTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Info("sqlite diamond repository initialized", "path", dbPath)
	return &SQLiteDiamondRepository{db: db, log: log}, nil
}

func createDiamondTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS diamonds (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		stock_id TEXT NOT NULL,
		carat REAL NOT NULL DEFAULT 0,
		shape TEXT NOT NULL DEFAULT '',
		availability TEXT NOT NULL DEFAULT 'AVAILABLE',
		attrs TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE(owner, stock_id)
	);
	CREATE INDEX IF NOT EXISTS idx_diamonds_owner ON diamonds(owner);
	CREATE INDEX IF NOT EXISTS idx_diamonds_availability ON diamonds(owner, availability);
	`
	_, err := db.Exec(query)
	return err
}

// ListAvailableStockIDs snapshots the currently AVAILABLE stock ids.
func (r *SQLiteDiamondRepository) ListAvailableStockIDs(ctx context.Context, owner string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT stock_id FROM diamonds WHERE owner = ? AND availability = ?`,
		owner, model.AvailabilityAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot available stock ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// BulkUpsert applies the reconciliation ops inside one transaction. Updates
// that would not change the stored listing are skipped so re-running an
// unchanged feed reports zero updates.
func (r *SQLiteDiamondRepository) BulkUpsert(ctx context.Context, owner string, ops []model.UpsertOp) (model.BulkResult, error) {
	if len(ops) == 0 {
		return model.BulkResult{}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.BulkResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var result model.BulkResult
	now := time.Now()

	for _, op := range ops {
		var existingID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM diamonds WHERE owner = ? AND stock_id = ?`,
			owner, op.StockID).Scan(&existingID)
		exists := err == nil
		if err != nil && err != sql.ErrNoRows {
			r.log.Warn("bulk upsert lookup failed", "stockId", op.StockID, "error", err)
			continue
		}

		if !op.Upsert {
			if !exists {
				continue
			}
			res, err := tx.ExecContext(ctx,
				`UPDATE diamonds SET availability = ?, updated_at = ?
				 WHERE id = ? AND availability <> ?`,
				op.Status, now, existingID, op.Status)
			if err != nil {
				r.log.Warn("status update failed", "stockId", op.StockID, "error", err)
				continue
			}
			if n, _ := res.RowsAffected(); n > 0 {
				result.Updated += n
			}
			continue
		}

		attrs, err := json.Marshal(op.Fields)
		if err != nil {
			r.log.Warn("failed to encode attributes", "stockId", op.StockID, "error", err)
			continue
		}
		carat, _ := op.Fields[model.FieldCarat].(float64)
		shape, _ := op.Fields[model.FieldShape].(string)

		if !exists {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO diamonds (id, owner, stock_id, carat, shape, availability, attrs, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				uid.New(), owner, op.StockID, carat, shape,
				model.AvailabilityAvailable, string(attrs), now, now)
			if err != nil {
				r.log.Warn("insert failed", "stockId", op.StockID, "error", err)
				continue
			}
			result.Added++
			continue
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE diamonds SET
				carat = ?, shape = ?, availability = ?,
				attrs = json_patch(attrs, ?), updated_at = ?
			 WHERE id = ?
			   AND (json_patch(attrs, ?) <> attrs OR availability <> ?)`,
			carat, shape, model.AvailabilityAvailable,
			string(attrs), now, existingID,
			string(attrs), model.AvailabilityAvailable)
		if err != nil {
			r.log.Warn("update failed", "stockId", op.StockID, "error", err)
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			result.Updated += n
		}
	}

	if err := tx.Commit(); err != nil {
		return model.BulkResult{}, fmt.Errorf("failed to commit bulk upsert: %w", err)
	}
	return result, nil
}

// ArchiveByStockIDs flips the given listings to ARCHIVED.
func (r *SQLiteDiamondRepository) ArchiveByStockIDs(ctx context.Context, owner string, stockIDs []string) (int64, error) {
	if len(stockIDs) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	query := fmt.Sprintf(
		`UPDATE diamonds SET availability = ?, updated_at = ? WHERE owner = ? AND stock_id IN (%s)`,
		placeholders(len(stockIDs)))
	args := append([]interface{}{model.AvailabilityArchived, time.Now(), owner}, toArgs(stockIDs)...)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to archive stale listings: %w", err)
	}
	return res.RowsAffected()
}

// DeleteByStockIDs removes the given listings.
func (r *SQLiteDiamondRepository) DeleteByStockIDs(ctx context.Context, owner string, stockIDs []string) (int64, error) {
	if len(stockIDs) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	query := fmt.Sprintf(
		`DELETE FROM diamonds WHERE owner = ? AND stock_id IN (%s)`,
		placeholders(len(stockIDs)))
	args := append([]interface{}{owner}, toArgs(stockIDs)...)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale listings: %w", err)
	}
	return res.RowsAffected()
}

// Create inserts one manually entered listing.
func (r *SQLiteDiamondRepository) Create(ctx context.Context, d *model.Diamond) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM diamonds WHERE owner = ? AND stock_id = ?`,
		d.Owner, d.StockID).Scan(&id)
	if err == nil {
		return ErrDuplicateStockID
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check for existing listing: %w", err)
	}

	now := time.Now()
	if d.ID == "" {
		d.ID = uid.New()
	}
	if d.Availability == "" {
		d.Availability = model.AvailabilityAvailable
	}
	d.CreatedAt = now
	d.UpdatedAt = now

	attrs, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode listing: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO diamonds (id, owner, stock_id, carat, shape, availability, attrs, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Owner, d.StockID, d.Carat, d.Shape, d.Availability, string(attrs), now, now)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

// FindByID retrieves one listing by its id.
func (r *SQLiteDiamondRepository) FindByID(ctx context.Context, id string) (*model.Diamond, error) {
	return r.scanOne(ctx, `WHERE id = ?`, id)
}

// FindByStockID retrieves one listing by its (owner, stockId) identity.
func (r *SQLiteDiamondRepository) FindByStockID(ctx context.Context, owner, stockID string) (*model.Diamond, error) {
	return r.scanOne(ctx, `WHERE owner = ? AND stock_id = ?`, owner, stockID)
}

func (r *SQLiteDiamondRepository) scanOne(ctx context.Context, where string, args ...interface{}) (*model.Diamond, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner, stock_id, carat, availability, attrs, created_at, updated_at FROM diamonds `+where, args...)
	d, err := scanDiamond(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return d, nil
}

// List returns a page of listings, newest first.
func (r *SQLiteDiamondRepository) List(ctx context.Context, filter ListFilter) ([]model.Diamond, int64, error) {
	var conds []string
	var args []interface{}
	if filter.Owner != "" {
		conds = append(conds, "owner = ?")
		args = append(args, filter.Owner)
	}
	if filter.Search != "" {
		conds = append(conds, "(stock_id LIKE ? OR shape LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM diamonds`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	query := `SELECT id, owner, stock_id, carat, availability, attrs, created_at, updated_at
		FROM diamonds` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	var diamonds []model.Diamond
	for rows.Next() {
		d, err := scanDiamond(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode listing: %w", err)
		}
		diamonds = append(diamonds, *d)
	}
	return diamonds, total, rows.Err()
}

// Update overwrites the provided fields on one listing.
func (r *SQLiteDiamondRepository) Update(ctx context.Context, id string, fields model.Record) (*model.Diamond, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attrs, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode update: %w", err)
	}
	carat, hasCarat := fields[model.FieldCarat].(float64)
	shape, hasShape := fields[model.FieldShape].(string)
	availability, hasAvail := fields[model.FieldAvailability].(string)

	res, err := r.db.ExecContext(ctx,
		`UPDATE diamonds SET
			carat = CASE WHEN ? THEN ? ELSE carat END,
			shape = CASE WHEN ? THEN ? ELSE shape END,
			availability = CASE WHEN ? THEN ? ELSE availability END,
			attrs = json_patch(attrs, ?),
			updated_at = ?
		 WHERE id = ?`,
		hasCarat, carat, hasShape, shape, hasAvail, availability,
		string(attrs), time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// UpdateAvailability sets only the availability state of one listing.
func (r *SQLiteDiamondRepository) UpdateAvailability(ctx context.Context, id, availability string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx,
		`UPDATE diamonds SET availability = ?, updated_at = ? WHERE id = ?`,
		availability, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one listing by id.
func (r *SQLiteDiamondRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM diamonds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats returns statistics about the inventory database.
func (r *SQLiteDiamondRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{"status": "connected", "backend": "sqlite"}

	var total, available int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM diamonds`).Scan(&total); err != nil {
		return stats, err
	}
	stats["total_listings"] = total

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM diamonds WHERE availability = ?`,
		model.AvailabilityAvailable).Scan(&available); err == nil {
		stats["available_listings"] = available
	}
	return stats, nil
}

// Close closes the database.
func (r *SQLiteDiamondRepository) Close() error {
	return r.db.Close()
}

func scanDiamond(scan func(...interface{}) error) (*model.Diamond, error) {
	var (
		d     model.Diamond
		attrs string
	)
	if err := scan(&d.ID, &d.Owner, &d.StockID, &d.Carat, &d.Availability, &attrs, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	// Attribute columns win over the JSON document for the identity fields.
	id, owner, stockID, carat, availability := d.ID, d.Owner, d.StockID, d.Carat, d.Availability
	createdAt, updatedAt := d.CreatedAt, d.UpdatedAt
	if err := json.Unmarshal([]byte(attrs), &d); err != nil {
		return nil, err
	}
	d.ID, d.Owner, d.StockID, d.Carat, d.Availability = id, owner, stockID, carat, availability
	d.CreatedAt, d.UpdatedAt = createdAt, updatedAt
	return &d, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
