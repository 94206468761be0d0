package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bimakw/top-holders-frame/internal/domain/entities"
	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
)

// Ensure ResolutionRepo implements the resolution interfaces
var (
	_ repositories.ResolutionRepository = (*ResolutionRepo)(nil)
	_ repositories.ResolutionWriter     = (*ResolutionRepo)(nil)
)

// upsertBatchSize bounds the rows written per statement
const upsertBatchSize = 500

const resolutionSchema = `
	CREATE TABLE IF NOT EXISTS resolution_records (
		address      TEXT PRIMARY KEY,
		fid          BIGINT NOT NULL,
		profile_name TEXT NOT NULL DEFAULT '',
		type         TEXT NOT NULL DEFAULT '',
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_resolution_records_fid ON resolution_records (fid);
`

// ResolutionRepo implements ResolutionRepository using PostgreSQL
type ResolutionRepo struct {
	db *sqlx.DB
}

// NewResolutionRepo creates a new resolution repository
func NewResolutionRepo(db *sqlx.DB) *ResolutionRepo {
	return &ResolutionRepo{db: db}
}

// EnsureSchema creates the resolution table when missing
func (r *ResolutionRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, resolutionSchema); err != nil {
		return fmt.Errorf("failed to create resolution schema: %w", err)
	}
	return nil
}

// Load reads every resolution record
func (r *ResolutionRepo) Load(ctx context.Context) (*entities.ResolutionTable, error) {
	query := `
		SELECT LOWER(address) as address, fid, profile_name, type
		FROM resolution_records
		ORDER BY fid, address
	`

	var records []entities.ResolutionRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to load resolution records: %w: %w", repositories.ErrResolutionUnavailable, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("resolution_records is empty: %w", repositories.ErrResolutionUnavailable)
	}

	return entities.NewResolutionTable(records), nil
}

// Upsert inserts or updates records keyed by address. Addresses are
// lowercased and only the first record of a repeated address is written.
func (r *ResolutionRepo) Upsert(ctx context.Context, records []entities.ResolutionRecord) (int64, error) {
	batches := upsertBatches(records, upsertBatchSize)
	if len(batches) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO resolution_records (address, fid, profile_name, type)
		VALUES (:address, :fid, :profile_name, :type)
		ON CONFLICT (address) DO UPDATE SET
			fid = EXCLUDED.fid,
			profile_name = EXCLUDED.profile_name,
			type = EXCLUDED.type,
			updated_at = NOW()
	`

	var total int64
	for _, batch := range batches {
		res, err := tx.NamedExecContext(ctx, query, batch)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert resolution records: %w", err)
		}
		n, err := res.RowsAffected()
		if err == nil {
			total += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit resolution records: %w", err)
	}

	return total, nil
}

// upsertBatches splits unique records into statements of at most size rows.
// ON CONFLICT DO UPDATE rejects a statement that touches a row twice, so
// every address appears once across all batches.
func upsertBatches(records []entities.ResolutionRecord, size int) [][]entities.ResolutionRecord {
	unique := entities.UniqueByAddress(records)
	if len(unique) == 0 {
		return nil
	}

	batches := make([][]entities.ResolutionRecord, 0, (len(unique)+size-1)/size)
	for start := 0; start < len(unique); start += size {
		end := start + size
		if end > len(unique) {
			end = len(unique)
		}
		batches = append(batches, unique[start:end])
	}
	return batches
}

// HealthCheck reports whether the resolution table has any rows
func (r *ResolutionRepo) HealthCheck(ctx context.Context) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM resolution_records)`); err != nil {
		return fmt.Errorf("failed to query resolution_records: %w", err)
	}
	if !exists {
		return repositories.ErrResolutionUnavailable
	}
	return nil
}
