package resolution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/bimakw/top-holders-frame/internal/domain/entities"
	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/ethereum"
)

// Ensure FileRepo implements ResolutionRepository
var _ repositories.ResolutionRepository = (*FileRepo)(nil)

// FileRepo loads the resolution table from a JSON array on disk.
// The file is re-read on every Load.
type FileRepo struct {
	path   string
	logger *zap.Logger
}

// NewFileRepo creates a new file backed resolution repository
func NewFileRepo(path string, logger *zap.Logger) *FileRepo {
	return &FileRepo{
		path:   path,
		logger: logger,
	}
}

// Load reads and indexes the dataset
func (r *FileRepo) Load(ctx context.Context) (*entities.ResolutionTable, error) {
	records, err := r.ReadRecords(ctx)
	if err != nil {
		return nil, err
	}
	return entities.NewResolutionTable(records), nil
}

// ReadRecords reads and sanitizes the raw records
func (r *FileRepo) ReadRecords(ctx context.Context) ([]entities.ResolutionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("resolution file %s not found: %w", r.path, repositories.ErrResolutionUnavailable)
		}
		return nil, fmt.Errorf("failed to read resolution file %s: %w: %w", r.path, repositories.ErrResolutionUnavailable, err)
	}

	var records []entities.ResolutionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode resolution file %s: %w: %w", r.path, repositories.ErrResolutionUnavailable, err)
	}

	records = Sanitize(records, r.logger)
	if len(records) == 0 {
		return nil, fmt.Errorf("resolution file %s is empty: %w", r.path, repositories.ErrResolutionUnavailable)
	}

	return records, nil
}

// HealthCheck verifies the dataset is present
func (r *FileRepo) HealthCheck(ctx context.Context) error {
	if _, err := os.Stat(r.path); err != nil {
		return fmt.Errorf("resolution file: %w", err)
	}
	return nil
}

// Sanitize lowercases addresses and keeps the first record of each address.
// Addresses that are not valid hex addresses are kept and only reported.
func Sanitize(records []entities.ResolutionRecord, logger *zap.Logger) []entities.ResolutionRecord {
	out := entities.UniqueByAddress(records)

	nonHex := 0
	for _, rec := range out {
		if _, ok := ethereum.NormalizeAddress(rec.Address); !ok {
			nonHex++
		}
	}

	if dropped := len(records) - len(out); dropped > 0 || nonHex > 0 {
		logger.Warn("Resolution dataset has irregular addresses",
			zap.Int("dropped", dropped),
			zap.Int("non_hex", nonHex),
			zap.Int("kept", len(out)),
		)
	}

	return out
}
