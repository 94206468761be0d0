package resolution

import (
	"context"
	"sync"

	"github.com/bimakw/top-holders-frame/internal/domain/entities"
	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
)

// Ensure Memoized implements ResolutionRepository
var _ repositories.ResolutionRepository = (*Memoized)(nil)

// Memoized keeps the first successfully loaded table for the process lifetime.
// Failed loads are not remembered, the next call retries the backend.
type Memoized struct {
	next repositories.ResolutionRepository

	mu    sync.Mutex
	table *entities.ResolutionTable
}

// NewMemoized wraps a resolution repository
func NewMemoized(next repositories.ResolutionRepository) *Memoized {
	return &Memoized{next: next}
}

// Load returns the cached table or loads it from the wrapped repository
func (m *Memoized) Load(ctx context.Context) (*entities.ResolutionTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.table != nil {
		return m.table, nil
	}

	table, err := m.next.Load(ctx)
	if err != nil {
		return nil, err
	}

	m.table = table
	return table, nil
}
