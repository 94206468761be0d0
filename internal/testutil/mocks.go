package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/bimakw/top-holders-frame/internal/domain/entities"
	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
)

type MockCall struct {
	Method string
	Args   []interface{}
}

// MockPortfolioRepository is a mock implementation of PortfolioRepository
type MockPortfolioRepository struct {
	mu         sync.RWMutex
	portfolios map[string][]entities.PortfolioEntry

	// Function hooks for custom behavior
	GetPortfolioFunc func(ctx context.Context, symbol string) ([]entities.PortfolioEntry, error)

	// Call tracking
	Calls []MockCall
}

func NewMockPortfolioRepository() *MockPortfolioRepository {
	return &MockPortfolioRepository{
		portfolios: make(map[string][]entities.PortfolioEntry),
		Calls:      make([]MockCall, 0),
	}
}

func (m *MockPortfolioRepository) GetPortfolio(ctx context.Context, symbol string) ([]entities.PortfolioEntry, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetPortfolio", Args: []interface{}{symbol}})
	m.mu.Unlock()

	if m.GetPortfolioFunc != nil {
		return m.GetPortfolioFunc(ctx, symbol)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.portfolios[symbol]
	result := make([]entities.PortfolioEntry, len(entries))
	copy(result, entries)
	return result, nil
}

// SetPortfolio stores the holders of the fan token of fid
func (m *MockPortfolioRepository) SetPortfolio(fid int64, entries ...entities.PortfolioEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.portfolios[entities.TokenSymbol(fid)] = entries
}

// MockResolutionRepository is a mock implementation of ResolutionRepository and ResolutionWriter
type MockResolutionRepository struct {
	mu      sync.RWMutex
	records []entities.ResolutionRecord

	LoadFunc   func(ctx context.Context) (*entities.ResolutionTable, error)
	UpsertFunc func(ctx context.Context, records []entities.ResolutionRecord) (int64, error)

	Calls []MockCall
}

func NewMockResolutionRepository(records ...entities.ResolutionRecord) *MockResolutionRepository {
	return &MockResolutionRepository{
		records: records,
		Calls:   make([]MockCall, 0),
	}
}

func (m *MockResolutionRepository) Load(ctx context.Context) (*entities.ResolutionTable, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "Load"})
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.records) == 0 {
		return nil, repositories.ErrResolutionUnavailable
	}
	return entities.NewResolutionTable(m.records), nil
}

func (m *MockResolutionRepository) Upsert(ctx context.Context, records []entities.ResolutionRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Method: "Upsert", Args: []interface{}{records}})

	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, records)
	}

	unique := entities.UniqueByAddress(records)
	index := make(map[string]int, len(m.records))
	for i, r := range m.records {
		index[strings.ToLower(r.Address)] = i
	}
	for _, r := range unique {
		if i, ok := index[r.Address]; ok {
			m.records[i] = r
			continue
		}
		index[r.Address] = len(m.records)
		m.records = append(m.records, r)
	}
	return int64(len(unique)), nil
}

// Records returns a copy of the stored records
func (m *MockResolutionRepository) Records() []entities.ResolutionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]entities.ResolutionRecord, len(m.records))
	copy(result, m.records)
	return result
}

// MockSocialRepository is a mock implementation of SocialRepository
type MockSocialRepository struct {
	mu       sync.RWMutex
	profiles map[int64]*entities.SocialProfile
	failures map[int64]error

	GetProfileFunc func(ctx context.Context, fid int64) (*entities.SocialProfile, error)

	Calls []MockCall
}

func NewMockSocialRepository() *MockSocialRepository {
	return &MockSocialRepository{
		profiles: make(map[int64]*entities.SocialProfile),
		failures: make(map[int64]error),
		Calls:    make([]MockCall, 0),
	}
}

func (m *MockSocialRepository) GetProfile(ctx context.Context, fid int64) (*entities.SocialProfile, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetProfile", Args: []interface{}{fid}})
	m.mu.Unlock()

	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, fid)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.failures[fid]; ok {
		return nil, err
	}
	if p, ok := m.profiles[fid]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, repositories.ErrProfileNotFound
}

func (m *MockSocialRepository) AddProfiles(profiles ...*entities.SocialProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range profiles {
		m.profiles[p.FID] = p
	}
}

// FailProfile makes lookups of fid return err
func (m *MockSocialRepository) FailProfile(fid int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[fid] = err
}

// MockPriceRepository is a mock implementation of PriceRepository
type MockPriceRepository struct {
	mu sync.RWMutex

	Price float64
	Error error

	GetPriceFunc func(ctx context.Context, assetID, currency string) (*entities.Price, error)

	Calls []MockCall
}

func NewMockPriceRepository(price float64) *MockPriceRepository {
	return &MockPriceRepository{
		Price: price,
		Calls: make([]MockCall, 0),
	}
}

func (m *MockPriceRepository) GetPrice(ctx context.Context, assetID, currency string) (*entities.Price, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetPrice", Args: []interface{}{assetID, currency}})
	m.mu.Unlock()

	if m.GetPriceFunc != nil {
		return m.GetPriceFunc(ctx, assetID, currency)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Error != nil {
		return nil, m.Error
	}
	return CreateTestPrice(PriceWithAsset(assetID, currency), PriceWithValue(m.Price)), nil
}

// MockHealthChecker is a mock implementation of HealthChecker
type MockHealthChecker struct {
	mu sync.RWMutex

	Healthy bool
	Error   error
	Calls   []MockCall
}

func NewMockHealthChecker(healthy bool) *MockHealthChecker {
	var err error
	if !healthy {
		err = errors.New("health check failed")
	}
	return &MockHealthChecker{
		Healthy: healthy,
		Error:   err,
		Calls:   make([]MockCall, 0),
	}
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "HealthCheck", Args: nil})
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Error
}

func (m *MockHealthChecker) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Healthy = healthy
	if healthy {
		m.Error = nil
	} else {
		m.Error = errors.New("health check failed")
	}
}
