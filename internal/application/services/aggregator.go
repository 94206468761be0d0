package services

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/bimakw/top-holders-frame/internal/domain/entities"
)

const (
	// MaxHolders is the number of ranked holders kept after aggregation
	MaxHolders = 8

	// Fan token balances are fixed point with 18 decimals
	balanceDecimals = 18

	displayDecimals      = 3
	maxProfileNameLength = 10
)

var (
	// ErrNoHolders indicates the token has no holder with a positive balance
	ErrNoHolders = errors.New("token has no holders")

	// ErrNoMatchedHolders indicates holders exist but none resolves to a known identity
	ErrNoMatchedHolders = errors.New("no holder resolves to a known identity")

	// ErrInvalidBalance indicates a balance is not a base-10 uint256
	ErrInvalidBalance = errors.New("invalid balance")
)

type rankedEntry struct {
	entry   entities.PortfolioEntry
	balance *uint256.Int
}

// Aggregate ranks the holders of a fan token by social identity.
//
// Entries are ordered by balance, entries without a resolution record are
// dropped, the remaining balances are summed per fid and the groups are
// ranked by their total. At most MaxHolders groups are returned.
func Aggregate(entries []entities.PortfolioEntry, table *entities.ResolutionTable) ([]entities.AggregatedHolder, error) {
	if len(entries) == 0 {
		return nil, ErrNoHolders
	}

	ranked := make([]rankedEntry, len(entries))
	for i, e := range entries {
		b, err := uint256.FromDecimal(e.Balance)
		if err != nil {
			return nil, fmt.Errorf("%w: %q held by %s: %v", ErrInvalidBalance, e.Balance, e.HolderAddress, err)
		}
		ranked[i] = rankedEntry{entry: e, balance: b}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].balance.Gt(ranked[j].balance)
	})

	groups := make(map[int64]*entities.AggregatedHolder)
	order := make([]*entities.AggregatedHolder, 0)
	for _, r := range ranked {
		rec, ok := table.Lookup(r.entry.HolderAddress)
		if !ok {
			continue
		}

		g, ok := groups[rec.FID]
		if !ok {
			g = &entities.AggregatedHolder{
				FID:          rec.FID,
				TotalBalance: new(big.Int),
				Record:       rec,
			}
			groups[rec.FID] = g
			order = append(order, g)
		}

		// Sums can exceed 256 bits in theory, so accumulate in big.Int
		g.TotalBalance.Add(g.TotalBalance, r.balance.ToBig())
		g.Entries = append(g.Entries, r.entry)
	}

	if len(order) == 0 {
		return nil, ErrNoMatchedHolders
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].TotalBalance.Cmp(order[j].TotalBalance) > 0
	})

	if len(order) > MaxHolders {
		order = order[:MaxHolders]
	}

	holders := make([]entities.AggregatedHolder, len(order))
	for i, g := range order {
		holders[i] = *g
	}

	return holders, nil
}

// FormatBalance renders a raw 18-decimal balance with exactly three
// fractional digits. Extra digits are truncated, not rounded.
func FormatBalance(raw *big.Int) string {
	if raw == nil {
		raw = new(big.Int)
	}
	return decimal.NewFromBigInt(raw, -balanceDecimals).
		Truncate(displayDecimals).
		StringFixed(displayDecimals)
}

// TruncateProfileName shortens names longer than the display limit and marks them with an ellipsis
func TruncateProfileName(name string) string {
	r := []rune(name)
	if len(r) <= maxProfileNameLength {
		return name
	}
	return string(r[:maxProfileNameLength]) + "..."
}
