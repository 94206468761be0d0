package testutil

import (
	"fmt"
	"time"

	"github.com/bimakw/top-holders-frame/internal/domain/entities"
)

// Common test identities
const (
	AliceFID int64 = 1
	BobFID   int64 = 2
	CarolFID int64 = 3

	AliceAddress = "0x1111111111111111111111111111111111111111"
	BobAddress   = "0x2222222222222222222222222222222222222222"
	CarolAddress = "0x3333333333333333333333333333333333333333"

	// OneToken is 1 fan token in wei
	OneToken = "1000000000000000000"
)

// CreatePortfolio builds entries from alternating balance, address pairs
func CreatePortfolio(pairs ...string) []entities.PortfolioEntry {
	if len(pairs)%2 != 0 {
		panic("CreatePortfolio needs balance, address pairs")
	}
	entries := make([]entities.PortfolioEntry, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		entries = append(entries, entities.PortfolioEntry{
			Balance:       pairs[i],
			HolderAddress: pairs[i+1],
		})
	}
	return entries
}

// Tokens returns n whole fan tokens in wei
func Tokens(n int) string {
	if n == 0 {
		return "0"
	}
	return fmt.Sprintf("%d000000000000000000", n)
}

// CreateTestRecord creates a resolution record with default values
func CreateTestRecord(opts ...RecordOption) entities.ResolutionRecord {
	r := entities.ResolutionRecord{
		Address:     AliceAddress,
		FID:         AliceFID,
		ProfileName: "alice",
		Type:        "farcaster",
	}

	for _, opt := range opts {
		opt(&r)
	}

	return r
}

type RecordOption func(*entities.ResolutionRecord)

func RecordWithAddress(addr string) RecordOption {
	return func(r *entities.ResolutionRecord) {
		r.Address = addr
	}
}

func RecordWithFID(fid int64) RecordOption {
	return func(r *entities.ResolutionRecord) {
		r.FID = fid
	}
}

func RecordWithProfileName(name string) RecordOption {
	return func(r *entities.ResolutionRecord) {
		r.ProfileName = name
	}
}

// CreateTestProfile creates a social profile with default values
func CreateTestProfile(opts ...ProfileOption) *entities.SocialProfile {
	p := &entities.SocialProfile{
		FID:         AliceFID,
		ProfileName: "alice",
		DisplayName: "Alice",
		AvatarURL:   "https://img.example.com/alice.png",
		FNames:      []string{"alice"},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

type ProfileOption func(*entities.SocialProfile)

func ProfileWithFID(fid int64) ProfileOption {
	return func(p *entities.SocialProfile) {
		p.FID = fid
	}
}

func ProfileWithName(profileName, displayName string) ProfileOption {
	return func(p *entities.SocialProfile) {
		p.ProfileName = profileName
		p.DisplayName = displayName
		p.FNames = []string{profileName}
	}
}

func ProfileWithAvatar(url string) ProfileOption {
	return func(p *entities.SocialProfile) {
		p.AvatarURL = url
	}
}

// CreateTestHolder creates an enriched holder with default values
func CreateTestHolder(opts ...HolderOption) entities.EnrichedHolder {
	h := entities.EnrichedHolder{
		FID:         AliceFID,
		Balance:     "1.000",
		RawBalance:  OneToken,
		Address:     AliceAddress,
		ProfileName: "alice",
		ShareName:   "alice",
		DisplayName: "Alice",
		AvatarURL:   "https://img.example.com/alice.png",
		Type:        "farcaster",
	}

	for _, opt := range opts {
		opt(&h)
	}

	return h
}

type HolderOption func(*entities.EnrichedHolder)

func HolderWithFID(fid int64) HolderOption {
	return func(h *entities.EnrichedHolder) {
		h.FID = fid
	}
}

func HolderWithName(name string) HolderOption {
	return func(h *entities.EnrichedHolder) {
		h.ProfileName = name
		h.ShareName = name
	}
}

func HolderWithBalance(balance string) HolderOption {
	return func(h *entities.EnrichedHolder) {
		h.Balance = balance
	}
}

// CreateTestPrice creates a price with default values
func CreateTestPrice(opts ...PriceOption) *entities.Price {
	p := &entities.Price{
		AssetID:   "moxie",
		Currency:  "usd",
		Value:     0.0021,
		FetchedAt: time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

type PriceOption func(*entities.Price)

func PriceWithAsset(assetID, currency string) PriceOption {
	return func(p *entities.Price) {
		p.AssetID = assetID
		p.Currency = currency
	}
}

func PriceWithValue(v float64) PriceOption {
	return func(p *entities.Price) {
		p.Value = v
	}
}

// PointerTo returns a pointer to v
func PointerTo[T any](v T) *T {
	return &v
}
