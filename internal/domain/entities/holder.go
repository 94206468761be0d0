package entities

import (
	"math/big"
)

// AggregatedHolder is the summed balance of every address resolving to one fid
type AggregatedHolder struct {
	FID          int64
	TotalBalance *big.Int
	Entries      []PortfolioEntry // In descending balance order
	Record       ResolutionRecord // First matched record
}

// EnrichedHolder is an aggregated holder decorated with its social profile
type EnrichedHolder struct {
	FID         int64            `json:"fid"`
	Balance     string           `json:"balance"`    // Display balance, 3 decimals
	RawBalance  string           `json:"rawBalance"` // Summed wei
	Address     string           `json:"address"`
	ProfileName string           `json:"profileName"` // Truncated for display
	ShareName   string           `json:"shareName"`   // Full name, used in share text
	DisplayName string           `json:"displayName"`
	AvatarURL   string           `json:"avatarUrl"`
	Type        string           `json:"type"`
	Entries     []PortfolioEntry `json:"entries"`
}
