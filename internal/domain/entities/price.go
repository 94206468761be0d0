package entities

import "time"

// Price is a spot price of an asset in a quote currency
type Price struct {
	AssetID   string    `json:"asset_id"`
	Currency  string    `json:"currency"`
	Value     float64   `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}
