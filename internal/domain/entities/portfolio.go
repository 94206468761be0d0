package entities

import "strconv"

// PortfolioEntry is a single holder balance of a fan token as reported by the subgraph
type PortfolioEntry struct {
	Balance       string `json:"balance"` // Raw balance (wei), base-10
	HolderAddress string `json:"address"` // Lowercase hex
}

// TokenSymbol returns the subgraph symbol of the fan token owned by fid
func TokenSymbol(fid int64) string {
	return "fid:" + strconv.FormatInt(fid, 10)
}
