package entities

import "strings"

// ResolutionRecord maps an on-chain address to a social identity
type ResolutionRecord struct {
	Address     string `json:"address" db:"address"`
	FID         int64  `json:"fid" db:"fid"`
	ProfileName string `json:"profileName" db:"profile_name"`
	Type        string `json:"type" db:"type"`
}

// ResolutionTable is an immutable index over resolution records.
// It is shared between requests without locking.
type ResolutionTable struct {
	byAddress map[string]ResolutionRecord
	byFID     map[int64][]ResolutionRecord
	size      int
}

// NewResolutionTable indexes records by lowercase address and by fid.
// When an address appears twice the first record wins.
func NewResolutionTable(records []ResolutionRecord) *ResolutionTable {
	t := &ResolutionTable{
		byAddress: make(map[string]ResolutionRecord, len(records)),
		byFID:     make(map[int64][]ResolutionRecord),
	}
	for _, r := range records {
		addr := strings.ToLower(r.Address)
		if _, ok := t.byAddress[addr]; ok {
			continue
		}
		r.Address = addr
		t.byAddress[addr] = r
		t.byFID[r.FID] = append(t.byFID[r.FID], r)
		t.size++
	}
	return t
}

// Lookup finds the record for an address, case-insensitively
func (t *ResolutionTable) Lookup(address string) (ResolutionRecord, bool) {
	if t == nil {
		return ResolutionRecord{}, false
	}
	r, ok := t.byAddress[strings.ToLower(address)]
	return r, ok
}

// ByFID returns every record resolving to fid
func (t *ResolutionTable) ByFID(fid int64) []ResolutionRecord {
	if t == nil {
		return nil
	}
	return t.byFID[fid]
}

// Len returns the number of indexed addresses
func (t *ResolutionTable) Len() int {
	if t == nil {
		return 0
	}
	return t.size
}

// UniqueByAddress lowercases addresses and keeps the first record of each
// address. Records with a blank address are dropped.
func UniqueByAddress(records []ResolutionRecord) []ResolutionRecord {
	out := make([]ResolutionRecord, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		addr := strings.ToLower(strings.TrimSpace(r.Address))
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		r.Address = addr
		out = append(out, r)
	}
	return out
}
