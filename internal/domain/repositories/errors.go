package repositories

import "errors"

var (
	// ErrUpstream indicates an external data source failed or returned garbage
	ErrUpstream = errors.New("upstream unavailable")

	// ErrResolutionUnavailable indicates the resolution dataset is missing or empty
	ErrResolutionUnavailable = errors.New("resolution data unavailable")

	// ErrProfileNotFound indicates the social API has no profile for a fid
	ErrProfileNotFound = errors.New("profile not found")
)
