package repositories

import (
	"context"

	"github.com/bimakw/top-holders-frame/internal/domain/entities"
)

// SocialRepository defines the interface for social profile lookups
type SocialRepository interface {
	// GetProfile fetches the profile of fid
	GetProfile(ctx context.Context, fid int64) (*entities.SocialProfile, error)
}
