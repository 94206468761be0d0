package airstack

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/bimakw/top-holders-frame/internal/config"
	"github.com/bimakw/top-holders-frame/internal/domain/entities"
	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/httpclient"
)

// Ensure SocialRepo implements SocialRepository
var _ repositories.SocialRepository = (*SocialRepo)(nil)

const socialQuery = `
query GetSocial($userId: String!) {
  Socials(input: { filter: { userId: { _eq: $userId } }, blockchain: ethereum }) {
    Social {
      userId
      profileName
      profileDisplayName
      profileImage
      fnames
      profileImageContentValue {
        image {
          extraSmall
        }
      }
    }
  }
}`

type socialData struct {
	Socials struct {
		Social []struct {
			UserID                   string   `json:"userId"`
			ProfileName              string   `json:"profileName"`
			ProfileDisplayName       string   `json:"profileDisplayName"`
			ProfileImage             string   `json:"profileImage"`
			FNames                   []string `json:"fnames"`
			ProfileImageContentValue *struct {
				Image *struct {
					ExtraSmall string `json:"extraSmall"`
				} `json:"image"`
			} `json:"profileImageContentValue"`
		} `json:"Social"`
	} `json:"Socials"`
}

// SocialRepo implements SocialRepository using the Airstack GraphQL API
type SocialRepo struct {
	client *httpclient.Client
	url    string
	logger *zap.Logger
}

// NewClient creates the rate limited, authenticated Airstack transport
func NewClient(cfg config.AirstackConfig, logger *zap.Logger) *httpclient.Client {
	return httpclient.New("airstack", cfg.RequestTimeout, logger,
		httpclient.WithHeader("Authorization", cfg.APIKey),
		httpclient.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
}

// NewSocialRepo creates a new social profile repository
func NewSocialRepo(client *httpclient.Client, cfg config.AirstackConfig, logger *zap.Logger) *SocialRepo {
	return &SocialRepo{
		client: client,
		url:    cfg.URL,
		logger: logger,
	}
}

// GetProfile fetches the Farcaster profile of fid
func (r *SocialRepo) GetProfile(ctx context.Context, fid int64) (*entities.SocialProfile, error) {
	var data socialData
	vars := map[string]interface{}{"userId": strconv.FormatInt(fid, 10)}
	if err := r.client.GraphQL(ctx, r.url, socialQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("failed to query social profile %d: %w", fid, err)
	}

	if len(data.Socials.Social) == 0 {
		return nil, fmt.Errorf("fid %d: %w", fid, repositories.ErrProfileNotFound)
	}

	s := data.Socials.Social[0]
	avatar := s.ProfileImage
	if s.ProfileImageContentValue != nil && s.ProfileImageContentValue.Image != nil &&
		s.ProfileImageContentValue.Image.ExtraSmall != "" {
		avatar = s.ProfileImageContentValue.Image.ExtraSmall
	}

	return &entities.SocialProfile{
		FID:         fid,
		ProfileName: s.ProfileName,
		DisplayName: s.ProfileDisplayName,
		AvatarURL:   avatar,
		FNames:      s.FNames,
	}, nil
}
