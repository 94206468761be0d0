package entities

// SocialProfile is the subset of a social account shown in the frame
type SocialProfile struct {
	FID         int64    `json:"fid"`
	ProfileName string   `json:"profileName"`
	DisplayName string   `json:"displayName"`
	AvatarURL   string   `json:"avatarUrl"`
	FNames      []string `json:"fnames,omitempty"`
}

// Name returns the best human readable name of the profile
func (p *SocialProfile) Name() string {
	switch {
	case p.DisplayName != "":
		return p.DisplayName
	case p.ProfileName != "":
		return p.ProfileName
	default:
		return "Unknown"
	}
}

// FName returns the primary Farcaster name, falling back to the profile name
func (p *SocialProfile) FName() string {
	for _, n := range p.FNames {
		if n != "" {
			return n
		}
	}
	return p.ProfileName
}
