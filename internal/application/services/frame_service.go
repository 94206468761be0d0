package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/top-holders-frame/internal/config"
	"github.com/bimakw/top-holders-frame/internal/domain/entities"
)

// Screen identifies which frame image is shown
type Screen string

const (
	// ScreenSplash is shown until a fid is known and its profile resolves
	ScreenSplash Screen = "splash"

	// ScreenResults lists the holders of the fid's fan token, possibly none
	ScreenResults Screen = "results"
)

// Button actions understood by frame clients
const (
	ActionPost = "post"
	ActionLink = "link"
)

// HolderSource provides holder lists and profiles to frames
type HolderSource interface {
	GetTopHolders(ctx context.Context, fid int64) ([]entities.EnrichedHolder, error)
	GetProfile(ctx context.Context, fid int64) (*entities.SocialProfile, error)
}

// FrameButton is an interactive frame action
type FrameButton struct {
	Label  string
	Action string
	Target string
}

// FrameInput carries every source a fid may come from
type FrameInput struct {
	Message *entities.FrameMessage // Validated interaction, nil on GET
	UserFID string                 // userfid query parameter
	State   string                 // Serialized FrameState of the previous frame
}

// FrameView is everything needed to render a frame as HTML and as an image
type FrameView struct {
	Screen        Screen
	FID           string
	User          *entities.SocialProfile
	Holders       []entities.EnrichedHolder
	HoldersFailed bool // Holder list could not be fetched, shown as an error background
	ShareText     string
	Buttons       []FrameButton
	State         entities.FrameState
	PostURL       string
	ImageURL      string
	CacheBust     int64
}

// HasHolders reports whether the results screen has holders to list
func (v *FrameView) HasHolders() bool {
	return v.Screen == ScreenResults && len(v.Holders) > 0
}

// StateJSON serializes the frame state
func (v *FrameView) StateJSON() string {
	data, err := json.Marshal(v.State)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// FrameService builds frame views
type FrameService struct {
	holders    HolderSource
	appURL     string
	author     string
	composeURL string
	logger     *zap.Logger
	now        func() time.Time
}

// NewFrameService creates a new frame service. appURL is the public base URL of this app.
func NewFrameService(holders HolderSource, appURL string, cfg config.FrameConfig, logger *zap.Logger) *FrameService {
	if !strings.HasSuffix(appURL, "/") {
		appURL += "/"
	}
	return &FrameService{
		holders:    holders,
		appURL:     appURL,
		author:     cfg.Author,
		composeURL: cfg.ComposeURL,
		logger:     logger,
		now:        time.Now,
	}
}

// ResolveFID picks the fid a frame is rendered for: the requester of a
// validated message, then the userfid parameter, then the previous state.
func ResolveFID(in FrameInput) string {
	if in.Message != nil && in.Message.RequesterFID > 0 {
		return strconv.FormatInt(in.Message.RequesterFID, 10)
	}
	if in.UserFID != "" {
		return in.UserFID
	}

	raw := in.State
	if raw == "" && in.Message != nil {
		raw = in.Message.State
	}
	if raw != "" {
		var state entities.FrameState
		if err := json.Unmarshal([]byte(raw), &state); err == nil {
			return state.LastFID
		}
	}

	return ""
}

// ParseFID parses a positive decimal fid
func ParseFID(s string) (int64, bool) {
	fid, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || fid <= 0 {
		return 0, false
	}
	return fid, true
}

// Build renders the frame for in. It never fails: upstream errors select
// the splash screen or an empty holder list.
func (s *FrameService) Build(ctx context.Context, in FrameInput) *FrameView {
	view := &FrameView{
		Screen:    ScreenSplash,
		CacheBust: s.now().UnixMilli(),
	}

	raw := ResolveFID(in)
	fid, ok := ParseFID(raw)
	if raw != "" && !ok {
		s.logger.Debug("Ignoring invalid fid", zap.String("fid", raw))
	}

	if ok {
		view.FID = strconv.FormatInt(fid, 10)
		view.State = entities.FrameState{LastFID: view.FID}
		s.loadResults(ctx, fid, view)
	}

	view.ShareText = s.shareText(view.Holders)
	view.PostURL = s.checkURL(view.FID, view.CacheBust)
	view.ImageURL = s.imageURL(view.FID, view.CacheBust)
	view.Buttons = []FrameButton{
		{Label: "Check Mine", Action: ActionPost, Target: view.PostURL},
		{Label: "Share", Action: ActionLink, Target: s.shareURL(view.FID, view.ShareText, view.CacheBust)},
	}

	frameViews.WithLabelValues(string(view.Screen)).Inc()
	return view
}

func (s *FrameService) loadResults(ctx context.Context, fid int64, view *FrameView) {
	var (
		user       *entities.SocialProfile
		holders    []entities.EnrichedHolder
		holdersErr error
	)

	// Independent fetches: a holder failure must not cancel the profile lookup
	var g errgroup.Group
	g.Go(func() error {
		p, err := s.holders.GetProfile(ctx, fid)
		if err != nil {
			return fmt.Errorf("failed to get user profile: %w", err)
		}
		user = p
		return nil
	})
	g.Go(func() error {
		holders, holdersErr = s.holders.GetTopHolders(ctx, fid)
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("Showing splash frame", zap.Int64("fid", fid), zap.Error(err))
		return
	}

	view.Screen = ScreenResults
	view.User = user

	if holdersErr != nil && !errors.Is(holdersErr, ErrNoHolders) && !errors.Is(holdersErr, ErrNoMatchedHolders) {
		s.logger.Warn("Failed to fetch holders for frame", zap.Int64("fid", fid), zap.Error(holdersErr))
		view.HoldersFailed = true
		return
	}

	if len(holders) > MaxHolders {
		holders = holders[:MaxHolders]
	}
	view.Holders = holders
}

func (s *FrameService) shareText(holders []entities.EnrichedHolder) string {
	if len(holders) == 0 {
		return "Check Top Holders Your Fan Token in Frame by @" + s.author
	}

	var b strings.Builder
	b.WriteString("Top Holders of My Fan Token:\n")
	for i, h := range holders {
		fmt.Fprintf(&b, "%d. @%s (%s FT )\n", i+1, h.ShareName, h.Balance)
	}
	b.WriteString("Frame by @" + s.author)
	return b.String()
}

func (s *FrameService) checkURL(fid string, cacheBust int64) string {
	return fmt.Sprintf("%sframes?userfid=%s&cache_bust=%d", s.appURL, EncodeURIComponent(fid), cacheBust)
}

func (s *FrameService) imageURL(fid string, cacheBust int64) string {
	return fmt.Sprintf("%sframes/image?userfid=%s&cache_bust=%d", s.appURL, EncodeURIComponent(fid), cacheBust)
}

func (s *FrameService) shareURL(fid, text string, cacheBust int64) string {
	embed := fmt.Sprintf("%s?cache_bust=%d", s.appURL, cacheBust)
	if fid != "" {
		embed = fmt.Sprintf("%s?userfid=%s&cache_bust=%d", s.appURL, EncodeURIComponent(fid), cacheBust)
	}
	return fmt.Sprintf("%s?text=%s&embeds[]=%s", s.composeURL, EncodeURIComponent(text), EncodeURIComponent(embed))
}

var uriComponentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent escapes s like the ECMAScript function of the same
// name: spaces become %20 and !'()* stay literal.
func EncodeURIComponent(s string) string {
	return uriComponentUnescapes.Replace(url.QueryEscape(s))
}
