package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/top-holders-frame/internal/config"
	"github.com/bimakw/top-holders-frame/internal/domain/entities"
	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
	"github.com/bimakw/top-holders-frame/internal/testutil"
)

const testAppURL = "https://frame.example.com/"

type stubHolderSource struct {
	holders    []entities.EnrichedHolder
	holdersErr error
	profiles   map[int64]*entities.SocialProfile
}

func (s *stubHolderSource) GetTopHolders(ctx context.Context, fid int64) ([]entities.EnrichedHolder, error) {
	return s.holders, s.holdersErr
}

func (s *stubHolderSource) GetProfile(ctx context.Context, fid int64) (*entities.SocialProfile, error) {
	if p, ok := s.profiles[fid]; ok {
		return p, nil
	}
	return nil, repositories.ErrProfileNotFound
}

func setupFrameServiceTest(src *stubHolderSource) *FrameService {
	cfg := config.FrameConfig{
		Author:     "chanzy10",
		ComposeURL: "https://warpcast.com/~/compose",
	}
	service := NewFrameService(src, strings.TrimSuffix(testAppURL, "/"), cfg, zap.NewNop())
	service.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return service
}

func aliceSource(holders ...entities.EnrichedHolder) *stubHolderSource {
	return &stubHolderSource{
		holders: holders,
		profiles: map[int64]*entities.SocialProfile{
			testutil.AliceFID: testutil.CreateTestProfile(),
		},
	}
}

func TestResolveFID(t *testing.T) {
	tests := []struct {
		name string
		in   FrameInput
		want string
	}{
		{"empty", FrameInput{}, ""},
		{"requester wins", FrameInput{Message: &entities.FrameMessage{RequesterFID: 5}, UserFID: "6", State: `{"lastFid":"7"}`}, "5"},
		{"query param", FrameInput{UserFID: "6", State: `{"lastFid":"7"}`}, "6"},
		{"state fallback", FrameInput{State: `{"lastFid":"7"}`}, "7"},
		{"message state fallback", FrameInput{Message: &entities.FrameMessage{State: `{"lastFid":"8"}`}}, "8"},
		{"broken state", FrameInput{State: `{lastFid`}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveFID(tt.in); got != tt.want {
				t.Errorf("ResolveFID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFID(t *testing.T) {
	valid := map[string]int64{"1": 1, "250772": 250772, " 42 ": 42}
	for in, want := range valid {
		got, ok := ParseFID(in)
		if !ok || got != want {
			t.Errorf("ParseFID(%q) = %d, %v; want %d", in, got, ok, want)
		}
	}

	for _, in := range []string{"", "0", "-3", "abc", "1.5", "undefined"} {
		if _, ok := ParseFID(in); ok {
			t.Errorf("ParseFID(%q) should fail", in)
		}
	}
}

func TestFrameService_Build_Splash(t *testing.T) {
	service := setupFrameServiceTest(aliceSource())

	view := service.Build(context.Background(), FrameInput{})

	if view.Screen != ScreenSplash {
		t.Errorf("expected splash screen, got %s", view.Screen)
	}
	if view.FID != "" {
		t.Errorf("expected empty fid, got %s", view.FID)
	}
	if len(view.Buttons) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(view.Buttons))
	}
	if view.ShareText != "Check Top Holders Your Fan Token in Frame by @chanzy10" {
		t.Errorf("unexpected share text: %q", view.ShareText)
	}

	wantShare := "https://warpcast.com/~/compose?text=" +
		"Check%20Top%20Holders%20Your%20Fan%20Token%20in%20Frame%20by%20%40chanzy10" +
		"&embeds[]=" + EncodeURIComponent(testAppURL+"?cache_bust=1700000000000")
	if view.Buttons[1].Target != wantShare {
		t.Errorf("unexpected share target:\n got %s\nwant %s", view.Buttons[1].Target, wantShare)
	}
	if view.StateJSON() != "{}" {
		t.Errorf("expected empty state, got %s", view.StateJSON())
	}
}

func TestFrameService_Build_ResultsWithHolders(t *testing.T) {
	holders := []entities.EnrichedHolder{
		testutil.CreateTestHolder(testutil.HolderWithName("alice"), testutil.HolderWithBalance("3.000")),
		testutil.CreateTestHolder(testutil.HolderWithFID(2), testutil.HolderWithName("bob"), testutil.HolderWithBalance("1.500")),
	}
	service := setupFrameServiceTest(aliceSource(holders...))

	view := service.Build(context.Background(), FrameInput{UserFID: "1"})

	if view.Screen != ScreenResults {
		t.Fatalf("expected results screen, got %s", view.Screen)
	}
	if !view.HasHolders() {
		t.Error("expected holders")
	}
	if view.User == nil || view.User.FName() != "alice" {
		t.Errorf("expected alice as user, got %+v", view.User)
	}

	wantText := "Top Holders of My Fan Token:\n1. @alice (3.000 FT )\n2. @bob (1.500 FT )\nFrame by @chanzy10"
	if view.ShareText != wantText {
		t.Errorf("unexpected share text:\n got %q\nwant %q", view.ShareText, wantText)
	}

	check := view.Buttons[0]
	if check.Label != "Check Mine" || check.Action != ActionPost {
		t.Errorf("unexpected first button: %+v", check)
	}
	if check.Target != testAppURL+"frames?userfid=1&cache_bust=1700000000000" {
		t.Errorf("unexpected check target: %s", check.Target)
	}

	share := view.Buttons[1]
	if share.Label != "Share" || share.Action != ActionLink {
		t.Errorf("unexpected second button: %+v", share)
	}

	// Round-trip the share target to check both parameters
	u, err := url.Parse(share.Target)
	if err != nil {
		t.Fatalf("share target is not a URL: %v", err)
	}
	if got := u.Query().Get("text"); got != wantText {
		t.Errorf("decoded share text mismatch: %q", got)
	}
	if got := u.Query().Get("embeds[]"); got != testAppURL+"?userfid=1&cache_bust=1700000000000" {
		t.Errorf("unexpected embed: %s", got)
	}
	if strings.Contains(share.Target, "+") {
		t.Error("spaces must be encoded as %20")
	}

	if view.StateJSON() != `{"lastFid":"1"}` {
		t.Errorf("unexpected state: %s", view.StateJSON())
	}
	if view.ImageURL != testAppURL+"frames/image?userfid=1&cache_bust=1700000000000" {
		t.Errorf("unexpected image url: %s", view.ImageURL)
	}
}

func TestFrameService_Build_ResultsWithoutHolders(t *testing.T) {
	for _, err := range []error{ErrNoHolders, ErrNoMatchedHolders} {
		src := aliceSource()
		src.holdersErr = err
		service := setupFrameServiceTest(src)

		view := service.Build(context.Background(), FrameInput{UserFID: "1"})

		if view.Screen != ScreenResults {
			t.Errorf("%v: expected results screen, got %s", err, view.Screen)
		}
		if view.HasHolders() || view.HoldersFailed {
			t.Errorf("%v: expected empty, non failed holder list", err)
		}
		if !strings.HasPrefix(view.ShareText, "Check Top Holders") {
			t.Errorf("%v: expected default share text, got %q", err, view.ShareText)
		}
	}
}

func TestFrameService_Build_HoldersFailureDegrades(t *testing.T) {
	src := aliceSource()
	src.holdersErr = fmt.Errorf("failed to get portfolio: %w", repositories.ErrUpstream)
	service := setupFrameServiceTest(src)

	view := service.Build(context.Background(), FrameInput{UserFID: "1"})

	if view.Screen != ScreenResults {
		t.Errorf("expected results screen, got %s", view.Screen)
	}
	if !view.HoldersFailed {
		t.Error("expected holder failure to be flagged")
	}
}

func TestFrameService_Build_UserLookupFailureShowsSplash(t *testing.T) {
	service := setupFrameServiceTest(aliceSource(testutil.CreateTestHolder()))

	view := service.Build(context.Background(), FrameInput{UserFID: "404"})

	if view.Screen != ScreenSplash {
		t.Errorf("expected splash screen, got %s", view.Screen)
	}
	if view.FID != "404" {
		t.Errorf("expected fid kept for buttons, got %q", view.FID)
	}
	if view.HasHolders() {
		t.Error("splash must not list holders")
	}
}

func TestFrameService_Build_InvalidFIDShowsSplash(t *testing.T) {
	service := setupFrameServiceTest(aliceSource())

	view := service.Build(context.Background(), FrameInput{UserFID: "not-a-fid"})

	if view.Screen != ScreenSplash || view.FID != "" {
		t.Errorf("expected splash without fid, got %s %q", view.Screen, view.FID)
	}
}

func TestFrameService_Build_CapsHolders(t *testing.T) {
	var holders []entities.EnrichedHolder
	for i := 0; i < 12; i++ {
		holders = append(holders, testutil.CreateTestHolder(testutil.HolderWithFID(int64(i+1))))
	}
	service := setupFrameServiceTest(aliceSource(holders...))

	view := service.Build(context.Background(), FrameInput{Message: &entities.FrameMessage{RequesterFID: testutil.AliceFID}})

	if len(view.Holders) != MaxHolders {
		t.Errorf("expected %d holders, got %d", MaxHolders, len(view.Holders))
	}
	if strings.Count(view.ShareText, " FT )") != MaxHolders {
		t.Errorf("expected %d share lines, got text %q", MaxHolders, view.ShareText)
	}
}

func TestFrameService_HolderErrorsAreWrapped(t *testing.T) {
	src := aliceSource()
	src.holdersErr = fmt.Errorf("wrapped: %w", ErrNoMatchedHolders)
	service := setupFrameServiceTest(src)

	view := service.Build(context.Background(), FrameInput{UserFID: "1"})
	if view.HoldersFailed {
		t.Error("wrapped empty signals must not be treated as failures")
	}
}

func TestEncodeURIComponent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a b", "a%20b"},
		{"line\nbreak", "line%0Abreak"},
		{"@user (1.000 FT)", "%40user%20(1.000%20FT)"},
		{"it's *fine*!~", "it's%20*fine*!~"},
		{"a+b=c&d", "a%2Bb%3Dc%26d"},
		{"https://x.io/?u=1&c=2", "https%3A%2F%2Fx.io%2F%3Fu%3D1%26c%3D2"},
		{"ünï", "%C3%BCn%C3%AF"},
	}
	for _, tt := range tests {
		if got := EncodeURIComponent(tt.in); got != tt.want {
			t.Errorf("EncodeURIComponent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
