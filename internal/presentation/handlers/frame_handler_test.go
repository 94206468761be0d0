package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/top-holders-frame/internal/application/services"
	"github.com/bimakw/top-holders-frame/internal/config"
	"github.com/bimakw/top-holders-frame/internal/domain/entities"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/farcaster"
	"github.com/bimakw/top-holders-frame/internal/testutil"
)

type stubValidator struct {
	msg    *entities.FrameMessage
	err    error
	called bool
}

func (v *stubValidator) Validate(ctx context.Context, p *farcaster.Packet) (*entities.FrameMessage, error) {
	v.called = true
	return v.msg, v.err
}

type stubRenderer struct {
	err  error
	view *services.FrameView
}

func (r *stubRenderer) Render(ctx context.Context, view *services.FrameView, w io.Writer) error {
	r.view = view
	if r.err != nil {
		return r.err
	}
	_, err := w.Write([]byte("\x89PNG"))
	return err
}

type frameHandlerFixture struct {
	handler   *FrameHandler
	validator *stubValidator
	renderer  *stubRenderer
	portfolio *testutil.MockPortfolioRepository
	social    *testutil.MockSocialRepository
}

func setupFrameHandlerTest() frameHandlerFixture {
	logger := zap.NewNop()
	portfolio := testutil.NewMockPortfolioRepository()
	resolution := testutil.NewMockResolutionRepository(testutil.CreateTestRecord())
	social := testutil.NewMockSocialRepository()
	social.AddProfiles(testutil.CreateTestProfile())

	holders := services.NewHoldersService(portfolio, resolution, social, nil,
		config.CacheConfig{HoldersTTL: time.Minute, ProfileTTL: time.Minute}, 4, logger)

	cfg := config.FrameConfig{
		Author:      "chanzy10",
		ComposeURL:  "https://warpcast.com/~/compose",
		Title:       "Top Holders Frame",
		Description: "Check the top holders of your fan token.",
	}
	frames := services.NewFrameService(holders, "https://frame.example.com/", cfg, logger)

	validator := &stubValidator{}
	renderer := &stubRenderer{}

	return frameHandlerFixture{
		handler:   NewFrameHandler(frames, validator, renderer, cfg, logger),
		validator: validator,
		renderer:  renderer,
		portfolio: portfolio,
		social:    social,
	}
}

func TestFrameHandler_Frame_GetSplash(t *testing.T) {
	f := setupFrameHandlerTest()

	req := httptest.NewRequest(http.MethodGet, "/frames", nil)
	rec := httptest.NewRecorder()

	f.handler.Frame(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html, got %s", ct)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`<meta name="fc:frame" content="vNext">`,
		`<meta name="fc:frame:image:aspect_ratio" content="1:1">`,
		`<meta name="fc:frame:button:1" content="Check Mine">`,
		`<meta name="fc:frame:button:1:action" content="post">`,
		`<meta name="fc:frame:button:2" content="Share">`,
		`<meta name="fc:frame:button:2:action" content="link">`,
		`https://frame.example.com/frames/image?userfid=&amp;cache_bust=`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %s", want)
		}
	}
	if f.validator.called {
		t.Error("GET must not validate a message")
	}
}

func TestFrameHandler_Frame_GetWithUserFID(t *testing.T) {
	f := setupFrameHandlerTest()

	req := httptest.NewRequest(http.MethodGet, "/frames?userfid=1", nil)
	rec := httptest.NewRecorder()

	f.handler.Frame(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "https://frame.example.com/frames?userfid=1&amp;cache_bust=") {
		t.Errorf("expected check mine target with fid, got %s", body)
	}
	if !strings.Contains(body, `content="{&#34;lastFid&#34;:&#34;1&#34;}"`) {
		t.Errorf("expected frame state with lastFid, got %s", body)
	}
}

func TestFrameHandler_Frame_PostUsesRequester(t *testing.T) {
	f := setupFrameHandlerTest()
	f.validator.msg = &entities.FrameMessage{RequesterFID: testutil.AliceFID, Verified: true}

	packet := `{"untrustedData":{"fid":1,"buttonIndex":1},"trustedData":{"messageBytes":"0a0b"}}`
	req := httptest.NewRequest(http.MethodPost, "/frames?userfid=99", strings.NewReader(packet))
	rec := httptest.NewRecorder()

	f.handler.Frame(rec, req)

	if !f.validator.called {
		t.Fatal("expected message validation")
	}
	if !strings.Contains(rec.Body.String(), "frames?userfid=1&amp;") {
		t.Error("expected requester fid to win over the query parameter")
	}
}

func TestFrameHandler_Frame_PostRejectedFallsBackToQuery(t *testing.T) {
	f := setupFrameHandlerTest()
	f.validator.err = farcaster.ErrInvalidMessage

	req := httptest.NewRequest(http.MethodPost, "/frames?userfid=7", strings.NewReader(`{"untrustedData":{"fid":1}}`))
	rec := httptest.NewRecorder()

	f.handler.Frame(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "frames?userfid=7&amp;") {
		t.Error("expected query fid after rejected message")
	}
}

func TestFrameHandler_Frame_PostMalformedBody(t *testing.T) {
	f := setupFrameHandlerTest()

	req := httptest.NewRequest(http.MethodPost, "/frames", strings.NewReader("not json"))
	rec := httptest.NewRecorder()

	f.handler.Frame(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if f.validator.called {
		t.Error("malformed packets must not reach the validator")
	}
}

func TestFrameHandler_Image(t *testing.T) {
	f := setupFrameHandlerTest()
	f.portfolio.SetPortfolio(testutil.AliceFID, testutil.CreatePortfolio(testutil.Tokens(4), testutil.AliceAddress)...)

	req := httptest.NewRequest(http.MethodGet, "/frames/image?userfid=1&cache_bust=123", nil)
	rec := httptest.NewRecorder()

	f.handler.Image(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, immutable, no-transform, max-age=1" {
		t.Errorf("unexpected Cache-Control: %s", cc)
	}

	view := f.renderer.view
	if view == nil || view.Screen != services.ScreenResults {
		t.Fatalf("expected results view, got %+v", view)
	}
	if len(view.Holders) != 1 || view.Holders[0].Balance != "4.000" {
		t.Errorf("unexpected holders: %+v", view.Holders)
	}
}

func TestFrameHandler_Image_RenderError(t *testing.T) {
	f := setupFrameHandlerTest()
	f.renderer.err = errors.New("boom")

	req := httptest.NewRequest(http.MethodGet, "/frames/image", nil)
	rec := httptest.NewRecorder()

	f.handler.Image(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") != "" {
		t.Error("failed renders must not be cacheable")
	}
}

func TestFrameHandler_Landing(t *testing.T) {
	f := setupFrameHandlerTest()

	req := httptest.NewRequest(http.MethodGet, "/?userfid=1", nil)
	rec := httptest.NewRecorder()

	f.handler.Landing(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"<title>Top Holders Frame</title>",
		`<meta property="og:description" content="Check the top holders of your fan token.">`,
		`<meta name="fc:frame" content="vNext">`,
		`href="https://warpcast.com/chanzy10"`,
		"frames/image?userfid=1&amp;",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected landing page to contain %s", want)
		}
	}
}
