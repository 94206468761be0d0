package handlers

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/bimakw/top-holders-frame/internal/application/services"
	"github.com/bimakw/top-holders-frame/internal/config"
	"github.com/bimakw/top-holders-frame/internal/domain/entities"
	"github.com/bimakw/top-holders-frame/internal/infrastructure/farcaster"
)

const (
	maxFrameBodyBytes = 64 << 10
	imageCacheControl = "public, immutable, no-transform, max-age=1"
)

// FrameValidator resolves the interaction context of a frame POST
type FrameValidator interface {
	Validate(ctx context.Context, p *farcaster.Packet) (*entities.FrameMessage, error)
}

// ImageRenderer encodes a frame view as an image
type ImageRenderer interface {
	Render(ctx context.Context, view *services.FrameView, w io.Writer) error
}

// FrameHandler serves the frame, its image and the landing page
type FrameHandler struct {
	service   *services.FrameService
	validator FrameValidator
	renderer  ImageRenderer
	cfg       config.FrameConfig
	logger    *zap.Logger
}

// NewFrameHandler creates a new frame handler
func NewFrameHandler(
	service *services.FrameService,
	validator FrameValidator,
	renderer ImageRenderer,
	cfg config.FrameConfig,
	logger *zap.Logger,
) *FrameHandler {
	return &FrameHandler{
		service:   service,
		validator: validator,
		renderer:  renderer,
		cfg:       cfg,
		logger:    logger,
	}
}

type pageData struct {
	Title       string
	Description string
	Author      string
	View        *services.FrameView
}

var pageTemplates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`{{define "frameMeta"}}<meta property="og:title" content="{{.Title}}">
<meta property="og:image" content="{{.View.ImageURL}}">
<meta name="fc:frame" content="vNext">
<meta name="fc:frame:image" content="{{.View.ImageURL}}">
<meta name="fc:frame:image:aspect_ratio" content="1:1">
<meta name="fc:frame:post_url" content="{{.View.PostURL}}">
<meta name="fc:frame:state" content="{{.View.StateJSON}}">
{{range $i, $b := .View.Buttons}}<meta name="fc:frame:button:{{inc $i}}" content="{{$b.Label}}">
<meta name="fc:frame:button:{{inc $i}}:action" content="{{$b.Action}}">
<meta name="fc:frame:button:{{inc $i}}:target" content="{{$b.Target}}">
{{end}}{{end}}
{{define "frame"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{template "frameMeta" .}}</head>
<body></body>
</html>
{{end}}
{{define "landing"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
<meta property="og:description" content="{{.Description}}">
{{template "frameMeta" .}}</head>
<body>
<main>
<h1>{{.Title}}</h1>
<p>{{.Description}}</p>
<p>Open this page in a Farcaster client to use the frame. Made by <a href="https://warpcast.com/{{.Author}}">@{{.Author}}</a>.</p>
</main>
</body>
</html>
{{end}}`))

// Frame handles GET and POST /frames
func (h *FrameHandler) Frame(w http.ResponseWriter, r *http.Request) {
	in := services.FrameInput{UserFID: r.URL.Query().Get("userfid")}
	if r.Method == http.MethodPost {
		in.Message = h.readMessage(w, r)
	}

	h.renderPage(w, "frame", h.service.Build(r.Context(), in))
}

// Landing handles GET /
func (h *FrameHandler) Landing(w http.ResponseWriter, r *http.Request) {
	view := h.service.Build(r.Context(), services.FrameInput{UserFID: r.URL.Query().Get("userfid")})
	h.renderPage(w, "landing", view)
}

// Image handles GET /frames/image
func (h *FrameHandler) Image(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view := h.service.Build(ctx, services.FrameInput{UserFID: r.URL.Query().Get("userfid")})

	var buf bytes.Buffer
	if err := h.renderer.Render(ctx, view, &buf); err != nil {
		h.logger.Error("Failed to render frame image", zap.Error(err), zap.String("fid", view.FID))
		respondError(w, http.StatusInternalServerError, "Failed to render image.")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", imageCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// readMessage returns the validated message of a frame POST, or nil when
// the body is not a usable frame packet
func (h *FrameHandler) readMessage(w http.ResponseWriter, r *http.Request) *entities.FrameMessage {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFrameBodyBytes))
	if err != nil || len(body) == 0 {
		return nil
	}

	packet, err := farcaster.ParsePacket(body)
	if err != nil {
		h.logger.Debug("Ignoring malformed frame packet", zap.Error(err))
		return nil
	}

	msg, err := h.validator.Validate(r.Context(), packet)
	if err != nil {
		h.logger.Warn("Frame message rejected", zap.Error(err))
		return nil
	}
	return msg
}

func (h *FrameHandler) renderPage(w http.ResponseWriter, name string, view *services.FrameView) {
	data := pageData{
		Title:       h.cfg.Title,
		Description: h.cfg.Description,
		Author:      h.cfg.Author,
		View:        view,
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("Failed to render page", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
