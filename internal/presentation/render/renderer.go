package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/top-holders-frame/internal/application/services"
	"github.com/bimakw/top-holders-frame/internal/config"
	"github.com/bimakw/top-holders-frame/internal/domain/entities"
)

// Files looked up in the public directory
const (
	MediumFontFile   = "Poppins-Medium.ttf"
	BoldFontFile     = "Poppins-Bold.ttf"
	SplashBackground = "thumbnail.png"
	ResultBackground = "background-api.png"
	ErrorBackground  = "bg-error.png"
)

// Grid geometry on the reference 1080px canvas
const (
	referenceSize  = 1080.0
	gridColumns    = 4
	avatarSize     = 170.0
	headerBaseline = 150.0
	gridTop        = 230.0
	rowHeight      = 380.0
	nameOffset     = 50.0
	balanceOffset  = 92.0

	avatarConcurrency = 8
)

var (
	textColor        = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	mutedColor       = color.RGBA{R: 0xd6, G: 0xc8, B: 0xf5, A: 0xff}
	placeholderColor = color.RGBA{R: 0x4b, G: 0x3b, B: 0x6b, A: 0xff}

	fallbackFills = map[string]color.RGBA{
		SplashBackground: {R: 0x5b, G: 0x2a, B: 0xa8, A: 0xff},
		ResultBackground: {R: 0x1c, G: 0x10, B: 0x33, A: 0xff},
		ErrorBackground:  {R: 0x33, G: 0x10, B: 0x1c, A: 0xff},
	}
)

// Renderer draws frame views as square PNG images
type Renderer struct {
	size        int
	medium      *opentype.Font
	bold        *opentype.Font
	backgrounds map[string]*image.RGBA // Pre-scaled, nil entries use a solid fill
	avatars     AvatarFetcher
	timeout     time.Duration
	logger      *zap.Logger
}

// NewRenderer loads fonts and backgrounds from cfg.PublicDir. Missing files
// fall back to the built-in Go fonts and solid fills.
func NewRenderer(cfg config.FrameConfig, avatars AvatarFetcher, logger *zap.Logger) (*Renderer, error) {
	if cfg.ImageSize <= 0 {
		return nil, fmt.Errorf("invalid image size %d", cfg.ImageSize)
	}

	medium, err := loadFont(cfg.PublicDir, MediumFontFile, gomedium.TTF, logger)
	if err != nil {
		return nil, err
	}
	bold, err := loadFont(cfg.PublicDir, BoldFontFile, gobold.TTF, logger)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		size:        cfg.ImageSize,
		medium:      medium,
		bold:        bold,
		backgrounds: make(map[string]*image.RGBA),
		avatars:     avatars,
		timeout:     cfg.AvatarTimeout,
		logger:      logger,
	}

	for _, name := range []string{SplashBackground, ResultBackground, ErrorBackground} {
		r.backgrounds[name] = loadBackground(cfg.PublicDir, name, r.size, logger)
	}

	return r, nil
}

func loadFont(dir, name string, fallback []byte, logger *zap.Logger) (*opentype.Font, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		logger.Info("Using built-in font", zap.String("missing", name))
		data = fallback
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
	}
	return f, nil
}

func loadBackground(dir, name string, size int, logger *zap.Logger) *image.RGBA {
	file, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		logger.Info("Using solid background", zap.String("missing", name))
		return nil
	}
	defer file.Close()

	src, err := png.Decode(file)
	if err != nil {
		logger.Warn("Failed to decode background", zap.String("file", name), zap.Error(err))
		return nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Render encodes the image of view as PNG into w
func (r *Renderer) Render(ctx context.Context, view *services.FrameView, w io.Writer) error {
	img, err := r.Draw(ctx, view)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode frame image: %w", err)
	}
	return nil
}

// Draw paints the image of view
func (r *Renderer) Draw(ctx context.Context, view *services.FrameView) (*image.RGBA, error) {
	faces, err := r.newFaces()
	if err != nil {
		return nil, err
	}
	defer faces.Close()

	bg := BackgroundFor(view)
	dst := image.NewRGBA(image.Rect(0, 0, r.size, r.size))
	fallback := r.backgrounds[bg] == nil
	if fallback {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(fallbackFills[bg]), image.Point{}, draw.Src)
	} else {
		draw.Draw(dst, dst.Bounds(), r.backgrounds[bg], image.Point{}, draw.Src)
	}

	switch {
	case view.HasHolders():
		r.drawHeader(dst, faces, view.User)
		r.drawGrid(ctx, dst, faces, view.Holders)
	case fallback && view.Screen == services.ScreenResults:
		msg := "No fan token holders yet"
		if view.HoldersFailed {
			msg = "Could not load holders"
		}
		r.drawCentered(dst, faces.title, msg, r.size/2, r.size/2, textColor)
	case fallback:
		r.drawCentered(dst, faces.title, "TOP HOLDERS", r.size/2, r.size/2-r.px(20), textColor)
		r.drawCentered(dst, faces.name, "Check the top holders of your fan token", r.size/2, r.size/2+r.px(50), mutedColor)
	}

	return dst, nil
}

// BackgroundFor selects the background file of view
func BackgroundFor(view *services.FrameView) string {
	switch {
	case view.Screen != services.ScreenResults:
		return SplashBackground
	case view.HasHolders():
		return ResultBackground
	default:
		return ErrorBackground
	}
}

type faceSet struct {
	title   font.Face
	name    font.Face
	balance font.Face
}

func (f *faceSet) Close() {
	for _, face := range []font.Face{f.title, f.name, f.balance} {
		if face != nil {
			_ = face.Close()
		}
	}
}

// Faces keep glyph caches and are not safe for concurrent use, so each render gets its own
func (r *Renderer) newFaces() (*faceSet, error) {
	var (
		fs  faceSet
		err error
	)
	if fs.title, err = r.face(r.bold, 56); err != nil {
		return nil, err
	}
	if fs.name, err = r.face(r.medium, 30); err != nil {
		fs.Close()
		return nil, err
	}
	if fs.balance, err = r.face(r.bold, 28); err != nil {
		fs.Close()
		return nil, err
	}
	return &fs, nil
}

func (r *Renderer) face(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size * float64(r.size) / referenceSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

func (r *Renderer) px(v float64) int {
	return int(v*float64(r.size)/referenceSize + 0.5)
}

func (r *Renderer) drawHeader(dst *image.RGBA, faces *faceSet, user *entities.SocialProfile) {
	if user == nil {
		return
	}
	header := strings.ToUpper(user.FName() + " Fan Token")
	r.drawCentered(dst, faces.title, header, r.size/2, r.px(headerBaseline), textColor)
}

// avatarRect is the square of the avatar of the i-th holder
func (r *Renderer) avatarRect(i int) image.Rectangle {
	cellW := r.size / gridColumns
	d := r.px(avatarSize)
	col, row := i%gridColumns, i/gridColumns
	x0 := col*cellW + (cellW-d)/2
	y0 := r.px(gridTop) + row*r.px(rowHeight)
	return image.Rect(x0, y0, x0+d, y0+d)
}

func (r *Renderer) drawGrid(ctx context.Context, dst *image.RGBA, faces *faceSet, holders []entities.EnrichedHolder) {
	if len(holders) > services.MaxHolders {
		holders = holders[:services.MaxHolders]
	}

	avatars := r.fetchAvatars(ctx, holders)

	for i, h := range holders {
		rect := r.avatarRect(i)
		d := rect.Dx()
		mask := &circle{p: image.Pt(d/2, d/2), r: d / 2}

		if avatars[i] != nil {
			scaled := image.NewRGBA(image.Rect(0, 0, d, d))
			draw.CatmullRom.Scale(scaled, scaled.Bounds(), avatars[i], avatars[i].Bounds(), draw.Src, nil)
			draw.DrawMask(dst, rect, scaled, image.Point{}, mask, image.Point{}, draw.Over)
		} else {
			draw.DrawMask(dst, rect, image.NewUniform(placeholderColor), image.Point{}, mask, image.Point{}, draw.Over)
		}

		cx := rect.Min.X + d/2
		r.drawCentered(dst, faces.name, h.ProfileName, cx, rect.Max.Y+r.px(nameOffset), textColor)
		r.drawCentered(dst, faces.balance, h.Balance+" FT", cx, rect.Max.Y+r.px(balanceOffset), mutedColor)
	}
}

// fetchAvatars downloads avatars concurrently. A failed download leaves a nil slot.
func (r *Renderer) fetchAvatars(ctx context.Context, holders []entities.EnrichedHolder) []image.Image {
	out := make([]image.Image, len(holders))
	if r.avatars == nil {
		return out
	}

	var g errgroup.Group
	g.SetLimit(avatarConcurrency)
	for i := range holders {
		i := i
		url := holders[i].AvatarURL
		if url == "" {
			continue
		}
		g.Go(func() error {
			actx := ctx
			if r.timeout > 0 {
				var cancel context.CancelFunc
				actx, cancel = context.WithTimeout(ctx, r.timeout)
				defer cancel()
			}
			img, err := r.avatars.Fetch(actx, url)
			if err != nil {
				r.logger.Debug("Using avatar placeholder", zap.String("url", url), zap.Error(err))
				return nil
			}
			out[i] = img
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (r *Renderer) drawCentered(dst *image.RGBA, face font.Face, text string, cx, baseline int, col color.Color) {
	width := font.MeasureString(face, text).Ceil()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(cx-width/2, baseline),
	}
	d.DrawString(text)
}
