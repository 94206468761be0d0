package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	// Avatar formats served by the social API
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/bimakw/top-holders-frame/internal/infrastructure/httpclient"
)

// AvatarFetcher downloads and decodes profile pictures
type AvatarFetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

// HTTPAvatarFetcher fetches avatars over HTTP
type HTTPAvatarFetcher struct {
	client *httpclient.Client
}

// NewHTTPAvatarFetcher creates a fetcher backed by client
func NewHTTPAvatarFetcher(client *httpclient.Client) *HTTPAvatarFetcher {
	return &HTTPAvatarFetcher{client: client}
}

// Fetch downloads url and decodes it as PNG, JPEG, GIF or WebP
func (f *HTTPAvatarFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	if url == "" {
		return nil, errors.New("empty avatar url")
	}

	body, err := f.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode avatar: %w", err)
	}

	return img, nil
}

// circle is an alpha mask of a disc centered at p
type circle struct {
	p image.Point
	r int
}

func (c *circle) ColorModel() color.Model {
	return color.AlphaModel
}

func (c *circle) Bounds() image.Rectangle {
	return image.Rect(c.p.X-c.r, c.p.Y-c.r, c.p.X+c.r, c.p.Y+c.r)
}

func (c *circle) At(x, y int) color.Color {
	xx, yy, rr := float64(x-c.p.X)+0.5, float64(y-c.p.Y)+0.5, float64(c.r)
	if xx*xx+yy*yy < rr*rr {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}
