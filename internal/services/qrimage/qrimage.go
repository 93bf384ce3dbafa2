// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package qrimage builds the canonical code URL and renders it as a PNG label.
package qrimage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/url"
	"strings"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"github.com/boombuler/barcode/qr"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// PathPrefix is the path segment in front of every identifier.
const PathPrefix = "/qr/"

const (
	DefaultSize        = 256
	DefaultMargin      = 2
	DefaultCacheSize   = 512
	DefaultConcurrency = 4
)

// Options configures a Renderer.
type Options struct {
	Origin      string // scheme://host[:port] of the landing page
	Size        int    // edge length in pixels
	Margin      int    // quiet zone in modules
	CacheSize   int    // rendered labels kept in memory
	Concurrency int    // parallel renders in RenderMany
}

// Renderer produces canonical URLs and label images.
type Renderer struct {
	cache       *lru.Cache[string, []byte]
	origin      string
	size        int
	margin      int
	concurrency int
}

// Label is a rendered code image.
type Label struct {
	ID  string
	URL string
	PNG []byte
}

// New validates the options and creates a Renderer.
func New(opts Options) (*Renderer, error) {
	origin, err := normalizeOrigin(opts.Origin)
	if err != nil {
		return nil, err
	}
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.Margin < 0 {
		return nil, apperr.Invalid("margin must not be negative")
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating image cache: %w", err)
	}

	return &Renderer{
		cache:       cache,
		origin:      origin,
		size:        opts.Size,
		margin:      opts.Margin,
		concurrency: opts.Concurrency,
	}, nil
}

func normalizeOrigin(origin string) (string, error) {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return "", apperr.Invalid("origin is empty")
	}
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", apperr.Invalid("origin %q is not an absolute URL", origin)
	}
	return origin, nil
}

// Origin returns the normalized origin.
func (r *Renderer) Origin() string {
	return r.origin
}

// CanonicalURL returns origin + "/qr/" + id. The identifier is not escaped.
func (r *Renderer) CanonicalURL(id string) (string, error) {
	return CanonicalURL(r.origin, id)
}

// CanonicalURL joins an origin and an identifier into the landing URL.
func CanonicalURL(origin, id string) (string, error) {
	if id == "" {
		return "", apperr.Invalid("identifier is empty")
	}
	origin, err := normalizeOrigin(origin)
	if err != nil {
		return "", err
	}
	return origin + PathPrefix + id, nil
}

// Render returns the PNG label for id. Equal inputs produce equal bytes.
// The result is a copy; callers may modify it.
func (r *Renderer) Render(id string) ([]byte, error) {
	if data, ok := r.cache.Get(id); ok {
		return bytes.Clone(data), nil
	}

	content, err := r.CanonicalURL(id)
	if err != nil {
		return nil, err
	}

	img, err := r.rasterize(content)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}

	data := buf.Bytes()
	r.cache.Add(id, data)
	return bytes.Clone(data), nil
}

// rasterize draws the module matrix with its quiet zone and scales it to the target size.
func (r *Renderer) rasterize(content string) (*image.Gray, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encoding qr code: %w", err)
	}

	modules := code.Bounds().Dx()
	total := modules + 2*r.margin
	if r.size < total {
		return nil, apperr.Invalid("image size %d is smaller than %d modules", r.size, total)
	}

	matrix := image.NewGray(image.Rect(0, 0, total, total))
	draw.Draw(matrix, matrix.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for y := range modules {
		for x := range modules {
			if isDark(code.At(code.Bounds().Min.X+x, code.Bounds().Min.Y+y)) {
				matrix.SetGray(x+r.margin, y+r.margin, color.Gray{Y: 0})
			}
		}
	}

	out := image.NewGray(image.Rect(0, 0, r.size, r.size))
	draw.NearestNeighbor.Scale(out, out.Bounds(), matrix, matrix.Bounds(), draw.Src, nil)
	return out, nil
}

func isDark(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < 128
}

// RenderMany renders labels concurrently and returns them in input order.
func (r *Renderer) RenderMany(ctx context.Context, ids []string) ([]Label, error) {
	labels := make([]Label, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := r.Render(id)
			if err != nil {
				return fmt.Errorf("rendering %s: %w", id, err)
			}
			u, _ := r.CanonicalURL(id)
			labels[i] = Label{ID: id, URL: u, PNG: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return labels, nil
}

// DataURI embeds PNG bytes in a data: URL for inline previews.
func DataURI(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

// DownloadName is the file name offered when a label is downloaded.
func DownloadName(id string) string {
	return "QR-" + id + ".png"
}
