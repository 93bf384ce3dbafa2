// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // frame decoder
	_ "image/jpeg" // frame decoder
	_ "image/png"  // frame decoder
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"golang.org/x/image/draw"
)

// Facing selects which camera to use on devices with more than one.
type Facing string

const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

// Preferences describe the wanted camera. They are hints, not guarantees.
type Preferences struct {
	Facing   Facing
	Width    int           // frames wider than this are scaled down
	Height   int           // frames taller than this are scaled down
	Interval time.Duration // pause between polls when no frame is ready
}

// DefaultPreferences prefers the rear camera at 720p.
func DefaultPreferences() Preferences {
	return Preferences{
		Facing:   FacingEnvironment,
		Width:    1280,
		Height:   720,
		Interval: 250 * time.Millisecond,
	}
}

// Camera hands out frame sources.
type Camera interface {
	Open(ctx context.Context, prefs Preferences) (FrameSource, error)
}

// FrameSource yields frames until it is closed. io.EOF means no more frames.
type FrameSource interface {
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

// ErrSourceClosed is returned by Next after Close.
var ErrSourceClosed = errors.New("frame source closed")

var frameExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

// CameraErrorFrom classifies an error from acquiring a camera.
func CameraErrorFrom(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperr.ErrCameraUnavailable) {
		return err
	}
	switch {
	case errors.Is(err, fs.ErrPermission):
		return apperr.NewCameraError(apperr.CameraPermissionDenied, err)
	case errors.Is(err, fs.ErrNotExist):
		return apperr.NewCameraError(apperr.CameraNoDevice, err)
	default:
		return apperr.NewCameraError(apperr.CameraUnsupported, err)
	}
}

// DirCamera reads frames from image files. Path is either a single image or
// a drop directory that is polled for new files, such as the snapshot folder
// of a fixed camera.
type DirCamera struct {
	Path string
}

// NewDirCamera creates a camera backed by path.
func NewDirCamera(path string) *DirCamera {
	return &DirCamera{Path: path}
}

// Open checks that the path can serve frames.
func (c *DirCamera) Open(_ context.Context, prefs Preferences) (FrameSource, error) {
	info, err := os.Stat(c.Path)
	if err != nil {
		return nil, CameraErrorFrom(err)
	}

	if prefs.Interval <= 0 {
		prefs.Interval = DefaultPreferences().Interval
	}

	if !info.IsDir() {
		if !isFrameFile(c.Path) {
			return nil, apperr.NewCameraError(apperr.CameraUnsupported, fmt.Errorf("%s is not an image", c.Path))
		}
		f, err := os.Open(c.Path)
		if err != nil {
			return nil, CameraErrorFrom(err)
		}
		_ = f.Close()
		return &fileSource{path: c.Path, prefs: prefs}, nil
	}

	if _, err := os.ReadDir(c.Path); err != nil {
		return nil, CameraErrorFrom(err)
	}
	return &dirSource{dir: c.Path, prefs: prefs, seen: map[string]bool{}}, nil
}

func isFrameFile(path string) bool {
	return slices.Contains(frameExtensions, strings.ToLower(filepath.Ext(path)))
}

// fileSource yields one frame.
type fileSource struct {
	path   string
	prefs  Preferences
	mu     sync.Mutex
	done   bool
	closed bool
}

func (s *fileSource) Next(_ context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSourceClosed
	}
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	return loadFrame(s.path, s.prefs)
}

func (s *fileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// dirSource yields every image file in a directory once, in name order,
// and waits for new files.
type dirSource struct {
	seen   map[string]bool
	dir    string
	prefs  Preferences
	closed atomic.Bool
}

func (s *dirSource) Next(ctx context.Context) (image.Image, error) {
	for {
		if s.closed.Load() {
			return nil, ErrSourceClosed
		}

		path, err := s.nextFile()
		if err != nil {
			return nil, err
		}
		if path != "" {
			img, err := loadFrame(path, s.prefs)
			if err != nil {
				slog.Warn("skipping unreadable frame", "path", path, "error", err)
				continue
			}
			return img, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.prefs.Interval):
		}
	}
}

func (s *dirSource) nextFile() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", CameraErrorFrom(err)
	}
	for _, e := range entries {
		if e.IsDir() || s.seen[e.Name()] || !isFrameFile(e.Name()) {
			continue
		}
		s.seen[e.Name()] = true
		return filepath.Join(s.dir, e.Name()), nil
	}
	return "", nil
}

func (s *dirSource) Close() error {
	s.closed.Store(true)
	return nil
}

// loadFrame decodes an image file and scales it into the preferred bounds.
func loadFrame(path string, prefs Preferences) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return fit(img, prefs.Width, prefs.Height), nil
}

// fit scales img down so it fits into maxW x maxH, keeping the aspect ratio.
func fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return img
	}

	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
