// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package scan_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/services/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(0, 0, color.Gray{Y: 0})
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func fastPrefs() scan.Preferences {
	p := scan.DefaultPreferences()
	p.Interval = 10 * time.Millisecond
	return p
}

func TestDirCamera_MissingPath(t *testing.T) {
	cam := scan.NewDirCamera(filepath.Join(t.TempDir(), "nope"))

	_, err := cam.Open(context.Background(), fastPrefs())

	require.ErrorIs(t, err, apperr.ErrCameraUnavailable)
	reason, ok := apperr.CameraReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CameraNoDevice, reason)
}

func TestDirCamera_UnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	_, err := scan.NewDirCamera(path).Open(context.Background(), fastPrefs())

	reason, ok := apperr.CameraReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CameraUnsupported, reason)
}

func TestCameraErrorFrom(t *testing.T) {
	tests := []struct {
		err      error
		expected apperr.CameraReason
	}{
		{os.ErrPermission, apperr.CameraPermissionDenied},
		{os.ErrNotExist, apperr.CameraNoDevice},
		{errors.New("driver crashed"), apperr.CameraUnsupported},
		{apperr.NewCameraError(apperr.CameraNoDevice, nil), apperr.CameraNoDevice},
	}

	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			err := scan.CameraErrorFrom(tt.err)
			assert.ErrorIs(t, err, apperr.ErrCameraUnavailable)
			reason, _ := apperr.CameraReasonOf(err)
			assert.Equal(t, tt.expected, reason)
		})
	}

	assert.NoError(t, scan.CameraErrorFrom(nil))
}

func TestDirCamera_SingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	writePNG(t, path, 40, 30)
	ctx := context.Background()

	src, err := scan.NewDirCamera(path).Open(ctx, fastPrefs())
	require.NoError(t, err)

	img, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, src.Close())
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, scan.ErrSourceClosed)
}

func TestDirCamera_ScalesLargeFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	writePNG(t, path, 2560, 1440)
	prefs := fastPrefs()

	src, err := scan.NewDirCamera(path).Open(context.Background(), prefs)
	require.NoError(t, err)

	img, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, prefs.Width, img.Bounds().Dx())
	assert.Equal(t, prefs.Height, img.Bounds().Dy())
}

func TestDirCamera_DirectoryPolling(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "001.png"), 10, 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o600))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	src, err := scan.NewDirCamera(dir).Open(ctx, fastPrefs())
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	_, err = src.Next(ctx)
	require.NoError(t, err)

	staged := filepath.Join(t.TempDir(), "002.png")
	writePNG(t, staged, 12, 12)
	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = os.Rename(staged, filepath.Join(dir, "002.png"))
	}()

	img, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())
}

func TestDirCamera_DirectoryWaitHonoursContext(t *testing.T) {
	dir := t.TempDir()
	src, err := scan.NewDirCamera(dir).Open(context.Background(), fastPrefs())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDirCamera_SkipsCorruptFrames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001.png"), []byte("not a png"), 0o600))
	writePNG(t, filepath.Join(dir, "002.png"), 16, 16)

	src, err := scan.NewDirCamera(dir).Open(context.Background(), fastPrefs())
	require.NoError(t, err)

	img, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}
