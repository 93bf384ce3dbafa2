// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package scan turns camera frames into code identifiers and tracks the
// per-user scan session.
package scan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// Adapter runs a decode loop over a camera.
type Adapter struct {
	camera  Camera
	decoder Decoder
	prefs   Preferences
}

// NewAdapter creates an adapter. Camera errors are reported, never retried.
func NewAdapter(camera Camera, decoder Decoder, prefs Preferences) *Adapter {
	return &Adapter{camera: camera, decoder: decoder, prefs: prefs}
}

// Start acquires the camera and calls onDecode with the text of every
// recognized frame. The loop ends when onDecode returns true, Stop is
// called, ctx ends or the frame source fails; the camera is released in
// every case. onDecode runs on the loop goroutine and must not call Stop.
func (a *Adapter) Start(ctx context.Context, onDecode func(raw string) bool) (*Handle, error) {
	src, err := a.camera.Open(ctx, a.prefs)
	if err != nil {
		return nil, CameraErrorFrom(err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
		source: src,
	}
	slog.Debug("scan_camera_acquired", "facing", a.prefs.Facing)

	go h.run(loopCtx, a.decoder, onDecode)
	return h, nil
}

// Handle controls a running decode loop.
type Handle struct {
	source FrameSource
	err    error
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (h *Handle) run(ctx context.Context, decoder Decoder, onDecode func(string) bool) {
	defer close(h.done)
	defer h.release()

	for {
		frame, err := h.source.Next(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) && !errors.Is(err, ErrSourceClosed) {
				h.err = err
				slog.Warn("scan frame source failed", "error", err)
			}
			return
		}

		raw, err := decoder.Decode(frame)
		if err != nil {
			if !errors.Is(err, ErrNoCode) {
				slog.Debug("frame decode failed", "error", err)
			}
			continue
		}

		if onDecode(raw) {
			return
		}
	}
}

func (h *Handle) release() {
	h.once.Do(func() {
		if err := h.source.Close(); err != nil {
			slog.Warn("failed to release camera", "error", err)
		}
		slog.Debug("scan_camera_released")
	})
}

// Stop ends the loop and waits until the camera is released. It is safe to
// call more than once.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Done is closed once the loop has exited and the camera is released.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the frame source failure that ended the loop, if any.
// It is only meaningful after Done is closed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}
