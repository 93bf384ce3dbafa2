// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"codeberg.org/oliverandrich/assettag/internal/sse"
	"github.com/labstack/echo/v4"
)

// HeartbeatInterval is how often idle event streams are pinged.
var HeartbeatInterval = 30 * time.Second

// Events streams code changes and the scan results of the browser's session.
func (h *Handlers) Events(c echo.Context) error {
	sid, err := h.scanSessionID(c)
	if err != nil {
		return renderError(c, err)
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	client := h.Hub.Subscribe(sid)
	defer h.Hub.Unsubscribe(client)

	if _, err := (sse.Event{Name: sse.EventConnected, Data: "ok"}).WriteTo(w); err != nil {
		return nil
	}
	w.Flush()

	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := sse.WriteHeartbeat(w); err != nil {
				return nil
			}
			w.Flush()
		case e, ok := <-client.Events():
			if !ok {
				return nil
			}
			if _, err := e.WriteTo(w); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
