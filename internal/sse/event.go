// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package sse fans out code changes and scan results to browsers over
// server-sent events.
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Event names sent to browsers.
const (
	EventConnected = "connected"
	EventCode      = "code"
	EventScan      = "scan"
)

// Event is one server-sent event. ID is assigned by the hub; zero omits it.
type Event struct {
	ID   uint64
	Name string
	Data string
}

// JSONEvent encodes v as the single line payload of a named event.
func JSONEvent(name string, v any) (Event, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Event{}, fmt.Errorf("encoding %s event: %w", name, err)
	}
	return Event{Name: name, Data: string(data)}, nil
}

// String renders the event in wire format. Every data line gets its own
// "data:" field and a blank line terminates the event.
func (e Event) String() string {
	var sb strings.Builder
	if e.ID != 0 {
		sb.WriteString("id: " + strconv.FormatUint(e.ID, 10) + "\n")
	}
	if e.Name != "" {
		sb.WriteString("event: " + e.Name + "\n")
	}
	for line := range strings.SplitSeq(e.Data, "\n") {
		sb.WriteString("data: " + line + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

// WriteTo writes the wire format of e to w.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, e.String())
	return int64(n), err
}

// heartbeat is a comment line; clients ignore it.
const heartbeat = ": heartbeat\n\n"

// WriteHeartbeat keeps idle connections open through proxies.
func WriteHeartbeat(w io.Writer) error {
	_, err := io.WriteString(w, heartbeat)
	return err
}
