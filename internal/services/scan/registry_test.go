// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package scan_test

import (
	"testing"
	"time"

	"codeberg.org/oliverandrich/assettag/internal/services/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SessionIsStablePerKey(t *testing.T) {
	r := scan.NewRegistry[string](10, time.Minute)

	a := r.Session("browser-a")
	require.True(t, a.Begin())

	assert.Same(t, a, r.Session("browser-a"))
	assert.NotSame(t, a, r.Session("browser-b"))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Remove(t *testing.T) {
	r := scan.NewRegistry[string](10, time.Minute)
	s := r.Session("browser-a")

	r.Remove("browser-a")

	assert.Equal(t, scan.StateTerminated, s.State())
	_, ok := r.Peek("browser-a")
	assert.False(t, ok)
}

func TestRegistry_EvictsOldest(t *testing.T) {
	r := scan.NewRegistry[string](2, time.Minute)
	first := r.Session("a")
	r.Session("b")
	r.Session("c")

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, scan.StateTerminated, first.State())
	_, ok := r.Peek("a")
	assert.False(t, ok)
}

func TestRegistry_Expires(t *testing.T) {
	r := scan.NewRegistry[string](10, 50*time.Millisecond)
	old := r.Session("a")

	time.Sleep(120 * time.Millisecond)

	fresh := r.Session("a")
	assert.NotSame(t, old, fresh)
	assert.Equal(t, scan.StateIdle, fresh.State())
}
