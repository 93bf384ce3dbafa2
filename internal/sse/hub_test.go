// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package sse_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/assettag/internal/models"
	"codeberg.org/oliverandrich/assettag/internal/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *sse.Client) sse.Event {
	t.Helper()
	select {
	case e, ok := <-c.Events():
		require.True(t, ok, "stream closed")
		return e
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no event received")
		return sse.Event{}
	}
}

func assertSilent(t *testing.T, c *sse.Client) {
	t.Helper()
	select {
	case e := <-c.Events():
		t.Fatalf("unexpected event %q", e.Name)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHub_SubscribeAndUnsubscribe(t *testing.T) {
	hub := sse.NewHub()

	a := hub.Subscribe("s1")
	b := hub.Subscribe("s1")
	c := hub.Subscribe("s2")
	assert.Equal(t, 3, hub.ClientCount())
	assert.Equal(t, 2, hub.SessionCount())

	hub.Unsubscribe(a)
	hub.Unsubscribe(a)
	assert.Equal(t, 2, hub.ClientCount())

	_, open := <-a.Events()
	assert.False(t, open)

	hub.Unsubscribe(b)
	hub.Unsubscribe(c)
	assert.Zero(t, hub.ClientCount())
	assert.Zero(t, hub.SessionCount())
}

func TestHub_Publish(t *testing.T) {
	hub := sse.NewHub()
	tab1 := hub.Subscribe("s1")
	tab2 := hub.Subscribe("s1")
	other := hub.Subscribe("s2")
	defer hub.Unsubscribe(tab1)
	defer hub.Unsubscribe(tab2)
	defer hub.Unsubscribe(other)

	hub.Publish("s1", sse.Event{Name: sse.EventScan, Data: "x"})

	assert.Equal(t, "x", receive(t, tab1).Data)
	assert.Equal(t, "x", receive(t, tab2).Data)
	assertSilent(t, other)
}

func TestHub_Broadcast_AssignsIncreasingIDs(t *testing.T) {
	hub := sse.NewHub()
	a := hub.Subscribe("s1")
	b := hub.Subscribe("s2")
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	hub.Broadcast(sse.Event{Data: "first"})
	hub.Broadcast(sse.Event{Data: "second"})

	first, second := receive(t, a), receive(t, a)
	assert.Less(t, first.ID, second.ID)
	assert.Equal(t, first.ID, receive(t, b).ID)
}

func TestHub_FullBufferDrops(t *testing.T) {
	hub := sse.NewHub()
	c := hub.Subscribe("s1")
	defer hub.Unsubscribe(c)

	done := make(chan struct{})
	go func() {
		for range 40 {
			hub.Publish("s1", sse.Event{Data: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow client")
	}
	assert.Positive(t, hub.Dropped())
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := sse.NewHub()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := hub.Subscribe("s")
			hub.Broadcast(sse.Event{Data: "tick"})
			hub.Publish("s", sse.Event{Data: "tock"})
			if i%2 == 0 {
				time.Sleep(time.Millisecond)
			}
			hub.Unsubscribe(c)
		}(i)
	}
	wg.Wait()

	assert.Zero(t, hub.ClientCount())
}

func TestHub_CodeChanged(t *testing.T) {
	hub := sse.NewHub()
	c := hub.Subscribe("s1")
	defer hub.Unsubscribe(c)

	assetID := "asset-1"
	hub.CodeChanged(&models.Code{ID: "ABC123", Status: models.StatusAssigned, AssignedAssetID: &assetID})

	e := receive(t, c)
	assert.Equal(t, sse.EventCode, e.Name)
	var got models.Code
	require.NoError(t, json.Unmarshal([]byte(e.Data), &got))
	assert.Equal(t, "ABC123", got.ID)
	assert.Equal(t, models.StatusAssigned, got.Status)
}

func TestHub_ScanResult(t *testing.T) {
	hub := sse.NewHub()
	mine := hub.Subscribe("s1")
	other := hub.Subscribe("s2")
	defer hub.Unsubscribe(mine)
	defer hub.Unsubscribe(other)

	hub.ScanResult("s1", map[string]bool{"accepted": true})

	e := receive(t, mine)
	assert.Equal(t, sse.EventScan, e.Name)
	assert.JSONEq(t, `{"accepted":true}`, e.Data)
	assertSilent(t, other)
}
