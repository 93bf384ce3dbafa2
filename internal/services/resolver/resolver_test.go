// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package resolver_test

import (
	"context"
	"errors"
	"testing"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/models"
	"codeberg.org/oliverandrich/assettag/internal/services/resolver"
	"codeberg.org/oliverandrich/assettag/internal/services/scan"
	"codeberg.org/oliverandrich/assettag/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps a store and counts lookups.
type countingStore struct {
	inner resolver.Store
	err   error
	calls int
}

func (s *countingStore) FindCode(ctx context.Context, id string) (*models.Code, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.inner.FindCode(ctx, id)
}

func setup(t *testing.T) (*resolver.Resolver, *countingStore, string) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	testutil.NewTestCodes(t, repo, "FREE01", "USED01")
	asset := testutil.NewTestAsset(t, repo, "Drill")
	_, err := repo.UpdateCodeAssignment(context.Background(), "USED01", &asset.ID)
	require.NoError(t, err)

	store := &countingStore{inner: repo}
	return resolver.New(store), store, asset.ID
}

func TestClassify(t *testing.T) {
	r, _, assetID := setup(t)

	tests := []struct {
		id       string
		expected resolver.Outcome
	}{
		{"FREE01", resolver.Outcome{Identifier: "FREE01", Classification: resolver.KnownUnassigned}},
		{"USED01", resolver.Outcome{Identifier: "USED01", Classification: resolver.KnownAssigned, AssetID: assetID}},
		{"NOPE01", resolver.Outcome{Identifier: "NOPE01", Classification: resolver.Unknown}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			o, err := r.Classify(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, o)
		})
	}
}

func TestClassify_StoreErrorIsNotUnknown(t *testing.T) {
	store := &countingStore{err: apperr.Store("finding code", errors.New("disk gone"))}
	r := resolver.New(store)

	o, err := r.Classify(context.Background(), "ABC123")

	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	assert.Empty(t, o.Classification)
}

func TestClassify_ReadsStoreEveryTime(t *testing.T) {
	r, store, _ := setup(t)

	for range 3 {
		_, err := r.Classify(context.Background(), "FREE01")
		require.NoError(t, err)
	}

	assert.Equal(t, 3, store.calls)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		outcome  resolver.Outcome
		expected resolver.Intent
		path     string
	}{
		{
			name:     "assigned",
			outcome:  resolver.Outcome{Identifier: "A", Classification: resolver.KnownAssigned, AssetID: "x"},
			expected: resolver.Intent{Kind: resolver.ViewAsset, AssetID: "x", Identifier: "A"},
			path:     "/assets/x",
		},
		{
			name:     "unassigned",
			outcome:  resolver.Outcome{Identifier: "B", Classification: resolver.KnownUnassigned},
			expected: resolver.Intent{Kind: resolver.OpenAssignment, Identifier: "B"},
			path:     "/qr/B",
		},
		{
			name:     "unknown",
			outcome:  resolver.Outcome{Identifier: "C", Classification: resolver.Unknown},
			expected: resolver.Intent{Kind: resolver.Reject, Identifier: "C", Reason: resolver.ReasonNotSystemCode},
			path:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := resolver.Decide(tt.outcome)
			assert.Equal(t, tt.expected, intent)
			assert.Equal(t, tt.path, intent.Path())
		})
	}
}

func TestResolve(t *testing.T) {
	r, store, assetID := setup(t)
	ctx := context.Background()

	intent, err := r.Resolve(ctx, "https://assets.example.com/qr/USED01")
	require.NoError(t, err)
	assert.Equal(t, resolver.ViewAsset, intent.Kind)
	assert.Equal(t, assetID, intent.AssetID)

	intent, err = r.Resolve(ctx, " FREE01 ")
	require.NoError(t, err)
	assert.Equal(t, resolver.OpenAssignment, intent.Kind)

	intent, err = r.Resolve(ctx, "http://other.host/qr/ZZZZ99")
	require.NoError(t, err)
	assert.Equal(t, resolver.Reject, intent.Kind)
	assert.Equal(t, resolver.ReasonNotSystemCode, intent.Reason)

	calls := store.calls
	intent, err = r.Resolve(ctx, "WIFI:S:home;T:WPA;;")
	require.NoError(t, err)
	assert.Equal(t, resolver.ReasonUnreadable, intent.Reason)
	assert.Equal(t, calls, store.calls)
}

func TestResolve_NeverCreatesCodes(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	r := resolver.New(repo)
	ctx := context.Background()

	for _, raw := range []string{"ABC123", "https://x.example/qr/QWERTY", "hello", ""} {
		_, err := r.Resolve(ctx, raw)
		require.NoError(t, err)
	}

	stats, err := repo.CodeStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestPipeline_IgnoresDecodesUntilReset(t *testing.T) {
	r, store, _ := setup(t)
	p := resolver.NewPipeline(r, scan.NewSession[resolver.Outcome]())
	ctx := context.Background()

	intent, accepted, err := p.HandleDecode(ctx, "FREE01")
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, resolver.OpenAssignment, intent.Kind)
	assert.Equal(t, scan.StateClassified, p.Session().State())

	calls := store.calls
	_, accepted, err = p.HandleDecode(ctx, "USED01")
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, calls, store.calls)

	last, ok := p.Session().Last()
	require.True(t, ok)
	assert.Equal(t, "FREE01", last.Identifier)

	assert.True(t, p.Reset())
	intent, accepted, err = p.HandleDecode(ctx, "USED01")
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, resolver.ViewAsset, intent.Kind)
}

func TestPipeline_UnreadableKeepsScanning(t *testing.T) {
	r, _, _ := setup(t)
	p := resolver.NewPipeline(r, scan.NewSession[resolver.Outcome]())

	intent, accepted, err := p.HandleDecode(context.Background(), "not a code")

	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, resolver.ReasonUnreadable, intent.Reason)
	assert.Equal(t, scan.StateIdle, p.Session().State())
}

func TestPipeline_StoreErrorReleasesSession(t *testing.T) {
	store := &countingStore{err: apperr.Store("finding code", errors.New("timeout"))}
	p := resolver.NewPipeline(resolver.New(store), scan.NewSession[resolver.Outcome]())

	_, accepted, err := p.HandleDecode(context.Background(), "ABC123")

	assert.True(t, accepted)
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	assert.Equal(t, scan.StateIdle, p.Session().State())
}

func TestPipeline_TerminatedSessionDropsDecodes(t *testing.T) {
	r, _, _ := setup(t)
	s := scan.NewSession[resolver.Outcome]()
	s.Terminate()
	p := resolver.NewPipeline(r, s)

	_, accepted, err := p.HandleDecode(context.Background(), "FREE01")

	require.NoError(t, err)
	assert.False(t, accepted)
	assert.False(t, p.Reset())
}
