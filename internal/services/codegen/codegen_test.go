// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package codegen_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/models"
	"codeberg.org/oliverandrich/assettag/internal/services/codegen"
	"codeberg.org/oliverandrich/assettag/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory Store that records calls.
type memoryStore struct {
	existing  map[string]bool
	existsErr error
	insertErr error
	inserted  []string
	checks    int
	mu        sync.Mutex
}

func newMemoryStore(existing ...string) *memoryStore {
	m := &memoryStore{existing: map[string]bool{}}
	for _, id := range existing {
		m.existing[id] = true
	}
	return m
}

func (m *memoryStore) CodeExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks++
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.existing[id], nil
}

func (m *memoryStore) InsertCodes(_ context.Context, ids []string) ([]models.Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	codes := make([]models.Code, 0, len(ids))
	for _, id := range ids {
		m.existing[id] = true
		m.inserted = append(m.inserted, id)
		codes = append(codes, models.Code{ID: id, Status: models.StatusUnassigned})
	}
	return codes, nil
}

// sequence returns a source that produces identifiers in order, six draws per identifier.
func sequence(ids ...string) func(int) int {
	var mu sync.Mutex
	var draws []int
	for _, id := range ids {
		for _, ch := range id {
			draws = append(draws, strings.IndexRune(models.IdentifierAlphabet, ch))
		}
	}
	return func(int) int {
		mu.Lock()
		defer mu.Unlock()
		v := draws[0]
		draws = append(draws[1:], v)
		return v
	}
}

func TestGenerate_Shape(t *testing.T) {
	svc := codegen.NewService(newMemoryStore())

	for range 500 {
		assert.True(t, models.ValidIdentifier(svc.Generate()))
	}
}

func TestGenerate_UsesWholeAlphabet(t *testing.T) {
	svc := codegen.NewService(newMemoryStore())

	seen := map[rune]bool{}
	for range 2000 {
		for _, ch := range svc.Generate() {
			seen[ch] = true
		}
	}

	assert.Len(t, seen, len(models.IdentifierAlphabet))
}

func TestUnique_SkipsStoredIdentifier(t *testing.T) {
	store := newMemoryStore("AAAAAA")
	svc := codegen.NewService(store, codegen.WithSource(sequence("AAAAAA", "BBBBBB")))

	id, err := svc.Unique(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", id)
	assert.Equal(t, 2, store.checks)
}

func TestUnique_SkipsTakenWithoutStoreCall(t *testing.T) {
	store := newMemoryStore()
	svc := codegen.NewService(store, codegen.WithSource(sequence("AAAAAA", "BBBBBB")))

	id, err := svc.Unique(context.Background(), map[string]struct{}{"AAAAAA": {}})

	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", id)
	assert.Equal(t, 1, store.checks)
}

func TestUnique_RetryExhausted(t *testing.T) {
	store := newMemoryStore("AAAAAA")
	svc := codegen.NewService(store, codegen.WithSource(sequence("AAAAAA")))

	_, err := svc.Unique(context.Background(), nil)

	assert.ErrorIs(t, err, apperr.ErrCollisionRetryExhausted)
	assert.Equal(t, codegen.MaxAttempts, store.checks)
}

func TestUnique_StoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.existsErr = errors.New("connection reset")
	svc := codegen.NewService(store)

	_, err := svc.Unique(context.Background(), nil)

	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	assert.Equal(t, 1, store.checks)
}

func TestGenerateBatch(t *testing.T) {
	store := newMemoryStore()
	svc := codegen.NewService(store)

	codes, err := svc.GenerateBatch(context.Background(), codegen.MaxBatch)

	require.NoError(t, err)
	require.Len(t, codes, codegen.MaxBatch)

	seen := map[string]bool{}
	for _, c := range codes {
		assert.True(t, models.ValidIdentifier(c.ID))
		assert.False(t, seen[c.ID], "duplicate %s", c.ID)
		seen[c.ID] = true
		assert.Equal(t, models.StatusUnassigned, c.Status)
	}
}

func TestGenerateBatch_DistinctFromStoreAndBatch(t *testing.T) {
	store := newMemoryStore("AAAAAA")
	// Second draw repeats the first, third is stored already.
	svc := codegen.NewService(store, codegen.WithSource(sequence("BBBBBB", "BBBBBB", "AAAAAA", "CCCCCC")))

	codes, err := svc.GenerateBatch(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"BBBBBB", "CCCCCC"}, store.inserted)
	assert.Len(t, codes, 2)
}

func TestGenerateBatch_SizeBounds(t *testing.T) {
	svc := codegen.NewService(newMemoryStore())

	for _, n := range []int{0, -1, codegen.MaxBatch + 1} {
		_, err := svc.GenerateBatch(context.Background(), n)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, "count %d", n)
	}
}

func TestGenerateBatch_CustomMaxBatch(t *testing.T) {
	svc := codegen.NewService(newMemoryStore(), codegen.WithMaxBatch(5))

	_, err := svc.GenerateBatch(context.Background(), 6)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	codes, err := svc.GenerateBatch(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, codes, 5)
	assert.Equal(t, 5, svc.MaxBatch())
}

func TestGenerateBatch_ExhaustionStoresNothing(t *testing.T) {
	store := newMemoryStore("AAAAAA")
	svc := codegen.NewService(store, codegen.WithSource(sequence("BBBBBB", "AAAAAA")))

	// BBBBBB is taken by the batch and AAAAAA by the store, so the second identifier never frees up.
	_, err := svc.GenerateBatch(context.Background(), 2)

	assert.ErrorIs(t, err, apperr.ErrCollisionRetryExhausted)
	assert.Empty(t, store.inserted)
}

func TestGenerateBatch_InsertFailure(t *testing.T) {
	store := newMemoryStore()
	store.insertErr = apperr.Store("inserting", errors.New("disk full"))
	svc := codegen.NewService(store)

	_, err := svc.GenerateBatch(context.Background(), 3)

	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
}

func TestGenerateBatch_WithRepository(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.NewTestCodes(t, repo, "AAAAAA")
	svc := codegen.NewService(repo, codegen.WithSource(sequence("AAAAAA", "BBBBBB", "CCCCCC")))

	codes, err := svc.GenerateBatch(ctx, 2)

	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, "BBBBBB", codes[0].ID)
	assert.Equal(t, "CCCCCC", codes[1].ID)

	stats, err := repo.CodeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
}
