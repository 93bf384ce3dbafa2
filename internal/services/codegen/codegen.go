// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package codegen creates short, human-typeable code identifiers and
// persists them in batches.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/models"
)

const (
	// MaxAttempts bounds the draws for a single free identifier.
	MaxAttempts = 10
	// MaxBatch is the default upper bound of a batch.
	MaxBatch = 50
)

// Store is the part of the code store the generator needs.
type Store interface {
	CodeExists(ctx context.Context, id string) (bool, error)
	InsertCodes(ctx context.Context, ids []string) ([]models.Code, error)
}

// Service draws identifiers and stores new codes.
type Service struct {
	store    Store
	intn     func(n int) int
	maxBatch int
}

// Option configures a Service.
type Option func(*Service)

// WithSource replaces the random source. intn must return a value in [0, n)
// and be safe for concurrent use.
func WithSource(intn func(n int) int) Option {
	return func(s *Service) {
		s.intn = intn
	}
}

// WithMaxBatch sets the largest accepted batch size.
func WithMaxBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// NewService creates a new generator service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		intn:     rand.IntN,
		maxBatch: MaxBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxBatch returns the largest accepted batch size.
func (s *Service) MaxBatch() int {
	return s.maxBatch
}

// Generate returns a random identifier without checking the store.
// Identifiers are not secret; a non-cryptographic source is enough.
func (s *Service) Generate() string {
	b := make([]byte, models.IdentifierLength)
	for i := range b {
		b[i] = models.IdentifierAlphabet[s.intn(len(models.IdentifierAlphabet))]
	}
	return string(b)
}

// Unique draws identifiers until one is neither stored nor in taken.
// A store failure aborts; uniqueness is never assumed.
func (s *Service) Unique(ctx context.Context, taken map[string]struct{}) (string, error) {
	for range MaxAttempts {
		id := s.Generate()
		if _, dup := taken[id]; dup {
			continue
		}

		exists, err := s.store.CodeExists(ctx, id)
		if err != nil {
			if !errors.Is(err, apperr.ErrStoreUnavailable) {
				err = apperr.Store("checking identifier", err)
			}
			return "", err
		}
		if !exists {
			return id, nil
		}
		slog.Debug("identifier collision", "id", id)
	}
	return "", fmt.Errorf("after %d attempts: %w", MaxAttempts, apperr.ErrCollisionRetryExhausted)
}

// GenerateBatch creates count new unassigned codes.
// Every identifier is checked against the store and against the batch,
// then the batch is stored in one transaction. On failure nothing is stored.
func (s *Service) GenerateBatch(ctx context.Context, count int) ([]models.Code, error) {
	if count < 1 || count > s.maxBatch {
		return nil, apperr.Invalid("batch size must be between 1 and %d, got %d", s.maxBatch, count)
	}

	taken := make(map[string]struct{}, count)
	ids := make([]string, 0, count)
	for range count {
		id, err := s.Unique(ctx, taken)
		if err != nil {
			return nil, err
		}
		taken[id] = struct{}{}
		ids = append(ids, id)
	}

	codes, err := s.store.InsertCodes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("storing batch: %w", err)
	}

	slog.InfoContext(ctx, "codes_generated", "count", len(codes))
	return codes, nil
}
