// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package scan_test

import (
	"strings"
	"testing"

	"codeberg.org/oliverandrich/assettag/internal/services/qrimage"
	"codeberg.org/oliverandrich/assettag/internal/services/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{"canonical url", "https://assets.example.com/qr/ABC123", "ABC123", true},
		{"url with query", "https://assets.example.com/qr/ABC123?src=label", "ABC123", true},
		{"foreign host", "https://other.example.org/qr/ZZZ999", "ZZZ999", true},
		{"bare identifier", "ABC123", "ABC123", true},
		{"bare with newline", "ABC123\n", "", false},
		{"bare with leading space", " ABC123", "", false},
		{"bare with trailing space", "ABC123 ", "", false},
		{"bare wrapped in tab and space", "\tABC123 ", "", false},
		{"lowercase bare", "abc123", "", false},
		{"too short", "ABC12", "", false},
		{"too long", "ABC1234", "", false},
		{"url lowercase id", "https://assets.example.com/qr/abc123", "", false},
		{"foreign payload", "WIFI:S:office;T:WPA;P:secret;;", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := scan.ExtractIdentifier(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestExtractIdentifier_URLWinsOverBare(t *testing.T) {
	// The text is not a bare token, but the URL matcher runs first anyway.
	id, ok := scan.ExtractIdentifier("/qr/XYZ789")

	require.True(t, ok)
	assert.Equal(t, "XYZ789", id)
}

func TestExtractIdentifier_RoundTripsCanonicalURL(t *testing.T) {
	for _, id := range []string{"ABC123", "000000", "ZZZZZZ", "A1B2C3"} {
		u, err := qrimage.CanonicalURL("https://assets.example.com", id)
		require.NoError(t, err)

		got, ok := scan.ExtractIdentifier(u)

		assert.True(t, ok)
		assert.Equal(t, id, got)
	}
}

func TestExtractor_CustomMatcher(t *testing.T) {
	legacy := scan.MatcherFunc(func(raw string) (string, bool) {
		if rest, ok := strings.CutPrefix(raw, "ASSET:"); ok {
			return rest, true
		}
		return "", false
	})
	ex := append(scan.Extractor{legacy}, scan.DefaultExtractor...)

	id, ok := ex.Extract("ASSET:QWE123")
	require.True(t, ok)
	assert.Equal(t, "QWE123", id)

	id, ok = ex.Extract("QWE124")
	require.True(t, ok)
	assert.Equal(t, "QWE124", id)
}
