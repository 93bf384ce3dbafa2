// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddDefaultParams(t *testing.T) {
	tests := []struct {
		name     string
		dsn      string
		expected string
	}{
		{
			name:     "plain path",
			dsn:      "./data/app.db",
			expected: "./data/app.db?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		},
		{
			name:     "keeps existing params",
			dsn:      ":memory:?cache=shared",
			expected: ":memory:?cache=shared&_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		},
		{
			name:     "does not override explicit pragma",
			dsn:      "app.db?_pragma=foreign_keys(0)",
			expected: "app.db?_pragma=foreign_keys(0)&_txlock=immediate&_pragma=busy_timeout(5000)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, addDefaultParams(tt.dsn))
		})
	}
}

func TestIsMemory(t *testing.T) {
	assert.True(t, isMemory(":memory:"))
	assert.True(t, isMemory("file::memory:?mode=memory"))
	assert.False(t, isMemory("./data/app.db"))
}
