// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package models holds the records persisted by the repository.
package models

import "regexp"

// IdentifierLength is the number of characters of a code identifier.
const IdentifierLength = 6

// IdentifierAlphabet is the character set identifiers are drawn from.
const IdentifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var identifierPattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// ValidIdentifier reports whether id has the shape of a code identifier.
func ValidIdentifier(id string) bool {
	return identifierPattern.MatchString(id)
}
