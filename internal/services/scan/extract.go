// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package scan

import "regexp"

// Matcher pulls an identifier out of decoded text.
type Matcher interface {
	Match(raw string) (string, bool)
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(raw string) (string, bool)

// Match calls f.
func (f MatcherFunc) Match(raw string) (string, bool) {
	return f(raw)
}

var (
	urlPattern  = regexp.MustCompile(`/qr/([A-Z0-9]+)`)
	barePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)
)

// URLMatcher accepts any text containing /qr/ followed by an identifier.
var URLMatcher = MatcherFunc(func(raw string) (string, bool) {
	m := urlPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
})

// BareMatcher accepts exactly six identifier characters and nothing else,
// surrounding whitespace included.
var BareMatcher = MatcherFunc(func(raw string) (string, bool) {
	if !barePattern.MatchString(raw) {
		return "", false
	}
	return raw, true
})

// Extractor tries its matchers in order; the first match wins.
type Extractor []Matcher

// Extract returns the identifier found by the first matching matcher.
func (e Extractor) Extract(raw string) (string, bool) {
	for _, m := range e {
		if id, ok := m.Match(raw); ok {
			return id, true
		}
	}
	return "", false
}

// DefaultExtractor accepts canonical URLs first, then bare identifiers.
var DefaultExtractor = Extractor{URLMatcher, BareMatcher}

// ExtractIdentifier runs the default extractor.
func ExtractIdentifier(raw string) (string, bool) {
	return DefaultExtractor.Extract(raw)
}
