// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package htmx provides the htmx request details the handlers look at.
package htmx

import (
	"net/http"
)

// Request headers.
const (
	HeaderRequest = "HX-Request"
	HeaderBoosted = "HX-Boosted"
	HeaderTarget  = "HX-Target"
)

// HeaderRedirect makes htmx navigate the whole page.
const HeaderRedirect = "HX-Redirect"

// Request contains information about an htmx request.
type Request struct { //nolint:govet // fieldalignment not critical
	IsHtmx    bool   // HX-Request is "true"
	IsBoosted bool   // the request comes from an hx-boost link or form
	Target    string // id of the element the response is swapped into
}

// ParseRequest extracts htmx information from request headers.
func ParseRequest(r *http.Request) *Request {
	return &Request{
		IsHtmx:    r.Header.Get(HeaderRequest) == "true",
		IsBoosted: r.Header.Get(HeaderBoosted) == "true",
		Target:    r.Header.Get(HeaderTarget),
	}
}

// Partial reports whether the response is swapped into part of a page.
// Boosted requests replace the whole body and follow redirects themselves.
func (r *Request) Partial() bool {
	return r.IsHtmx && !r.IsBoosted
}

// Redirect sends the client to url after a form post. Partial htmx requests
// get HX-Redirect so the whole page navigates, everything else a 303.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if ParseRequest(r).Partial() {
		w.Header().Set(HeaderRedirect, url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
