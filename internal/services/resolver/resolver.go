// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package resolver decides what a scanned code leads to.
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/assettag/internal/models"
	"codeberg.org/oliverandrich/assettag/internal/services/scan"
)

// Classification is what the store knows about an identifier.
type Classification string

const (
	Unknown         Classification = "unknown"
	KnownUnassigned Classification = "known_unassigned"
	KnownAssigned   Classification = "known_assigned"
)

// Outcome is the classification of one identifier. AssetID is set only for KnownAssigned.
type Outcome struct {
	Identifier     string         `json:"identifier"`
	Classification Classification `json:"classification"`
	AssetID        string         `json:"asset_id,omitempty"`
}

// IntentKind is the next step after a scan.
type IntentKind string

const (
	ViewAsset      IntentKind = "view_asset"
	OpenAssignment IntentKind = "open_assignment"
	Reject         IntentKind = "reject"
)

// Reject reasons.
const (
	ReasonNotSystemCode = "not_system_code"
	ReasonUnreadable    = "unreadable"
)

// Intent tells the caller where to go next.
type Intent struct {
	Kind       IntentKind `json:"kind"`
	AssetID    string     `json:"asset_id,omitempty"`
	Identifier string     `json:"identifier,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// Path returns the page for the intent, or "" for a rejection.
func (i Intent) Path() string {
	switch i.Kind {
	case ViewAsset:
		return "/assets/" + i.AssetID
	case OpenAssignment:
		return "/qr/" + i.Identifier
	default:
		return ""
	}
}

// Store is the read side of the code store.
type Store interface {
	FindCode(ctx context.Context, id string) (*models.Code, error)
}

// Resolver classifies identifiers against the store.
type Resolver struct {
	store   Store
	extract scan.Extractor
}

// New creates a resolver using the default extractor.
func New(store Store) *Resolver {
	return &Resolver{store: store, extract: scan.DefaultExtractor}
}

// Classify looks id up. Every call reads the store; store errors are returned, never mapped to Unknown.
func (r *Resolver) Classify(ctx context.Context, id string) (Outcome, error) {
	c, err := r.store.FindCode(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("classifying %s: %w", id, err)
	}

	switch {
	case c == nil:
		return Outcome{Identifier: id, Classification: Unknown}, nil
	case c.Assigned():
		return Outcome{Identifier: id, Classification: KnownAssigned, AssetID: *c.AssignedAssetID}, nil
	default:
		return Outcome{Identifier: id, Classification: KnownUnassigned}, nil
	}
}

// Decide maps an outcome to an intent.
func Decide(o Outcome) Intent {
	switch o.Classification {
	case KnownAssigned:
		return Intent{Kind: ViewAsset, AssetID: o.AssetID, Identifier: o.Identifier}
	case KnownUnassigned:
		return Intent{Kind: OpenAssignment, Identifier: o.Identifier}
	default:
		return Intent{Kind: Reject, Identifier: o.Identifier, Reason: ReasonNotSystemCode}
	}
}

// Resolve extracts, classifies and decides. Unreadable text never reaches the store.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Intent, error) {
	_, intent, err := r.resolve(ctx, raw)
	return intent, err
}

func (r *Resolver) resolve(ctx context.Context, raw string) (Outcome, Intent, error) {
	id, ok := r.extract.Extract(raw)
	if !ok {
		return Outcome{}, Intent{Kind: Reject, Reason: ReasonUnreadable}, nil
	}

	o, err := r.Classify(ctx, id)
	if err != nil {
		return Outcome{}, Intent{}, err
	}

	intent := Decide(o)
	slog.Debug("scan_resolved", "identifier", id, "classification", o.Classification, "intent", intent.Kind)
	return o, intent, nil
}

// Pipeline feeds decodes through a scan session into the resolver.
type Pipeline struct {
	resolver *Resolver
	session  *scan.Session[Outcome]
}

// NewPipeline binds a resolver to a session.
func NewPipeline(r *Resolver, s *scan.Session[Outcome]) *Pipeline {
	return &Pipeline{resolver: r, session: s}
}

// HandleDecode resolves raw unless the session is busy. accepted is false when
// the decode was dropped. Unreadable text and store errors leave the session
// idle so scanning continues.
func (p *Pipeline) HandleDecode(ctx context.Context, raw string) (intent Intent, accepted bool, err error) {
	if !p.session.Begin() {
		return Intent{}, false, nil
	}

	o, intent, err := p.resolver.resolve(ctx, raw)
	if err != nil {
		p.session.Abort()
		return Intent{}, true, err
	}
	if intent.Reason == ReasonUnreadable {
		p.session.Abort()
		return intent, true, nil
	}

	if err := p.session.Classified(o); err != nil {
		return Intent{}, true, err
	}
	return intent, true, nil
}

// Reset readies the session for the next decode.
func (p *Pipeline) Reset() bool {
	return p.session.Reset()
}

// Session returns the underlying session.
func (p *Pipeline) Session() *scan.Session[Outcome] {
	return p.session
}
