// Package visibility is the single source of truth for what a viewer
// (owner, authenticated network peer, or anonymous public caller) may
// see of another actor's profile, timeline and files. Every
// content-disclosure handler routes through Gate.Check; nothing else in
// the codebase decides disclosure.
package visibility

import "context"

// Decision is the gate's verdict.
type Decision int

const (
	Deny Decision = iota
	Allow
)

// Kind tags the viewer context.
type Kind int

const (
	// KindPublic is an anonymous caller with no identity.
	KindPublic Kind = iota
	// KindOwner is the content owner viewing their own data.
	KindOwner
	// KindNetwork is an authenticated viewer other than the owner.
	KindNetwork
)

// Context is the request-scoped viewer identity. It is never persisted
// and is only ever used as input to the gate.
type Context struct {
	Kind     Kind
	ViewerID uint64
}

// Public is the anonymous viewer context.
var Public = Context{Kind: KindPublic}

// Owner returns the context for the content owner themselves.
func Owner(actorID uint64) Context { return Context{Kind: KindOwner, ViewerID: actorID} }

// Network returns the context for an authenticated non-owner viewer.
func Network(viewerID uint64) Context { return Context{Kind: KindNetwork, ViewerID: viewerID} }

// Snapshot carries the three inputs of the decision, read together in
// one consistent store read: the owner's privacy flag, whether the
// owner has blocked the viewer, and whether the viewer follows the
// owner.
type Snapshot struct {
	OwnerID       uint64
	OwnerPrivate  bool
	ViewerBlocked bool
	ViewerFollows bool
}

// Decide is the pure decision function.
//
// Owner context with a matching id always allows. Public allows only
// non-private owners. For network viewers, a block by the owner
// dominates everything, including an existing follow; otherwise a
// private owner requires the viewer to be a follower. The two
// conditions are checked independently: blocked first, then
// private-and-not-following.
func Decide(s Snapshot, viewer Context) Decision {
	switch viewer.Kind {
	case KindOwner:
		if viewer.ViewerID == s.OwnerID {
			return Allow
		}
		return Deny
	case KindPublic:
		if s.OwnerPrivate {
			return Deny
		}
		return Allow
	case KindNetwork:
		if viewer.ViewerID == s.OwnerID {
			return Allow
		}
		if s.ViewerBlocked {
			return Deny
		}
		if s.OwnerPrivate && !s.ViewerFollows {
			return Deny
		}
		return Allow
	}
	return Deny
}

// SnapshotSource loads the gate inputs for a (viewer, owner) pair in a
// single consistent read. The relation repository implements it with
// one SQL statement.
type SnapshotSource interface {
	Snapshot(ctx context.Context, viewerID, ownerID uint64) (Snapshot, error)
}

// Gate combines a snapshot source with the pure decision. It never
// mutates state.
type Gate struct{ Source SnapshotSource }

func NewGate(src SnapshotSource) *Gate { return &Gate{Source: src} }

// Check loads a snapshot and evaluates the decision for ownerID as seen
// by viewer. The owner short-circuit avoids the store entirely: the
// owner's own reads cannot be affected by edges or the privacy flag.
func (g *Gate) Check(ctx context.Context, viewer Context, ownerID uint64) (Decision, error) {
	if viewer.Kind == KindOwner && viewer.ViewerID == ownerID {
		return Allow, nil
	}
	s, err := g.Source.Snapshot(ctx, viewer.ViewerID, ownerID)
	if err != nil {
		return Deny, err
	}
	return Decide(s, viewer), nil
}
