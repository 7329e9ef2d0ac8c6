package model

import "time"

// RelationKind tags a relationship edge as a follow or a block.
// The two kinds share one table so that a single uniqueness
// constraint over (kind, subject_id, object_id) guards both.
type RelationKind string

const (
	// RelFollow means the subject follows the object.
	RelFollow RelationKind = "follow"
	// RelBlock means the subject has blocked the object.
	RelBlock RelationKind = "block"
)

// RelationshipEdge models a row in the `relationships` table: a
// directed follow or block link between two actors. Edges are only
// created and destroyed through the relation repository, never
// mutated in place. The auto-increment ID doubles as the stable
// iteration order for follower/following collections (edge-creation
// order).
//
// Fields:
//  ID        – primary key identifier, monotonically increasing.
//  Kind      – "follow" or "block".
//  SubjectID – the actor performing the follow/block.
//  ObjectID  – the actor being followed/blocked.
//  CreatedAt – timestamp of creation.
type RelationshipEdge struct {
	ID        uint64       // relationships.id
	Kind      RelationKind // relationships.kind
	SubjectID uint64       // relationships.subject_id
	ObjectID  uint64       // relationships.object_id
	CreatedAt time.Time    // relationships.created_at
}
