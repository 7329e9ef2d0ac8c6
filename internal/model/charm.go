package model

import "time"

// Charm is a user-authored post. Only the fields needed for
// timeline projections are modelled here; authoring, likes and
// boosts are handled elsewhere.
//
// Fields:
//  ID        – primary key identifier.
//  ActorID   – author of the charm.
//  Text      – the charm body.
//  CreatedAt – timestamp of creation.
type Charm struct {
	ID        uint64    // charms.id
	ActorID   uint64    // charms.actor_id
	Text      string    // charms.text
	CreatedAt time.Time // charms.created_at
}

// ActorFile models a row in the `actor_files` table. A file marked
// private is excluded from non-owner views even when the overall
// visibility decision for the owner's content is Allow.
//
// Fields:
//  ID        – primary key identifier.
//  ActorID   – owner of the file.
//  Name      – original file name.
//  Path      – storage path relative to the instance file folder.
//  IsPrivate – per-file privacy flag.
//  CreatedAt – timestamp of upload.
type ActorFile struct {
	ID        uint64    // actor_files.id
	ActorID   uint64    // actor_files.actor_id
	Name      string    // actor_files.name
	Path      string    // actor_files.path
	IsPrivate bool      // actor_files.is_private
	CreatedAt time.Time // actor_files.created_at
}
