package federation

import (
	"context"
	"fmt"

	"github.com/iliyamo/charms-backend/internal/model"
)

// Relations is the slice of the relationship index the assembler
// needs: follower and following id sets in edge-creation order.
type Relations interface {
	FollowerIDs(ctx context.Context, actorID uint64) ([]uint64, error)
	FollowingIDs(ctx context.Context, actorID uint64) ([]uint64, error)
}

// OrderedCollection is the ActivityStreams collection shape used for
// followers and following, both inside the actor document and on the
// standalone collection endpoints. Items are actor URIs in
// edge-creation order.
type OrderedCollection struct {
	Type       string   `json:"type"`
	TotalItems int      `json:"totalItems"`
	Items      []string `json:"items"`
}

// Icon is the avatar reference inside an actor document.
type Icon struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// PublicKey carries the actor's published key material.
type PublicKey struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	PublicKeyPem string `json:"publicKeyPem"`
}

// ActorDocument is the federated "Person" representation of a local
// actor. It is assembled on demand from the directory and the
// relationship index and never persisted.
type ActorDocument struct {
	Context   []string          `json:"@context"`
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Name      string            `json:"name"`
	Summary   string            `json:"summary"`
	Icon      Icon              `json:"icon"`
	Inbox     string            `json:"inbox"`
	Outbox    string            `json:"outbox"`
	Followers OrderedCollection `json:"followers"`
	Following OrderedCollection `json:"following"`
	PublicKey PublicKey         `json:"publicKey"`
}

// Assembler builds actor documents. Endpoint URIs are pure string
// templates keyed by host and handle; there is no persisted endpoint
// state.
type Assembler struct {
	Host      string
	Directory Directory
	Relations Relations
}

func NewAssembler(host string, dir Directory, rels Relations) *Assembler {
	return &Assembler{Host: host, Directory: dir, Relations: rels}
}

// actorURI is the deterministic template for an actor's federated id.
func actorURI(host, username string) string {
	return fmt.Sprintf("https://%s/users/%s", host, username)
}

// collection resolves an id set to actor URIs one by one through the
// directory, preserving the index's edge-creation order.
func (a *Assembler) collection(ctx context.Context, ids []uint64) (OrderedCollection, error) {
	items := make([]string, 0, len(ids))
	for _, id := range ids {
		related, err := a.Directory.ByID(ctx, id)
		if err != nil {
			return OrderedCollection{}, err
		}
		items = append(items, actorURI(related.Host, related.Username))
	}
	return OrderedCollection{Type: "OrderedCollection", TotalItems: len(items), Items: items}, nil
}

// Followers returns the followers collection for the standalone
// /users/{username}/followers endpoint.
func (a *Assembler) Followers(ctx context.Context, actor model.Actor) (OrderedCollection, error) {
	ids, err := a.Relations.FollowerIDs(ctx, actor.ID)
	if err != nil {
		return OrderedCollection{}, err
	}
	return a.collection(ctx, ids)
}

// Following returns the following collection for the standalone
// /users/{username}/following endpoint.
func (a *Assembler) Following(ctx context.Context, actor model.Actor) (OrderedCollection, error) {
	ids, err := a.Relations.FollowingIDs(ctx, actor.ID)
	if err != nil {
		return OrderedCollection{}, err
	}
	return a.collection(ctx, ids)
}

// Build assembles the full actor document for a local actor.
func (a *Assembler) Build(ctx context.Context, actor model.Actor) (ActorDocument, error) {
	followers, err := a.Followers(ctx, actor)
	if err != nil {
		return ActorDocument{}, err
	}
	following, err := a.Following(ctx, actor)
	if err != nil {
		return ActorDocument{}, err
	}
	id := actorURI(a.Host, actor.Username)
	return ActorDocument{
		Context: []string{
			"https://www.w3.org/ns/activitystreams",
			"https://w3id.org/security/v1",
		},
		ID:      id,
		Type:    "Person",
		Name:    actor.DisplayName,
		Summary: actor.Description,
		Icon: Icon{
			Type: "Image",
			URL:  fmt.Sprintf("https://%s/%s", a.Host, actor.AvatarURL),
		},
		Inbox:     id + "/inbox",
		Outbox:    id + "/outbox",
		Followers: followers,
		Following: following,
		PublicKey: PublicKey{
			ID:           id + "#main-key",
			Owner:        id,
			PublicKeyPem: actor.PublicKeyPEM,
		},
	}, nil
}
