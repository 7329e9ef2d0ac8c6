package federation

import (
	"context"
	"testing"

	"github.com/matryer/is"

	"github.com/iliyamo/charms-backend/internal/model"
)

// fakeRelations returns fixed id sets in a fixed order.
type fakeRelations struct {
	followers []uint64
	following []uint64
}

func (f *fakeRelations) FollowerIDs(ctx context.Context, actorID uint64) ([]uint64, error) {
	return f.followers, nil
}
func (f *fakeRelations) FollowingIDs(ctx context.Context, actorID uint64) ([]uint64, error) {
	return f.following, nil
}

func docDir() *fakeDirectory {
	return &fakeDirectory{actors: map[string]model.Actor{
		"alice": {ID: 1, Username: "alice", DisplayName: "Alice", Description: "hi", Host: "charms.example", AvatarURL: "media/alice.png", PublicKeyPEM: "-----BEGIN RSA PUBLIC KEY-----\nabc\n-----END RSA PUBLIC KEY-----\n"},
		"bob":   {ID: 2, Username: "bob", Host: "charms.example"},
		"carol": {ID: 3, Username: "carol", Host: "charms.example"},
	}}
}

func TestBuildActorDocument(t *testing.T) {
	is := is.New(t)
	dir := docDir()
	a := NewAssembler("charms.example", dir, &fakeRelations{
		followers: []uint64{2, 3},
		following: []uint64{3},
	})

	alice, err := dir.ByUsername(context.Background(), "alice")
	is.NoErr(err)

	doc, err := a.Build(context.Background(), alice)
	is.NoErr(err)

	is.Equal(doc.ID, "https://charms.example/users/alice")
	is.Equal(doc.Type, "Person")
	is.Equal(doc.Name, "Alice")
	is.Equal(doc.Summary, "hi")
	is.Equal(doc.Inbox, "https://charms.example/users/alice/inbox")
	is.Equal(doc.Outbox, "https://charms.example/users/alice/outbox")

	is.Equal(doc.Followers.Type, "OrderedCollection")
	is.Equal(doc.Followers.TotalItems, 2)
	is.Equal(doc.Followers.Items, []string{
		"https://charms.example/users/bob",
		"https://charms.example/users/carol",
	})
	is.Equal(doc.Following.TotalItems, 1)
	is.Equal(doc.Following.Items, []string{"https://charms.example/users/carol"})

	is.Equal(doc.PublicKey.ID, "https://charms.example/users/alice#main-key")
	is.Equal(doc.PublicKey.Owner, doc.ID)
	is.Equal(doc.PublicKey.PublicKeyPem, alice.PublicKeyPEM)
}

func TestCollectionsPreserveEdgeOrder(t *testing.T) {
	is := is.New(t)
	dir := docDir()
	// Reversed order must come back reversed: the index decides ordering,
	// not the assembler.
	a := NewAssembler("charms.example", dir, &fakeRelations{followers: []uint64{3, 2}})

	alice, err := dir.ByUsername(context.Background(), "alice")
	is.NoErr(err)

	col, err := a.Followers(context.Background(), alice)
	is.NoErr(err)
	is.Equal(col.Items, []string{
		"https://charms.example/users/carol",
		"https://charms.example/users/bob",
	})
}

func TestEmptyCollections(t *testing.T) {
	is := is.New(t)
	dir := docDir()
	a := NewAssembler("charms.example", dir, &fakeRelations{})

	bob, err := dir.ByUsername(context.Background(), "bob")
	is.NoErr(err)

	doc, err := a.Build(context.Background(), bob)
	is.NoErr(err)
	is.Equal(doc.Followers.TotalItems, 0)
	is.Equal(len(doc.Followers.Items), 0)
	is.Equal(doc.Following.TotalItems, 0)
}
