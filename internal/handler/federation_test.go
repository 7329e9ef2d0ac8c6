package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/matryer/is"

	"github.com/iliyamo/charms-backend/internal/federation"
	"github.com/iliyamo/charms-backend/internal/model"
	"github.com/iliyamo/charms-backend/internal/repository"
)

func TestParseResource(t *testing.T) {
	is := is.New(t)

	u, h, ok := parseResource("acct:alice@charms.example")
	is.True(ok)
	is.Equal(u, "alice")
	is.Equal(h, "charms.example")

	_, _, ok = parseResource("alice@charms.example")
	is.True(!ok) // missing acct: prefix
	_, _, ok = parseResource("acct:alice")
	is.True(!ok) // no host
	_, _, ok = parseResource("acct:@charms.example")
	is.True(!ok) // empty username
	_, _, ok = parseResource("")
	is.True(!ok)
}

// fedDirectory backs the assembler in these tests.
type fedDirectory struct {
	actors map[uint64]model.Actor
}

func (d *fedDirectory) ByUsername(ctx context.Context, username string) (model.Actor, error) {
	for _, a := range d.actors {
		if a.Username == username {
			return a, nil
		}
	}
	return model.Actor{}, repository.ErrNotFound
}

func (d *fedDirectory) ByID(ctx context.Context, id uint64) (model.Actor, error) {
	a, ok := d.actors[id]
	if !ok {
		return model.Actor{}, repository.ErrNotFound
	}
	return a, nil
}

type fedRelations struct{ followers, following []uint64 }

func (f *fedRelations) FollowerIDs(ctx context.Context, actorID uint64) ([]uint64, error) {
	return f.followers, nil
}
func (f *fedRelations) FollowingIDs(ctx context.Context, actorID uint64) ([]uint64, error) {
	return f.following, nil
}

func newFederationHandler() *FederationHandler {
	dir := &fedDirectory{actors: map[uint64]model.Actor{
		1: {ID: 1, Username: "alice", DisplayName: "Alice", Host: "charms.example"},
		2: {ID: 2, Username: "bob", Host: "charms.example"},
	}}
	rels := &fedRelations{followers: []uint64{2}}
	return NewFederationHandler(
		federation.NewResolver("charms.example", dir),
		federation.NewAssembler("charms.example", dir, rels),
	)
}

func fedGet(h echo.HandlerFunc, username string, query string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if username != "" {
		c.SetParamNames("username")
		c.SetParamValues(username)
	}
	_ = h(c)
	return rec
}

func TestWebFingerLocal(t *testing.T) {
	is := is.New(t)
	h := newFederationHandler()

	rec := fedGet(h.WebFinger, "", "resource=acct:alice@charms.example")
	is.Equal(rec.Code, http.StatusOK)

	var doc federation.WebFingerDocument
	is.NoErr(json.Unmarshal(rec.Body.Bytes(), &doc))
	is.Equal(doc.Subject, "acct:alice@charms.example")
}

func TestWebFingerMalformedResource(t *testing.T) {
	is := is.New(t)
	h := newFederationHandler()

	is.Equal(fedGet(h.WebFinger, "", "resource=alice").Code, http.StatusBadRequest)
	is.Equal(fedGet(h.WebFinger, "", "").Code, http.StatusBadRequest)
}

func TestWebFingerUnknownLocalActor(t *testing.T) {
	is := is.New(t)
	h := newFederationHandler()

	rec := fedGet(h.WebFinger, "", "resource=acct:nobody@charms.example")
	is.Equal(rec.Code, http.StatusNotFound)
}

func TestActorDocumentEndpoint(t *testing.T) {
	is := is.New(t)
	h := newFederationHandler()

	rec := fedGet(h.Actor, "alice", "")
	is.Equal(rec.Code, http.StatusOK)

	var doc federation.ActorDocument
	is.NoErr(json.Unmarshal(rec.Body.Bytes(), &doc))
	is.Equal(doc.Type, "Person")
	is.Equal(doc.ID, "https://charms.example/users/alice")
	is.Equal(doc.Followers.TotalItems, 1)

	is.Equal(fedGet(h.Actor, "nobody", "").Code, http.StatusNotFound)
}

func TestCollectionEndpoints(t *testing.T) {
	is := is.New(t)
	h := newFederationHandler()

	rec := fedGet(h.Followers, "alice", "")
	is.Equal(rec.Code, http.StatusOK)

	var col federation.OrderedCollection
	is.NoErr(json.Unmarshal(rec.Body.Bytes(), &col))
	is.Equal(col.TotalItems, 1)
	is.Equal(col.Items, []string{"https://charms.example/users/bob"})

	rec = fedGet(h.Following, "alice", "")
	is.Equal(rec.Code, http.StatusOK)
	col = federation.OrderedCollection{}
	is.NoErr(json.Unmarshal(rec.Body.Bytes(), &col))
	is.Equal(col.TotalItems, 0)
}
