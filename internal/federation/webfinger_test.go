package federation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/iliyamo/charms-backend/internal/model"
	"github.com/iliyamo/charms-backend/internal/repository"
)

// fakeDirectory serves a fixed set of local actors keyed by username.
type fakeDirectory struct {
	actors map[string]model.Actor
}

func (d *fakeDirectory) ByUsername(ctx context.Context, username string) (model.Actor, error) {
	a, ok := d.actors[username]
	if !ok {
		return model.Actor{}, repository.ErrNotFound
	}
	return a, nil
}

func (d *fakeDirectory) ByID(ctx context.Context, id uint64) (model.Actor, error) {
	for _, a := range d.actors {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Actor{}, repository.ErrNotFound
}

func localDir() *fakeDirectory {
	return &fakeDirectory{actors: map[string]model.Actor{
		"alice": {ID: 1, Username: "alice", DisplayName: "Alice", Host: "charms.example", AvatarURL: "media/alice.png"},
		"bob":   {ID: 2, Username: "bob", Host: "charms.example"},
	}}
}

func TestResolveLocal(t *testing.T) {
	is := is.New(t)
	r := NewResolver("charms.example", localDir())

	doc, err := r.Resolve(context.Background(), "alice", "charms.example")
	is.NoErr(err)
	is.Equal(doc.Subject, "acct:alice@charms.example")
	is.Equal(doc.Aliases, []string{
		"https://charms.example/@alice",
		"https://charms.example/users/alice",
	})

	var self, avatar, subscribe *WebFingerLink
	for i := range doc.Links {
		switch doc.Links[i].Rel {
		case "self":
			self = &doc.Links[i]
		case relAvatar:
			avatar = &doc.Links[i]
		case relSubscribe:
			subscribe = &doc.Links[i]
		}
	}
	is.True(self != nil)
	is.Equal(self.Type, "application/activity+json")
	is.Equal(self.Href, "https://charms.example/users/alice")
	is.True(avatar != nil)
	is.Equal(avatar.Type, "image/png")
	is.True(subscribe != nil)
	is.True(strings.Contains(subscribe.Template, "{uri}"))
}

func TestResolveLocalHostCaseInsensitive(t *testing.T) {
	is := is.New(t)
	r := NewResolver("charms.example", localDir())
	// No remote fetch may be dispatched for our own host in another
	// case; the resolver stays on the local branch.
	r.scheme = "http"

	doc, err := r.Resolve(context.Background(), "alice", "Charms.Example")
	is.NoErr(err)
	is.Equal(doc.Subject, "acct:alice@charms.example")
}

func TestResolveLocalNoAvatar(t *testing.T) {
	is := is.New(t)
	r := NewResolver("charms.example", localDir())

	doc, err := r.Resolve(context.Background(), "bob", "charms.example")
	is.NoErr(err)
	for _, l := range doc.Links {
		is.True(l.Rel != relAvatar) // no avatar row, no avatar link
	}
}

func TestResolveLocalUnknownActor(t *testing.T) {
	is := is.New(t)
	r := NewResolver("charms.example", localDir())

	_, err := r.Resolve(context.Background(), "nobody", "charms.example")
	is.True(errors.Is(err, repository.ErrNotFound))
}

func TestResolveRemote(t *testing.T) {
	is := is.New(t)
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fetches++
		is.Equal(req.URL.Path, "/.well-known/webfinger")
		is.Equal(req.URL.Query().Get("resource"), "acct:carol@"+req.Host)
		w.Header().Set("Content-Type", jrdJSON)
		_, _ = w.Write([]byte(`{"subject":"acct:carol@remote.example","links":[{"rel":"self","href":"https://remote.example/users/carol"}]}`))
	}))
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "http://")

	r := NewResolver("charms.example", localDir())
	r.scheme = "http"

	doc, err := r.Resolve(context.Background(), "carol", host)
	is.NoErr(err)
	is.Equal(doc.Subject, "acct:carol@remote.example")
	is.Equal(len(doc.Links), 1)
	is.Equal(fetches, 1) // a resolution dispatches exactly one fetch
}

func TestResolveRemoteNon200(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewResolver("charms.example", localDir())
	r.scheme = "http"

	_, err := r.Resolve(context.Background(), "carol", strings.TrimPrefix(srv.URL, "http://"))
	is.True(errors.Is(err, repository.ErrRemoteFetch))
}

func TestResolveRemoteMalformed(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	r := NewResolver("charms.example", localDir())
	r.scheme = "http"

	_, err := r.Resolve(context.Background(), "carol", strings.TrimPrefix(srv.URL, "http://"))
	is.True(errors.Is(err, repository.ErrRemoteFetch))
}

func TestResolveRemoteUnreachable(t *testing.T) {
	is := is.New(t)
	r := NewResolver("charms.example", localDir())
	r.scheme = "http"

	_, err := r.Resolve(context.Background(), "carol", "127.0.0.1:1")
	is.True(errors.Is(err, repository.ErrRemoteFetch))
}

func TestAvatarContentType(t *testing.T) {
	is := is.New(t)
	is.Equal(avatarContentType("a.png"), "image/png")
	is.Equal(avatarContentType("a.jpg"), "image/jpeg")
	is.Equal(avatarContentType("a.jpeg"), "image/jpeg")
	is.Equal(avatarContentType("a.gif"), "image/gif")
	is.Equal(avatarContentType("a.webp"), "image/webp")
	is.Equal(avatarContentType("a.bin"), "application/octet-stream")
}
