// Package federation implements the discovery surface of the instance:
// WebFinger resolution (local and remote) and the ActivityPub actor
// document with its follower/following collections. Only explicitly
// public identity metadata is exposed here; private content never flows
// through this package.
package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/iliyamo/charms-backend/internal/model"
	"github.com/iliyamo/charms-backend/internal/repository"
)

// Directory is the slice of the actor directory the federation layer
// needs: handle and id resolution of local actors.
type Directory interface {
	ByUsername(ctx context.Context, username string) (model.Actor, error)
	ByID(ctx context.Context, id uint64) (model.Actor, error)
}

// WebFingerLink is one entry of a WebFinger document's links array.
type WebFingerLink struct {
	Rel      string `json:"rel"`
	Type     string `json:"type,omitempty"`
	Href     string `json:"href,omitempty"`
	Template string `json:"template,omitempty"`
}

// WebFingerDocument is the discovery document served at
// /.well-known/webfinger and parsed from remote instances. It is a
// transient projection, never persisted.
type WebFingerDocument struct {
	Subject string          `json:"subject"`
	Aliases []string        `json:"aliases,omitempty"`
	Links   []WebFingerLink `json:"links"`
}

const (
	relProfilePage = "http://webfinger.net/rel/profile-page"
	relSubscribe   = "http://ostatus.org/schema/1.0/subscribe"
	relAvatar      = "http://webfinger.net/rel/avatar"

	activityJSON = "application/activity+json"
	jrdJSON      = "application/jrd+json"

	remoteTimeout = 10 * time.Second
)

// Resolver answers WebFinger queries. The local-vs-remote branch is
// decided exactly once per call by comparing the queried host against
// the instance's configured hostname; a call never retries against the
// other branch.
type Resolver struct {
	Host      string // bare hostname of this instance, e.g. "charms.example"
	Directory Directory
	client    *resty.Client
	scheme    string // "https" outside of tests
}

// NewResolver builds a resolver whose outbound fetches carry a bounded
// timeout. The resolver itself never retries; retry policy belongs to
// the caller.
func NewResolver(host string, dir Directory) *Resolver {
	return &Resolver{
		Host:      host,
		Directory: dir,
		client:    resty.New().SetTimeout(remoteTimeout).SetRetryCount(0),
		scheme:    "https",
	}
}

// Resolve returns the discovery document for username@host. A host
// equal to the instance hostname resolves through the local directory;
// any other host dispatches a single outbound fetch. Hostnames are
// case-insensitive, so the comparison folds case.
func (r *Resolver) Resolve(ctx context.Context, username, host string) (WebFingerDocument, error) {
	if strings.EqualFold(host, r.Host) {
		return r.resolveLocal(ctx, username)
	}
	return r.resolveRemote(ctx, username, host)
}

func (r *Resolver) resolveLocal(ctx context.Context, username string) (WebFingerDocument, error) {
	actor, err := r.Directory.ByUsername(ctx, username)
	if err != nil {
		return WebFingerDocument{}, err
	}
	base := "https://" + r.Host
	profileURL := fmt.Sprintf("%s/@%s", base, actor.Username)
	actorURL := fmt.Sprintf("%s/users/%s", base, actor.Username)

	links := []WebFingerLink{
		{Rel: relProfilePage, Type: "text/html", Href: profileURL},
		{Rel: "self", Type: activityJSON, Href: actorURL},
	}
	if actor.AvatarURL != "" {
		links = append(links, WebFingerLink{
			Rel:  relAvatar,
			Type: avatarContentType(actor.AvatarURL),
			Href: fmt.Sprintf("%s/%s", base, actor.AvatarURL),
		})
	}
	links = append(links, WebFingerLink{
		Rel:      relSubscribe,
		Template: fmt.Sprintf("%s/authorize_interaction?uri={uri}", base),
	})

	return WebFingerDocument{
		Subject: fmt.Sprintf("acct:%s@%s", actor.Username, r.Host),
		Aliases: []string{profileURL, actorURL},
		Links:   links,
	}, nil
}

func (r *Resolver) resolveRemote(ctx context.Context, username, host string) (WebFingerDocument, error) {
	url := fmt.Sprintf("%s://%s/.well-known/webfinger?resource=acct:%s@%s",
		r.scheme, host, username, host)
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Accept", jrdJSON).
		Get(url)
	if err != nil {
		return WebFingerDocument{}, fmt.Errorf("%w: %v", repository.ErrRemoteFetch, err)
	}
	if resp.StatusCode() != 200 {
		return WebFingerDocument{}, fmt.Errorf("%w: %s returned %d",
			repository.ErrRemoteFetch, host, resp.StatusCode())
	}
	var doc WebFingerDocument
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return WebFingerDocument{}, fmt.Errorf("%w: malformed document from %s",
			repository.ErrRemoteFetch, host)
	}
	if doc.Subject == "" {
		return WebFingerDocument{}, fmt.Errorf("%w: document from %s has no subject",
			repository.ErrRemoteFetch, host)
	}
	return doc, nil
}

// avatarContentType infers the media type of an avatar link from its
// file extension.
func avatarContentType(file string) string {
	switch path.Ext(file) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
