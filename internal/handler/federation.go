package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charms-backend/internal/federation"
	"github.com/iliyamo/charms-backend/internal/model"
	"github.com/iliyamo/charms-backend/internal/repository"
)

// FederationHandler serves the discovery surface consumed by foreign
// servers: WebFinger, the actor document and the standalone collection
// endpoints. These expose only public identity metadata (actor type,
// key, counts, collection URIs) and therefore do not pass the
// visibility gate; private content never appears here.
type FederationHandler struct {
	Resolver  *federation.Resolver
	Assembler *federation.Assembler
}

func NewFederationHandler(r *federation.Resolver, a *federation.Assembler) *FederationHandler {
	return &FederationHandler{Resolver: r, Assembler: a}
}

// parseResource splits "acct:user@host" into its parts.
func parseResource(resource string) (username, host string, ok bool) {
	rest, found := strings.CutPrefix(resource, "acct:")
	if !found {
		return "", "", false
	}
	username, host, found = strings.Cut(rest, "@")
	if !found || username == "" || host == "" {
		return "", "", false
	}
	return username, host, true
}

// WebFinger answers /.well-known/webfinger. The local-vs-remote branch
// is taken inside the resolver, once per request.
func (h *FederationHandler) WebFinger(c echo.Context) error {
	username, host, ok := parseResource(c.QueryParam("resource"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed resource parameter"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()
	doc, err := h.Resolver.Resolve(ctx, username, host)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no such actor"})
		case errors.Is(err, repository.ErrRemoteFetch):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "remote lookup failed"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
		}
	}
	return c.JSON(http.StatusOK, doc)
}

// Actor answers GET /users/:username with the ActivityPub Person
// document.
func (h *FederationHandler) Actor(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	actor, err := h.Assembler.Directory.ByUsername(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no such actor"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	doc, err := h.Assembler.Build(ctx, actor)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, doc)
}

// Followers answers GET /users/:username/followers.
func (h *FederationHandler) Followers(c echo.Context) error {
	return h.collection(c, h.Assembler.Followers)
}

// Following answers GET /users/:username/following.
func (h *FederationHandler) Following(c echo.Context) error {
	return h.collection(c, h.Assembler.Following)
}

func (h *FederationHandler) collection(c echo.Context,
	build func(ctx context.Context, actor model.Actor) (federation.OrderedCollection, error)) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	actor, err := h.Assembler.Directory.ByUsername(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no such actor"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	col, err := build(ctx, actor)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, col)
}
