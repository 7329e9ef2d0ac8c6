package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charms-backend/internal/middleware"
	"github.com/iliyamo/charms-backend/internal/model"
	"github.com/iliyamo/charms-backend/internal/repository"
	"github.com/iliyamo/charms-backend/internal/visibility"
)

// TimelineSource lists an actor's charms and counts them for the
// profile projection.
type TimelineSource interface {
	ByActor(ctx context.Context, actorID uint64) ([]model.Charm, error)
	CountByActor(ctx context.Context, actorID uint64) (int, error)
}

// FileSource lists an actor's file rows; private rows are excluded in
// the store query unless the owner themselves is asking.
type FileSource interface {
	ByActor(ctx context.Context, actorID uint64, includePrivate bool) ([]model.ActorFile, error)
}

// RelationStats provides the counts shown on profiles.
type RelationStats interface {
	FollowerCount(ctx context.Context, actorID uint64) (int, error)
	FollowingCount(ctx context.Context, actorID uint64) (int, error)
}

// ProfileHandler serves the content-disclosure endpoints: profile,
// timeline and file list. Every one of them resolves the target through
// the directory, asks the visibility gate for a decision and only
// assembles a response on Allow.
type ProfileHandler struct {
	Actors HandleResolver
	Gate   *visibility.Gate
	Charms TimelineSource
	Files  FileSource
	Stats  RelationStats
}

func NewProfileHandler(a HandleResolver, g *visibility.Gate, ch TimelineSource, f FileSource, st RelationStats) *ProfileHandler {
	return &ProfileHandler{Actors: a, Gate: g, Charms: ch, Files: f, Stats: st}
}

// ----- response shapes -----

type profileResp struct {
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	Description    string `json:"description"`
	AvatarURL      string `json:"avatar_url"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
	CharmCount     int    `json:"charm_count"`
}

type charmPart struct {
	ID        uint64    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type filePart struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// viewerContext derives the request's visibility context from the
// optional token middleware: the owner themselves, an authenticated
// network peer, or the anonymous public.
func viewerContext(c echo.Context, ownerID uint64) visibility.Context {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return visibility.Public
	}
	if actor.ID == ownerID {
		return visibility.Owner(actor.ID)
	}
	return visibility.Network(actor.ID)
}

// notFound is the single response used for both "no such actor" and
// "actor is private" towards anonymous callers, so the public cannot
// enumerate which handles exist.
func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
}

// resolveAndGate resolves the :username parameter and runs the gate.
// It writes the error response itself and returns ok=false when the
// caller must stop.
func (h *ProfileHandler) resolveAndGate(ctx context.Context, c echo.Context) (model.Actor, visibility.Context, bool) {
	owner, err := h.Actors.ByUsername(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = notFound(c)
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return model.Actor{}, visibility.Public, false
	}
	viewer := viewerContext(c, owner.ID)
	decision, err := h.Gate.Check(ctx, viewer, owner.ID)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		return model.Actor{}, viewer, false
	}
	if decision != visibility.Allow {
		// Anonymous callers get the not-found shape; authenticated
		// viewers get a generic denial that names no reason.
		if viewer.Kind == visibility.KindPublic {
			_ = notFound(c)
		} else {
			_ = c.JSON(http.StatusForbidden, echo.Map{"error": "you are not allowed to view this content"})
		}
		return model.Actor{}, viewer, false
	}
	return owner, viewer, true
}

// Profile returns the public projection of an actor with its counts.
func (h *ProfileHandler) Profile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	owner, _, ok := h.resolveAndGate(ctx, c)
	if !ok {
		return nil
	}
	followers, err := h.Stats.FollowerCount(ctx, owner.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	following, err := h.Stats.FollowingCount(ctx, owner.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	charms, err := h.Charms.CountByActor(ctx, owner.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, profileResp{
		Username:       owner.Username,
		DisplayName:    owner.DisplayName,
		Description:    owner.Description,
		AvatarURL:      owner.AvatarURL,
		FollowerCount:  followers,
		FollowingCount: following,
		CharmCount:     charms,
	})
}

// Timeline returns the actor's charms, newest first.
func (h *ProfileHandler) Timeline(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	owner, _, ok := h.resolveAndGate(ctx, c)
	if !ok {
		return nil
	}
	charms, err := h.Charms.ByActor(ctx, owner.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]charmPart, 0, len(charms))
	for _, ch := range charms {
		out = append(out, charmPart{ID: ch.ID, Text: ch.Text, CreatedAt: ch.CreatedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"charms": out})
}

// FileList returns the actor's files. Private files only appear when
// the owner is the viewer; the per-file flag is applied on top of the
// gate's overall decision.
func (h *ProfileHandler) FileList(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	owner, viewer, ok := h.resolveAndGate(ctx, c)
	if !ok {
		return nil
	}
	includePrivate := viewer.Kind == visibility.KindOwner
	files, err := h.Files.ByActor(ctx, owner.ID, includePrivate)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]filePart, 0, len(files))
	for _, f := range files {
		out = append(out, filePart{ID: f.ID, Name: f.Name, Path: f.Path})
	}
	return c.JSON(http.StatusOK, echo.Map{"files": out})
}
