package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charms-backend/internal/middleware"
	"github.com/iliyamo/charms-backend/internal/model"
	"github.com/iliyamo/charms-backend/internal/repository"
)

// RelationWriter is the slice of the relationship index the relation
// endpoints mutate and query.
type RelationWriter interface {
	Follow(ctx context.Context, subject, object uint64) error
	Unfollow(ctx context.Context, subject, object uint64) error
	Block(ctx context.Context, subject, object uint64) error
	Unblock(ctx context.Context, subject, object uint64) error
}

// HandleResolver resolves a handle to a local actor.
type HandleResolver interface {
	ByUsername(ctx context.Context, username string) (model.Actor, error)
}

// RelationHandler exposes follow/unfollow and block/unblock.
type RelationHandler struct {
	Actors HandleResolver
	Rels   RelationWriter
}

func NewRelationHandler(a HandleResolver, r RelationWriter) *RelationHandler {
	return &RelationHandler{Actors: a, Rels: r}
}

type relationReq struct {
	Username string `json:"username"`
}

// target resolves the request body's username to an actor id.
func (h *RelationHandler) target(ctx context.Context, c echo.Context) (uint64, error) {
	var req relationReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "username required")
	}
	actor, err := h.Actors.ByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, echo.NewHTTPError(http.StatusNotFound, "no such actor")
		}
		return 0, echo.NewHTTPError(http.StatusInternalServerError, "query failed")
	}
	return actor.ID, nil
}

func (h *RelationHandler) mutate(c echo.Context, op func(ctx context.Context, subject, object uint64) error) error {
	caller, ok := middleware.CurrentActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	objectID, err := h.target(ctx, c)
	if err != nil {
		return err
	}
	if err := op(ctx, caller.ID, objectID); err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidArgument):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot target yourself"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "relationship already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Follow creates a follow edge from the caller to the named actor.
func (h *RelationHandler) Follow(c echo.Context) error { return h.mutate(c, h.Rels.Follow) }

// Unfollow removes the follow edge; removing a non-existent edge succeeds.
func (h *RelationHandler) Unfollow(c echo.Context) error { return h.mutate(c, h.Rels.Unfollow) }

// Block creates a block edge from the caller to the named actor.
func (h *RelationHandler) Block(c echo.Context) error { return h.mutate(c, h.Rels.Block) }

// Unblock removes the block edge; removing a non-existent edge succeeds.
func (h *RelationHandler) Unblock(c echo.Context) error { return h.mutate(c, h.Rels.Unblock) }
