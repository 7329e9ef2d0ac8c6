package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charms-backend/internal/model"
	"github.com/iliyamo/charms-backend/internal/repository"
)

// TokenSource resolves a raw opaque token value to its record and
// owning actor. The capability token repository implements it.
type TokenSource interface {
	Lookup(ctx context.Context, token string) (model.CapabilityToken, model.Actor, error)
}

// TokenAuthorizer resolves a token and enforces one capability in a
// single store round trip. The capability token repository implements
// it.
type TokenAuthorizer interface {
	Authorize(ctx context.Context, token string, required model.Capability) (model.Actor, error)
}

// TokenAuthority is the full token surface the router wires: plain
// resolution for TokenAuth and one-shot capability enforcement for
// TokenAuthWithCapability.
type TokenAuthority interface {
	TokenSource
	TokenAuthorizer
}

// Context keys used by the auth middleware. Handlers read the resolved
// actor and token back out of the echo context under these names.
const (
	CtxActor = "actor"
	CtxToken = "capability_token"
)

// bearerToken extracts the opaque token from the Authorization header.
func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// TokenAuth returns middleware that requires a valid, active capability
// token. The token is resolved through a single indexed lookup; the
// owning actor and the token record are stored in the request context.
// Missing, unknown and revoked tokens are all answered with the same
// 401 body so a caller cannot probe which tokens exist.
func TokenAuth(tokens TokenSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			tok, actor, err := tokens.Lookup(c.Request().Context(), raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxToken, tok)
			c.Set(CtxActor, actor)
			return next(c)
		}
	}
}

// OptionalTokenAuth resolves a bearer token when one is present but
// lets anonymous requests through untouched. Content-disclosure
// handlers use it to build the viewer context: an authenticated viewer
// becomes a network peer, an absent token means the public context. A
// token that is present but invalid is still rejected.
func OptionalTokenAuth(tokens TokenSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return next(c)
			}
			tok, actor, err := tokens.Lookup(c.Request().Context(), raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxToken, tok)
			c.Set(CtxActor, actor)
			return next(c)
		}
	}
}

// TokenAuthWithCapability requires a valid bearer token that carries
// the named capability. Resolution and the capability check happen in
// one repository call: a missing or revoked token is a 401, a valid
// token without the flag is a 403. The resolved actor is stored in the
// request context.
func TokenAuthWithCapability(auth TokenAuthorizer, required model.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			actor, err := auth.Authorize(c.Request().Context(), raw, required)
			if err != nil {
				if errors.Is(err, repository.ErrForbidden) {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "token lacks capability"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxActor, actor)
			return next(c)
		}
	}
}

// CurrentActor returns the authenticated actor, if any.
func CurrentActor(c echo.Context) (model.Actor, bool) {
	a, ok := c.Get(CtxActor).(model.Actor)
	return a, ok
}
