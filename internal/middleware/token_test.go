package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/matryer/is"

	"github.com/iliyamo/charms-backend/internal/model"
	"github.com/iliyamo/charms-backend/internal/repository"
)

// fakeTokens recognises exactly one token value.
type fakeTokens struct {
	token model.CapabilityToken
	actor model.Actor
}

func (f *fakeTokens) Lookup(ctx context.Context, token string) (model.CapabilityToken, model.Actor, error) {
	if token != f.token.Token {
		return model.CapabilityToken{}, model.Actor{}, repository.ErrUnauthorized
	}
	return f.token, f.actor, nil
}

func (f *fakeTokens) Authorize(ctx context.Context, token string, required model.Capability) (model.Actor, error) {
	t, a, err := f.Lookup(ctx, token)
	if err != nil {
		return model.Actor{}, err
	}
	if !t.Has(required) {
		return model.Actor{}, repository.ErrForbidden
	}
	return a, nil
}

func run(mw echo.MiddlewareFunc, authorization string) (*httptest.ResponseRecorder, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	reached := false
	_ = mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, reached
}

func testTokens() *fakeTokens {
	return &fakeTokens{
		token: model.CapabilityToken{Token: "good", ActorID: 1, Caps: model.CapabilitySet{CanPostCharms: true}},
		actor: model.Actor{ID: 1, Username: "alice"},
	}
}

func TestTokenAuth(t *testing.T) {
	is := is.New(t)
	mw := TokenAuth(testTokens())

	rec, reached := run(mw, "")
	is.Equal(rec.Code, http.StatusUnauthorized)
	is.True(!reached)

	rec, reached = run(mw, "Bearer wrong")
	is.Equal(rec.Code, http.StatusUnauthorized)
	is.True(!reached)

	rec, reached = run(mw, "Bearer good")
	is.Equal(rec.Code, http.StatusOK)
	is.True(reached)
}

func TestOptionalTokenAuth(t *testing.T) {
	is := is.New(t)
	mw := OptionalTokenAuth(testTokens())

	// Anonymous requests pass through without an actor.
	rec, reached := run(mw, "")
	is.Equal(rec.Code, http.StatusOK)
	is.True(reached)

	// A presented but invalid token is still rejected.
	rec, reached = run(mw, "Bearer wrong")
	is.Equal(rec.Code, http.StatusUnauthorized)
	is.True(!reached)
}

func TestTokenAuthSetsActor(t *testing.T) {
	is := is.New(t)
	tokens := testTokens()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = TokenAuth(tokens)(func(c echo.Context) error {
		actor, ok := CurrentActor(c)
		is.True(ok)
		is.Equal(actor.Username, "alice")
		return nil
	})(c)
}

func TestTokenAuthWithCapability(t *testing.T) {
	is := is.New(t)
	tokens := testTokens()

	// No token at all.
	rec, reached := run(TokenAuthWithCapability(tokens, model.CanPostCharms), "")
	is.Equal(rec.Code, http.StatusUnauthorized)
	is.True(!reached)

	// Unknown token.
	rec, reached = run(TokenAuthWithCapability(tokens, model.CanPostCharms), "Bearer wrong")
	is.Equal(rec.Code, http.StatusUnauthorized)
	is.True(!reached)

	// The token carries can_post_charms but not can_delete_account.
	rec, reached = run(TokenAuthWithCapability(tokens, model.CanDeleteAccount), "Bearer good")
	is.Equal(rec.Code, http.StatusForbidden)
	is.True(!reached)

	rec, reached = run(TokenAuthWithCapability(tokens, model.CanPostCharms), "Bearer good")
	is.Equal(rec.Code, http.StatusOK)
	is.True(reached)
}

func TestTokenAuthWithCapabilitySetsActor(t *testing.T) {
	is := is.New(t)
	tokens := testTokens()

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = TokenAuthWithCapability(tokens, model.CanPostCharms)(func(c echo.Context) error {
		actor, ok := CurrentActor(c)
		is.True(ok)
		is.Equal(actor.ID, uint64(1))
		return nil
	})(c)
}
