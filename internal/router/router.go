package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/charms-backend/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/charms-backend/internal/middleware" // import middleware for token authentication and capability enforcement
	"github.com/iliyamo/charms-backend/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all account and token routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.  The tokens source backs the
// bearer-token middleware; destroying an account additionally requires the
// can_delete_account capability on the presented token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, tokens middleware.TokenAuthority) {
	// Operations that do not require an existing token: registration, email
	// verification and token issuance (which exchanges credentials).
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.GET("/verify/:token", a.Verify)
	g.POST("/token", a.IssueToken)
	// Revocation needs the caller to prove who they are first; the repository
	// then checks that the named token actually belongs to them.
	g.POST("/revoke", a.RevokeToken, middleware.TokenAuth(tokens))

	// Protected endpoints live under /v1 and require a valid bearer token.
	auth := e.Group("/v1")
	auth.Use(middleware.TokenAuth(tokens))
	auth.GET("/me", a.Me)
	auth.PATCH("/account", a.UpdateProfile)
	// Deleting the account is the most destructive operation, so it is gated
	// on an explicit capability flag in addition to token validity. The
	// authorize call resolves the token and checks the flag in one round
	// trip, so the route sits outside the plain TokenAuth group.
	e.DELETE("/v1/account", a.DeleteAccount,
		middleware.TokenAuthWithCapability(tokens, model.CanDeleteAccount))
}

// RegisterSocial registers the relationship endpoints.  Every one of them
// mutates an edge owned by the caller, so the whole group requires a valid
// bearer token.
func RegisterSocial(e *echo.Echo, r *handler.RelationHandler, tokens middleware.TokenSource) {
	g := e.Group("/v1")
	g.Use(middleware.TokenAuth(tokens))
	g.POST("/follow", r.Follow)
	g.POST("/unfollow", r.Unfollow)
	g.POST("/block", r.Block)
	g.POST("/unblock", r.Unblock)
}

// RegisterProfiles registers the gated content endpoints.  Tokens are
// optional here: anonymous requests are served as the public viewer, while a
// presented token resolves the caller so the visibility gate can recognise
// owners and followers.
func RegisterProfiles(e *echo.Echo, p *handler.ProfileHandler, tokens middleware.TokenSource) {
	g := e.Group("/v1/actors")
	g.Use(middleware.OptionalTokenAuth(tokens))
	g.GET("/:username", p.Profile)
	g.GET("/:username/timeline", p.Timeline)
	g.GET("/:username/files", p.FileList)
}

// RegisterFederation registers the discovery surface consumed by foreign
// servers.  These endpoints are always public.
func RegisterFederation(e *echo.Echo, f *handler.FederationHandler) {
	e.GET("/.well-known/webfinger", f.WebFinger)
	e.GET("/users/:username", f.Actor)
	e.GET("/users/:username/followers", f.Followers)
	e.GET("/users/:username/following", f.Following)
}
