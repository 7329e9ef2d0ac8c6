package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charms-backend/internal/config"
	"github.com/iliyamo/charms-backend/internal/middleware"
	"github.com/iliyamo/charms-backend/internal/model"
	"github.com/iliyamo/charms-backend/internal/queue"
	"github.com/iliyamo/charms-backend/internal/repository"
	queue_publisher "github.com/iliyamo/charms-backend/internal/service"
	"github.com/iliyamo/charms-backend/internal/utils"
)

// ActorStore is the slice of the actor directory the auth endpoints
// use.
type ActorStore interface {
	Create(ctx context.Context, a *model.Actor) error
	ByUsername(ctx context.Context, username string) (model.Actor, error)
	Activate(ctx context.Context, id uint64) error
	UpdateProfile(ctx context.Context, id uint64, displayName, description string, isPrivate bool) error
	Delete(ctx context.Context, id uint64) error
}

// TokenStore persists and revokes capability tokens.
type TokenStore interface {
	Store(ctx context.Context, t *model.CapabilityToken) error
	Revoke(ctx context.Context, token string, ownerID uint64) error
}

// AuthHandler bundles dependencies for account and token endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Actors ActorStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, a ActorStore, t TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Actors: a, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	IsPrivate   bool   `json:"is_private"`
}
type issueTokenReq struct {
	Username     string              `json:"username"`
	Password     string              `json:"password"`
	Capabilities model.CapabilitySet `json:"capabilities"`
}
type revokeReq struct {
	Token string `json:"token"`
}
type updateProfileReq struct {
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"is_private"`
}

type actorPart struct {
	ID          uint64 `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	IsPrivate   bool   `json:"is_private"`
	IsActive    bool   `json:"is_active"`
}
type tokenResp struct {
	Token        string              `json:"token"`
	IssuedAt     time.Time           `json:"issued_at"`
	Capabilities model.CapabilitySet `json:"capabilities"`
}

// Register: create an unverified actor, generate its key pair and emit
// an account.created event carrying the verification link. The actor
// stays inactive until the link is visited.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create actor failed"})
	}
	keys, err := utils.GenerateKeyPair()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create actor failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	actor := model.Actor{
		Username:      req.Username,
		DisplayName:   req.DisplayName,
		Description:   req.Description,
		Email:         req.Email,
		PasswordHash:  hash,
		Host:          h.Cfg.InstanceHost,
		PublicKeyPEM:  keys.Public,
		PrivateKeyPEM: keys.Private,
		IsPrivate:     req.IsPrivate,
	}
	if err := h.Actors.Create(ctx, &actor); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create actor failed"})
	}

	ttl := time.Duration(h.Cfg.VerifyTTLHours) * time.Hour
	verify, err := utils.NewVerificationToken(h.Cfg.JWTSecret, actor.ID, ttl)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create actor failed"})
	}
	event := queue.AccountCreatedEvent{
		ActorID:   actor.ID,
		Username:  actor.Username,
		Email:     actor.Email,
		VerifyURL: fmt.Sprintf("https://%s/v1/auth/verify/%s", h.Cfg.InstanceHost, verify),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	// Mail delivery is driven off the broker; a publish failure must not
	// fail the registration itself.
	if err := queue_publisher.PublishAccountCreated(ctx, event); err != nil {
		log.Printf("register: publish account.created failed: %v", err)
	}

	return c.JSON(http.StatusCreated, actorPart{
		ID: actor.ID, Username: actor.Username, DisplayName: actor.DisplayName,
		IsPrivate: actor.IsPrivate, IsActive: actor.IsActive,
	})
}

// Verify: flip is_active once the emailed verification token checks out.
func (h *AuthHandler) Verify(c echo.Context) error {
	actorID, err := utils.ParseVerificationToken(h.Cfg.JWTSecret, c.Param("token"))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid verification token"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Actors.Activate(ctx, actorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid verification token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "verified"})
}

// IssueToken: verify credentials and mint an opaque capability token
// with exactly the requested flags. Unknown usernames and wrong
// passwords produce the same response.
func (h *AuthHandler) IssueToken(c echo.Context) error {
	var req issueTokenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	actor, err := h.Actors.ByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(actor.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !actor.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account not verified"})
	}

	value, err := utils.NewCapabilityToken(actor.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	tok := model.CapabilityToken{ActorID: actor.ID, Token: value, Caps: req.Capabilities}
	if err := h.Tokens.Store(ctx, &tok); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusCreated, tokenResp{
		Token: tok.Token, IssuedAt: tok.CreatedAt, Capabilities: tok.Caps,
	})
}

// RevokeToken: deactivate one of the caller's own tokens. The ownership
// check happens inside the repository before anything is written.
func (h *AuthHandler) RevokeToken(c echo.Context) error {
	owner, ok := middleware.CurrentActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	var req revokeReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Tokens.Revoke(ctx, strings.TrimSpace(req.Token), owner.ID); err != nil {
		if errors.Is(err, repository.ErrUnauthorized) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateProfile: owner-editable fields only.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	owner, ok := middleware.CurrentActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.DisplayName == "" {
		req.DisplayName = owner.DisplayName
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Actors.UpdateProfile(ctx, owner.ID, req.DisplayName, req.Description, req.IsPrivate); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, actorPart{
		ID: owner.ID, Username: owner.Username, DisplayName: req.DisplayName,
		IsPrivate: req.IsPrivate, IsActive: owner.IsActive,
	})
}

// DeleteAccount: remove the caller's actor together with its tokens,
// edges, charms and files. Requires the can_delete_account capability,
// enforced by middleware on the route.
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	owner, ok := middleware.CurrentActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Actors.Delete(ctx, owner.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	return c.JSON(http.StatusOK, actorPart{
		ID: actor.ID, Username: actor.Username, DisplayName: actor.DisplayName,
		IsPrivate: actor.IsPrivate, IsActive: actor.IsActive,
	})
}
