package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/matryer/is"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/charms-backend/internal/config"
	"github.com/iliyamo/charms-backend/internal/model"
	"github.com/iliyamo/charms-backend/internal/repository"
	"github.com/iliyamo/charms-backend/internal/utils"
)

// fakeActorStore serves a fixed actor set; the mutating methods are
// not needed by the token-issue tests.
type fakeActorStore struct {
	actors map[string]model.Actor
}

func (s *fakeActorStore) ByUsername(ctx context.Context, username string) (model.Actor, error) {
	a, ok := s.actors[username]
	if !ok {
		return model.Actor{}, repository.ErrNotFound
	}
	return a, nil
}
func (s *fakeActorStore) Create(ctx context.Context, a *model.Actor) error { return nil }
func (s *fakeActorStore) Activate(ctx context.Context, id uint64) error    { return nil }
func (s *fakeActorStore) UpdateProfile(ctx context.Context, id uint64, displayName, description string, isPrivate bool) error {
	return nil
}
func (s *fakeActorStore) Delete(ctx context.Context, id uint64) error { return nil }

// fakeTokenStore stamps every stored token with a fixed issue time,
// the way the repository stamps rows before writing them.
type fakeTokenStore struct {
	issuedAt time.Time
	stored   []model.CapabilityToken
}

func (s *fakeTokenStore) Store(ctx context.Context, t *model.CapabilityToken) error {
	t.ID = uint64(len(s.stored) + 1)
	t.IsActive = true
	t.CreatedAt = s.issuedAt
	s.stored = append(s.stored, *t)
	return nil
}
func (s *fakeTokenStore) Revoke(ctx context.Context, token string, ownerID uint64) error { return nil }

func newAuthScenario(issuedAt time.Time) (*AuthHandler, *fakeTokenStore) {
	hash, _ := utils.HashPassword("open sesame", bcrypt.MinCost)
	actors := &fakeActorStore{actors: map[string]model.Actor{
		"alice": {ID: 1, Username: "alice", PasswordHash: hash, IsActive: true},
		"bob":   {ID: 2, Username: "bob", PasswordHash: hash, IsActive: false},
	}}
	tokens := &fakeTokenStore{issuedAt: issuedAt}
	return NewAuthHandler(config.Config{}, actors, tokens), tokens
}

func postJSON(h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	return rec
}

func TestIssueTokenReportsStoredIssueTime(t *testing.T) {
	is := is.New(t)
	issued := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	h, tokens := newAuthScenario(issued)

	rec := postJSON(h.IssueToken,
		`{"username":"alice","password":"open sesame","capabilities":{"can_post_charms":true}}`)
	is.Equal(rec.Code, http.StatusCreated)

	var resp tokenResp
	is.NoErr(json.Unmarshal(rec.Body.Bytes(), &resp))
	// The response must carry the persisted issue time, not a second
	// clock read taken while building the response.
	is.True(resp.IssuedAt.Equal(issued))
	is.Equal(len(tokens.stored), 1)
	is.Equal(resp.Token, tokens.stored[0].Token)
	is.True(resp.Capabilities.CanPostCharms)
	is.True(!resp.Capabilities.CanDeleteAccount)
}

func TestIssueTokenUniformInvalidCredentials(t *testing.T) {
	is := is.New(t)
	h, _ := newAuthScenario(time.Now().UTC())

	unknown := postJSON(h.IssueToken, `{"username":"nobody","password":"open sesame"}`)
	wrongPw := postJSON(h.IssueToken, `{"username":"alice","password":"wrong"}`)

	// Unknown handle and wrong password must be indistinguishable.
	is.Equal(unknown.Code, http.StatusUnauthorized)
	is.Equal(wrongPw.Code, http.StatusUnauthorized)
	is.Equal(unknown.Body.String(), wrongPw.Body.String())
}

func TestIssueTokenUnverifiedAccount(t *testing.T) {
	is := is.New(t)
	h, tokens := newAuthScenario(time.Now().UTC())

	rec := postJSON(h.IssueToken, `{"username":"bob","password":"open sesame"}`)
	is.Equal(rec.Code, http.StatusUnauthorized)
	is.Equal(len(tokens.stored), 0) // nothing persisted for an unverified account
}
