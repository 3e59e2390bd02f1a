package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"platform/internal/auth"
	"platform/internal/models"
	"platform/internal/repository"
	"platform/internal/service"
)

type memSessionRepo struct {
	sessions map[string]*models.Session
}

func (r *memSessionRepo) Insert(_ context.Context, s *models.Session) error {
	if _, exists := r.sessions[s.SessionKey]; exists {
		return repository.ErrDuplicateKey
	}
	r.sessions[s.SessionKey] = s
	return nil
}

func (r *memSessionRepo) FindByKey(_ context.Context, key string) (*models.Session, error) {
	if s, ok := r.sessions[key]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memSessionRepo) Touch(_ context.Context, key string, at time.Time) error {
	if s, ok := r.sessions[key]; ok {
		s.LastActivity = at
	}
	return nil
}

func (r *memSessionRepo) MarkLoggedOut(_ context.Context, key string, at time.Time) (bool, error) {
	s, ok := r.sessions[key]
	if !ok || !s.IsActive {
		return false, nil
	}
	s.IsActive = false
	s.LogoutAt = &at
	return true, nil
}

func (r *memSessionRepo) RevokeAllForAccount(_ context.Context, _ primitive.ObjectID, _ time.Time) error {
	return nil
}

func (r *memSessionRepo) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type authFixture struct {
	issuer   *auth.TokenIssuer
	sessions *service.SessionManager
	repo     *memSessionRepo
	router   *gin.Engine
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer, err := auth.NewTokenIssuer("middleware-test-secret")
	if err != nil {
		t.Fatalf("NewTokenIssuer returned error: %v", err)
	}

	repo := &memSessionRepo{sessions: make(map[string]*models.Session)}
	sessions := service.NewSessionManager(repo)

	router := gin.New()
	router.GET("/protected", SessionAuth(issuer, sessions), func(c *gin.Context) {
		id, _ := c.Get("accountId")
		c.JSON(http.StatusOK, gin.H{"accountId": id.(primitive.ObjectID).Hex()})
	})

	return &authFixture{issuer: issuer, sessions: sessions, repo: repo, router: router}
}

func (f *authFixture) request(t *testing.T, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *authFixture) sessionToken(t *testing.T, accountID primitive.ObjectID, ttl time.Duration) string {
	t.Helper()
	session, err := f.sessions.Create(context.Background(), accountID, models.DeviceMetadata{}, ttl)
	if err != nil {
		t.Fatalf("session create returned error: %v", err)
	}
	token, err := f.issuer.IssueSession(accountID.Hex(), session.SessionKey, "customer", time.Hour)
	if err != nil {
		t.Fatalf("token issue returned error: %v", err)
	}
	return token
}

func TestSessionAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	f := newAuthFixture(t)

	if w := f.request(t, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing header, got %d", w.Code)
	}
	if w := f.request(t, "Basic abc123"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer scheme, got %d", w.Code)
	}
	if w := f.request(t, "Bearer not.a.jwt"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", w.Code)
	}
}

func TestSessionAuthAcceptsLiveSession(t *testing.T) {
	f := newAuthFixture(t)
	accountID := primitive.NewObjectID()
	token := f.sessionToken(t, accountID, time.Hour)

	w := f.request(t, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSessionAuthRejectsLoggedOutSession(t *testing.T) {
	f := newAuthFixture(t)
	accountID := primitive.NewObjectID()
	token := f.sessionToken(t, accountID, time.Hour)

	claims, err := f.issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if err := f.sessions.Logout(context.Background(), claims.SessionKey); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	// The JWT is still inside its lifetime, but the session is gone.
	if w := f.request(t, "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for logged-out session, got %d", w.Code)
	}
}

func TestSessionAuthRejectsExpiredSession(t *testing.T) {
	f := newAuthFixture(t)
	accountID := primitive.NewObjectID()
	token := f.sessionToken(t, accountID, 0)

	if w := f.request(t, "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired session, got %d", w.Code)
	}
}

func TestSessionAuthRejectsNonSessionPurpose(t *testing.T) {
	f := newAuthFixture(t)

	token, err := f.issuer.Issue(primitive.NewObjectID().Hex(), auth.PurposePasswordReset, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if w := f.request(t, "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-session token, got %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", func(c *gin.Context) {
		c.Set("role", "customer")
	}, RequireRole("admin"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong role, got %d", w.Code)
	}
}
