package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-travel-webapp/internal/config"
	"go-travel-webapp/internal/models"
	"go-travel-webapp/internal/security"
	"go-travel-webapp/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// attemptStore is an in-memory security.Store for handler tests, serialized
// with a mutex and driven by the same transition functions as production.
type attemptStore struct {
	mu      sync.Mutex
	records map[string]*models.LoginAttempt
	nextID  uint
	failErr error
}

func newAttemptStore() *attemptStore {
	return &attemptStore{records: make(map[string]*models.LoginAttempt)}
}

func (s *attemptStore) Find(fingerprint string) (*models.LoginAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	rec, ok := s.records[fingerprint]
	if !ok {
		return nil, security.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *attemptStore) IncrementFailure(fingerprint string, meta security.Metadata, threshold int, lockout time.Duration, now time.Time) (*models.LoginAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	rec, ok := s.records[fingerprint]
	if !ok {
		s.nextID++
		rec = &models.LoginAttempt{AttemptID: s.nextID, Fingerprint: fingerprint, CreatedAt: now}
		s.records[fingerprint] = rec
	}
	security.ApplyFailure(rec, meta, threshold, lockout, now)
	cp := *rec
	return &cp, nil
}

func (s *attemptStore) RecordSuccess(fingerprint string, meta security.Metadata, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[fingerprint]
	if !ok {
		s.nextID++
		rec = &models.LoginAttempt{AttemptID: s.nextID, Fingerprint: fingerprint, CreatedAt: now}
		s.records[fingerprint] = rec
	}
	security.ApplySuccess(rec, meta, now)
	return nil
}

func (s *attemptStore) List(filter string, limit, offset int) ([]models.LoginAttempt, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.LoginAttempt
	for _, rec := range s.records {
		switch filter {
		case "blocked":
			if !rec.IsBlocked {
				continue
			}
		case "active":
			if rec.IsBlocked {
				continue
			}
		}
		all = append(all, *rec)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].LastAttempt.After(all[j].LastAttempt)
	})
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *attemptStore) Unblock(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.AttemptID == id {
			rec.AttemptCount = 0
			rec.IsBlocked = false
			rec.BlockedUntil = nil
			return nil
		}
	}
	return security.ErrNotFound
}

func (s *attemptStore) Delete(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for fp, rec := range s.records {
		if rec.AttemptID == id {
			delete(s.records, fp)
			return nil
		}
	}
	return security.ErrNotFound
}

func (s *attemptStore) get(fingerprint string) *models.LoginAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[fingerprint]; ok {
		cp := *rec
		return &cp
	}
	return nil
}

type fakeUserStore struct {
	users map[string]*models.User
}

func (s *fakeUserStore) FindActiveByUsername(username string) (*models.User, error) {
	if user, ok := s.users[username]; ok && user.IsActive {
		cp := *user
		return &cp, nil
	}
	return nil, fmt.Errorf("user %s not found", username)
}

func (s *fakeUserStore) Update(user *models.User) error { return nil }

type fakeTwoFactorStore struct {
	secrets map[uint]*models.TwoFactorSecret
}

func (s *fakeTwoFactorStore) Get(userID uint) (*models.TwoFactorSecret, error) {
	if s.secrets == nil {
		return nil, nil
	}
	return s.secrets[userID], nil
}

func (s *fakeTwoFactorStore) ConsumeBackupCode(userID uint, code string) (bool, error) {
	return false, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			SessionTimeout:   3600,
			MaxLoginAttempts: 3,
			LockoutDuration:  900,
			JWTSecret:        "test-secret-not-for-production",
		},
	}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	// MinCost keeps the suite fast; production hashing uses a higher cost.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

type loginFixture struct {
	router  *gin.Engine
	store   *attemptStore
	users   *fakeUserStore
	handler *AuthHandler
}

func newLoginFixture(t *testing.T) *loginFixture {
	t.Helper()
	cfg := testConfig()
	store := newAttemptStore()
	guard := security.NewGuard(store, &cfg.Security)
	tokens := services.NewTokenService(&cfg.Security)

	users := &fakeUserStore{users: map[string]*models.User{
		"alice": {UserID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: mustHash(t, "correct horse"), Role: "user", IsActive: true},
		"boris": {UserID: 2, Username: "boris", Email: "boris@example.com", PasswordHash: mustHash(t, "admin pass"), Role: "admin", IsActive: true},
	}}

	handler := NewAuthHandler(users, &fakeTwoFactorStore{}, guard, tokens, cfg)

	router := gin.New()
	router.POST("/api/login", handler.Login)
	router.POST("/api/admin/login", handler.AdminLogin)
	router.POST("/api/logout", handler.Logout)

	return &loginFixture{router: router, store: store, users: users, handler: handler}
}

func (f *loginFixture) attempt(t *testing.T, path, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(gin.H{"username": username, "password": password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/121.0")
	req.RemoteAddr = "203.0.113.50:44123"

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *loginFixture) fingerprint() string {
	return security.ExtractFingerprint(security.Metadata{
		IP:        "203.0.113.50",
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) Firefox/121.0",
	})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLoginSuccess(t *testing.T) {
	f := newLoginFixture(t)

	rec := f.attempt(t, "/api/login", "alice", "correct horse")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "password_hash")

	var sessionSet bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "session_token" {
			sessionSet = true
			assert.True(t, cookie.HttpOnly)
			assert.NotEmpty(t, cookie.Value)
		}
	}
	assert.True(t, sessionSet, "session cookie must be set")
}

func TestLoginMissingFields(t *testing.T) {
	f := newLoginFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader([]byte(`{"username":"alice"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, f.store.get(f.fingerprint()), "a malformed request is not a credential failure")
}

func TestLoginGenericRejection(t *testing.T) {
	f := newLoginFixture(t)

	wrongPassword := f.attempt(t, "/api/login", "alice", "wrong")
	unknownUser := f.attempt(t, "/api/login", "nobody", "wrong")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	// Same body for both, so usernames cannot be enumerated.
	assert.JSONEq(t, wrongPassword.Body.String(), unknownUser.Body.String())

	rec := f.store.get(f.fingerprint())
	require.NotNil(t, rec)
	assert.Equal(t, 2, rec.AttemptCount)
}

func TestLoginLockoutAfterThreshold(t *testing.T) {
	f := newLoginFixture(t)

	for i := 0; i < 3; i++ {
		rec := f.attempt(t, "/api/login", "alice", "wrong")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}

	// Correct credentials are irrelevant once the lockout is in effect, and
	// the rejected attempt must not be counted as another failure.
	rec := f.attempt(t, "/api/login", "alice", "correct horse")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	body := decodeBody(t, rec)
	retry, ok := body["retry_after"].(float64)
	require.True(t, ok, "429 body must carry retry_after")
	assert.Greater(t, retry, float64(0))
	assert.LessOrEqual(t, retry, float64(900))

	stored := f.store.get(f.fingerprint())
	require.NotNil(t, stored)
	assert.Equal(t, 3, stored.AttemptCount, "blocked attempts must not inflate the counter")
}

func TestLoginSuccessResetsFailures(t *testing.T) {
	f := newLoginFixture(t)

	f.attempt(t, "/api/login", "alice", "wrong")
	f.attempt(t, "/api/login", "alice", "wrong")

	rec := f.attempt(t, "/api/login", "alice", "correct horse")
	require.Equal(t, http.StatusOK, rec.Code)

	stored := f.store.get(f.fingerprint())
	require.NotNil(t, stored)
	assert.Equal(t, 0, stored.AttemptCount)
	assert.False(t, stored.IsBlocked)
}

func TestAdminLoginWrongRoleCountsAsFailure(t *testing.T) {
	f := newLoginFixture(t)

	// Valid credentials, but alice is not an admin.
	for i := 0; i < 2; i++ {
		rec := f.attempt(t, "/api/admin/login", "alice", "correct horse")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	}

	stored := f.store.get(f.fingerprint())
	require.NotNil(t, stored)
	assert.Equal(t, 2, stored.AttemptCount)

	rec := f.attempt(t, "/api/admin/login", "alice", "correct horse")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Third privilege failure engages the same lockout as wrong passwords,
	// and it now also locks the regular login behind the same fingerprint.
	rec = f.attempt(t, "/api/login", "alice", "correct horse")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAdminLoginSucceedsForAdmin(t *testing.T) {
	f := newLoginFixture(t)

	rec := f.attempt(t, "/api/admin/login", "boris", "admin pass")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "admin", user["role"])
}

func TestLoginFailsClosedWhenStoreDown(t *testing.T) {
	f := newLoginFixture(t)
	f.store.failErr = security.ErrStoreUnavailable

	rec := f.attempt(t, "/api/login", "alice", "correct horse")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLoginRequires2FAWhenEnabled(t *testing.T) {
	cfg := testConfig()
	store := newAttemptStore()
	guard := security.NewGuard(store, &cfg.Security)
	tokens := services.NewTokenService(&cfg.Security)

	users := &fakeUserStore{users: map[string]*models.User{
		"carol": {UserID: 3, Username: "carol", PasswordHash: mustHash(t, "pw"), Role: "user", IsActive: true},
	}}
	twoFactor := &fakeTwoFactorStore{secrets: map[uint]*models.TwoFactorSecret{
		3: {UserID: 3, Secret: "JBSWY3DPEHPK3PXP", IsEnabled: true},
	}}

	handler := NewAuthHandler(users, twoFactor, guard, tokens, cfg)
	router := gin.New()
	router.POST("/api/login", handler.Login)

	f := &loginFixture{router: router, store: store, users: users, handler: handler}
	rec := f.attempt(t, "/api/login", "carol", "pw")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["requires_2fa"])

	// No session yet: only the short-lived pending cookie is issued.
	var pending, session bool
	for _, cookie := range rec.Result().Cookies() {
		switch cookie.Name {
		case "pending_2fa":
			pending = true
		case "session_token":
			session = true
		}
	}
	assert.True(t, pending)
	assert.False(t, session)

	stored := store.records[f.fingerprint()]
	assert.Nil(t, stored, "success is not recorded before the second factor passes")
}

func TestLogoutClearsCookie(t *testing.T) {
	f := newLoginFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "session_token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestAuthMiddleware(t *testing.T) {
	f := newLoginFixture(t)

	authed := gin.New()
	authed.GET("/api/login", f.handler.AuthMiddleware(), f.handler.Probe)

	// Without a cookie.
	req := httptest.NewRequest(http.MethodGet, "/api/login", nil)
	rec := httptest.NewRecorder()
	authed.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// With a garbage token.
	req = httptest.NewRequest(http.MethodGet, "/api/login", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "not-a-token"})
	rec = httptest.NewRecorder()
	authed.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// With a real session from a login round-trip.
	login := f.attempt(t, "/api/login", "alice", "correct horse")
	require.Equal(t, http.StatusOK, login.Code)

	var token string
	for _, cookie := range login.Result().Cookies() {
		if cookie.Name == "session_token" {
			token = cookie.Value
		}
	}
	require.NotEmpty(t, token)

	req = httptest.NewRequest(http.MethodGet, "/api/login", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: token})
	rec = httptest.NewRecorder()
	authed.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
}

func TestRequireAdmin(t *testing.T) {
	f := newLoginFixture(t)

	router := gin.New()
	router.GET("/admin/ping",
		func(c *gin.Context) { c.Set("user", models.User{UserID: 1, Username: "alice", Role: "user"}) },
		f.handler.RequireAdmin(),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginSucceedsImmediatelyAfterAdminUnblock(t *testing.T) {
	f := newLoginFixture(t)

	for i := 0; i < 3; i++ {
		f.attempt(t, "/api/login", "alice", "wrong")
	}
	rec := f.attempt(t, "/api/login", "alice", "correct horse")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	stored := f.store.get(f.fingerprint())
	require.NotNil(t, stored)
	require.NoError(t, f.store.Unblock(stored.AttemptID))

	rec = f.attempt(t, "/api/login", "alice", "correct horse")
	assert.Equal(t, http.StatusOK, rec.Code)
}
