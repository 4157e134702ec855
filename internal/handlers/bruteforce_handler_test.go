package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-travel-webapp/internal/config"
	"go-travel-webapp/internal/logger"
	"go-travel-webapp/internal/models"
	"go-travel-webapp/internal/security"
)

type fakeAudit struct {
	entries []models.AuditLog
}

func (a *fakeAudit) Record(entry *models.AuditLog) {
	a.entries = append(a.entries, *entry)
}

type adminFixture struct {
	router *gin.Engine
	store  *attemptStore
	guard  *security.Guard
	audit  *fakeAudit
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	store := newAttemptStore()
	guard := security.NewGuard(store, &config.SecurityConfig{MaxLoginAttempts: 3, LockoutDuration: 900})
	audit := &fakeAudit{}
	structuredLog, err := logger.NewStructuredLogger(logger.LoggerConfig{Level: logger.ERROR, Service: "test"})
	require.NoError(t, err)
	handler := NewBruteforceHandler(guard, audit, structuredLog)

	router := gin.New()
	// Stands in for AuthMiddleware plus RequireAdmin.
	router.Use(func(c *gin.Context) {
		c.Set("user", models.User{UserID: 99, Username: "admin", Role: "admin"})
	})
	router.GET("/admin/bruteforce", handler.List)
	router.POST("/admin/bruteforce/:id/unblock", handler.Unblock)
	router.DELETE("/admin/bruteforce/:id", handler.Delete)

	return &adminFixture{router: router, store: store, guard: guard, audit: audit}
}

// seed records one failure per address, plus enough on the last address to
// engage a lockout. Returns the blocked record's ID.
func (f *adminFixture) seed(t *testing.T, clients int) uint {
	t.Helper()
	var blockedID uint
	for i := 0; i < clients; i++ {
		meta := security.Metadata{IP: fmt.Sprintf("198.51.100.%d", i+1), UserAgent: "curl/8.0"}
		fp := security.ExtractFingerprint(meta)
		require.NoError(t, f.guard.RecordFailure(fp, meta))
		if i == clients-1 {
			require.NoError(t, f.guard.RecordFailure(fp, meta))
			require.NoError(t, f.guard.RecordFailure(fp, meta))
			rec := f.store.get(fp)
			require.NotNil(t, rec)
			require.True(t, rec.IsBlocked)
			blockedID = rec.AttemptID
		}
	}
	return blockedID
}

func (f *adminFixture) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminListAttempts(t *testing.T) {
	f := newAdminFixture(t)
	f.seed(t, 5)

	rec := f.do(t, http.MethodGet, "/admin/bruteforce")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Records    []models.LoginAttempt `json:"records"`
		Total      int64                 `json:"total"`
		TotalPages int                   `json:"total_pages"`
		Page       int                   `json:"page"`
		Limit      int                   `json:"limit"`
		Filter     string                `json:"filter"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(5), body.Total)
	assert.Len(t, body.Records, 5)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 20, body.Limit)
	assert.Equal(t, "all", body.Filter)

	// Most recent attempt first: the blocked client was seeded last.
	assert.True(t, body.Records[0].IsBlocked)
	for i := 1; i < len(body.Records); i++ {
		assert.False(t, body.Records[i].LastAttempt.After(body.Records[i-1].LastAttempt),
			"records must be ordered by last attempt descending")
	}
}

func TestAdminListBlockedFilter(t *testing.T) {
	f := newAdminFixture(t)
	f.seed(t, 5)

	rec := f.do(t, http.MethodGet, "/admin/bruteforce?filter=blocked")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Records []models.LoginAttempt `json:"records"`
		Total   int64                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Total)
	require.Len(t, body.Records, 1)
	assert.True(t, body.Records[0].IsBlocked)
}

func TestAdminListPagination(t *testing.T) {
	f := newAdminFixture(t)
	f.seed(t, 5)

	rec := f.do(t, http.MethodGet, "/admin/bruteforce?page=2&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Records    []models.LoginAttempt `json:"records"`
		Total      int64                 `json:"total"`
		TotalPages int                   `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(5), body.Total)
	assert.Equal(t, 3, body.TotalPages)
	assert.Len(t, body.Records, 2)
}

func TestAdminUnblock(t *testing.T) {
	f := newAdminFixture(t)
	blockedID := f.seed(t, 3)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/admin/bruteforce/%d/unblock", blockedID))
	require.Equal(t, http.StatusOK, rec.Code)

	meta := security.Metadata{IP: "198.51.100.3", UserAgent: "curl/8.0"}
	check, err := f.guard.Check(security.ExtractFingerprint(meta))
	require.NoError(t, err)
	assert.False(t, check.Blocked)

	// Unblocking a record that is not blocked still succeeds.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/admin/bruteforce/%d/unblock", blockedID))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.audit.entries, 2)
	entry := f.audit.entries[0]
	assert.Equal(t, "unblock_attempt", entry.Action)
	assert.Equal(t, "login_attempt", entry.EntityType)
	assert.Equal(t, fmt.Sprintf("%d", blockedID), entry.EntityID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, uint(99), *entry.UserID)
}

func TestAdminUnblockUnknownID(t *testing.T) {
	f := newAdminFixture(t)

	rec := f.do(t, http.MethodPost, "/admin/bruteforce/4242/unblock")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.audit.entries)
}

func TestAdminDelete(t *testing.T) {
	f := newAdminFixture(t)
	blockedID := f.seed(t, 3)

	rec := f.do(t, http.MethodDelete, fmt.Sprintf("/admin/bruteforce/%d", blockedID))
	require.Equal(t, http.StatusOK, rec.Code)

	// The fingerprint is forgotten entirely: the client starts from zero.
	meta := security.Metadata{IP: "198.51.100.3", UserAgent: "curl/8.0"}
	check, err := f.guard.Check(security.ExtractFingerprint(meta))
	require.NoError(t, err)
	assert.False(t, check.Blocked)

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/admin/bruteforce/%d", blockedID))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, "delete_attempt", f.audit.entries[0].Action)
}

func TestAdminInvalidID(t *testing.T) {
	f := newAdminFixture(t)

	for _, path := range []string{
		"/admin/bruteforce/abc/unblock",
		"/admin/bruteforce/0/unblock",
		"/admin/bruteforce/-1/unblock",
	} {
		rec := f.do(t, http.MethodPost, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}
