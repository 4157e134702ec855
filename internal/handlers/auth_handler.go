package handlers

import (
	"log"
	"net/http"
	"time"

	"go-travel-webapp/internal/config"
	"go-travel-webapp/internal/models"
	"go-travel-webapp/internal/security"
	"go-travel-webapp/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const sessionCookie = "session_token"
const pending2FACookie = "pending_2fa"

// UserStore is the slice of the user repository the auth flow needs.
type UserStore interface {
	FindActiveByUsername(username string) (*models.User, error)
	Update(user *models.User) error
}

// TwoFactorStore resolves optional TOTP configuration for an account.
type TwoFactorStore interface {
	Get(userID uint) (*models.TwoFactorSecret, error)
	ConsumeBackupCode(userID uint, code string) (bool, error)
}

type AuthHandler struct {
	users     UserStore
	twoFactor TwoFactorStore
	guard     *security.Guard
	tokens    *services.TokenService
	config    *config.Config
}

func NewAuthHandler(users UserStore, twoFactor TwoFactorStore, guard *security.Guard, tokens *services.TokenService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		users:     users,
		twoFactor: twoFactor,
		guard:     guard,
		tokens:    tokens,
		config:    cfg,
	}
}

// requestMetadata collects the request attributes the guard keys and records on.
func requestMetadata(c *gin.Context) security.Metadata {
	headers := map[string]string{}
	for _, name := range []string{"Accept-Language", "Referer", "X-Forwarded-For", "Sec-Ch-Ua-Platform"} {
		if value := c.GetHeader(name); value != "" {
			headers[name] = value
		}
	}
	return security.Metadata{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
		Headers:   headers,
	}
}

// Login handles POST /api/login for regular accounts.
func (h *AuthHandler) Login(c *gin.Context) {
	h.login(c, false)
}

// AdminLogin handles POST /api/admin/login. Valid credentials without the
// admin role are counted against the caller like a wrong password.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	h.login(c, true)
}

func (h *AuthHandler) login(c *gin.Context, adminOnly bool) {
	var loginData struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	meta := requestMetadata(c)
	fingerprint := security.ExtractFingerprint(meta)

	// Gate before credentials are ever consulted. An already-blocked client
	// is rejected without another failure being counted against it.
	check, err := h.guard.Check(fingerprint)
	if err != nil {
		log.Printf("ERROR: bruteforce check failed for %.12s: %v", fingerprint, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login temporarily unavailable. Please try again."})
		return
	}
	if check.Blocked {
		h.rejectBlocked(c, check)
		return
	}

	user, err := h.users.FindActiveByUsername(loginData.Username)
	if err != nil {
		h.rejectInvalid(c, fingerprint, meta)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(loginData.Password)); err != nil {
		h.rejectInvalid(c, fingerprint, meta)
		return
	}

	if adminOnly && !user.IsAdmin() {
		h.recordFailure(fingerprint, meta)
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient privileges"})
		return
	}

	// Optional TOTP step. The attempt is not recorded as a success until the
	// second factor passes.
	if secret, err := h.twoFactor.Get(user.UserID); err == nil && secret != nil && secret.IsEnabled {
		pending, err := h.tokens.Issue(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed. Please try again."})
			return
		}
		c.SetCookie(pending2FACookie, pending, 300, "/", h.config.Security.CookieDomain, h.config.Security.SecureCookies, true)
		c.JSON(http.StatusOK, gin.H{"requires_2fa": true})
		return
	}

	h.completeLogin(c, user, fingerprint, meta)
}

// Verify2FA handles POST /api/login/2fa, finishing a pending login.
func (h *AuthHandler) Verify2FA(c *gin.Context) {
	var verifyData struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&verifyData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Verification code is required"})
		return
	}

	pending, err := c.Cookie(pending2FACookie)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No pending login. Please log in again."})
		return
	}

	claims, err := h.tokens.Verify(pending)
	if err != nil {
		c.SetCookie(pending2FACookie, "", -1, "/", h.config.Security.CookieDomain, h.config.Security.SecureCookies, true)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login expired. Please log in again."})
		return
	}

	user, err := h.users.FindActiveByUsername(claims.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login expired. Please log in again."})
		return
	}

	meta := requestMetadata(c)
	fingerprint := security.ExtractFingerprint(meta)

	check, err := h.guard.Check(fingerprint)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login temporarily unavailable. Please try again."})
		return
	}
	if check.Blocked {
		h.rejectBlocked(c, check)
		return
	}

	valid := false
	if secret, err := h.twoFactor.Get(user.UserID); err == nil && secret != nil && secret.IsEnabled {
		valid = totp.Validate(verifyData.Code, secret.Secret)
		if !valid {
			valid, _ = h.twoFactor.ConsumeBackupCode(user.UserID, verifyData.Code)
		}
	}

	if !valid {
		h.recordFailure(fingerprint, meta)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid verification code"})
		return
	}

	c.SetCookie(pending2FACookie, "", -1, "/", h.config.Security.CookieDomain, h.config.Security.SecureCookies, true)
	h.completeLogin(c, user, fingerprint, meta)
}

func (h *AuthHandler) completeLogin(c *gin.Context, user *models.User, fingerprint string, meta security.Metadata) {
	if err := h.guard.RecordSuccess(fingerprint, meta); err != nil {
		// Operational visibility only; a store hiccup must not block a valid login.
		log.Printf("ERROR: failed to record login success for %.12s: %v", fingerprint, err)
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed. Please try again."})
		return
	}

	now := time.Now()
	user.LastLogin = &now
	if err := h.users.Update(user); err != nil {
		log.Printf("DEBUG: failed to update last_login for %s: %v", user.Username, err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, h.tokens.SessionTTLSeconds(), "/", h.config.Security.CookieDomain, h.config.Security.SecureCookies, true)

	c.JSON(http.StatusOK, gin.H{"user": sanitizeUser(user)})
}

// rejectInvalid records the failure and answers with the one generic message
// used for every credential problem, so usernames cannot be enumerated.
func (h *AuthHandler) rejectInvalid(c *gin.Context, fingerprint string, meta security.Metadata) {
	h.recordFailure(fingerprint, meta)
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
}

// recordFailure is best-effort: if the store cannot take the write the login
// is still rejected, and the error is logged for operations.
func (h *AuthHandler) recordFailure(fingerprint string, meta security.Metadata) {
	if err := h.guard.RecordFailure(fingerprint, meta); err != nil {
		log.Printf("ERROR: failed to record login failure for %.12s: %v", fingerprint, err)
	}
}

func (h *AuthHandler) rejectBlocked(c *gin.Context, check security.CheckResult) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":       "Too many failed attempts. Please retry in a moment.",
		"retry_after": check.RemainingSeconds,
	})
}

// Probe handles GET /api/login: returns the authenticated identity or 401.
func (h *AuthHandler) Probe(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": sanitizeUser(user)})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", h.config.Security.CookieDomain, h.config.Security.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// AuthMiddleware resolves the session cookie into a context user. The account
// is re-loaded on every request so deactivation takes effect immediately.
func (h *AuthHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			c.SetCookie(sessionCookie, "", -1, "/", h.config.Security.CookieDomain, h.config.Security.SecureCookies, true)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			c.Abort()
			return
		}

		user, err := h.users.FindActiveByUsername(claims.Username)
		if err != nil {
			c.SetCookie(sessionCookie, "", -1, "/", h.config.Security.CookieDomain, h.config.Security.SecureCookies, true)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			c.Abort()
			return
		}

		c.Set("user", *user)
		c.Set("userID", user.UserID)
		c.Next()
	}
}

// RequireAdmin gates admin endpoints. Must run after AuthMiddleware.
func (h *AuthHandler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetCurrentUser(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin privileges required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetCurrentUser returns the authenticated user stored by AuthMiddleware.
func GetCurrentUser(c *gin.Context) (*models.User, bool) {
	if user, exists := c.Get("user"); exists {
		if u, ok := user.(models.User); ok {
			return &u, true
		}
	}
	return nil, false
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func sanitizeUser(user *models.User) gin.H {
	return gin.H{
		"userID":     user.UserID,
		"username":   user.Username,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       user.Role,
		"last_login": user.LastLogin,
	}
}
