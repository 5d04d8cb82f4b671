package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/dating-app/internal/config"
)

func testTokens(t *testing.T) *TokenService {
	t.Helper()
	cfg := &config.Config{}
	cfg.Auth.TokenKey = strings.Repeat("k", config.MinTokenKeyLength)
	cfg.Auth.TokenTTL = time.Hour
	s, err := NewTokenService(cfg)
	require.NoError(t, err)
	return s
}

func TestNewTokenServiceRejectsShortKey(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.TokenKey = "short"
	_, err := NewTokenService(cfg)
	assert.Error(t, err)
}

func TestCreateAndValidate(t *testing.T) {
	s := testTokens(t)

	token, err := s.Create(7, "alice", []string{"Member", "Admin"})
	require.NoError(t, err)

	claims, err := s.Validate(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.HasRole("Admin"))
	assert.False(t, claims.HasRole("Moderator"))
}

func TestValidateSingleRoleAsString(t *testing.T) {
	s := testTokens(t)

	raw := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"nameid":      "3",
		"unique_name": "carol",
		"role":        "Member",
		"exp":         time.Now().Add(time.Hour).Unix(),
	})
	token, err := raw.SignedString(s.key)
	require.NoError(t, err)

	claims, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, Roles{"Member"}, claims.Roles)
}

func TestValidateRejects(t *testing.T) {
	s := testTokens(t)

	expired := *s
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Create(1, "alice", nil)
	require.NoError(t, err)
	_, err = s.Validate(old)
	assert.ErrorIs(t, err, ErrExpiredToken)

	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"nameid": "1", "unique_name": "alice",
	}).SignedString(s.key)
	require.NoError(t, err)
	_, err = s.Validate(hs256)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := testTokens(t)

	r := gin.New()
	api := r.Group("/", RequireAuth(s))
	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "username": GetUsername(c)})
	})
	api.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	api.GET("/moderate", RequireModerator(), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, do("/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/me", "garbage").Code)

	member, err := s.Create(3, "carol", []string{"Member"})
	require.NoError(t, err)
	moderator, err := s.Create(2, "bob", []string{"Member", "Moderator"})
	require.NoError(t, err)

	w := do("/me", member)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3,"username":"carol"}`, w.Body.String())

	mixed, err := s.Create(3, "Carol", []string{"Member"})
	require.NoError(t, err)
	w = do("/me", mixed)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3,"username":"carol"}`, w.Body.String())

	w = do("/admin", member)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"FORBIDDEN"`)
	assert.Equal(t, http.StatusForbidden, do("/moderate", member).Code)
	assert.Equal(t, http.StatusForbidden, do("/admin", moderator).Code)
	assert.Equal(t, http.StatusOK, do("/moderate", moderator).Code)
}
