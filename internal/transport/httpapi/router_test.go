package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/dating-app/internal/app"
	"github.com/oggyb/dating-app/internal/auth"
	"github.com/oggyb/dating-app/internal/db"
	"github.com/oggyb/dating-app/internal/db/dbtest"
	"github.com/oggyb/dating-app/internal/transport/httpapi"
	"github.com/oggyb/dating-app/internal/utils/pagination"
)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	tokens *auth.TokenService
	db     *gorm.DB
}

func newAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := dbtest.Config()
	gdb := dbtest.Open(t)
	rc, _ := dbtest.Redis(t)
	tokens, err := auth.NewTokenService(cfg)
	require.NoError(t, err)

	appCtx := app.New(gdb, rc, dbtest.DiscardLogger(), nil, cfg)
	return &testAPI{t: t, router: httpapi.NewRouter(appCtx, tokens), tokens: tokens, db: gdb}
}

func (a *testAPI) token(id uint64, username string, roles ...string) string {
	tok, err := a.tokens.Create(id, username, roles)
	require.NoError(a.t, err)
	return tok
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestHealthAndRequestID(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
}

func TestRequiresToken(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestGetMembersSetsPaginationHeader(t *testing.T) {
	api := newAPI(t)
	tok := api.token(1, "alice", "Member")

	w := api.do(http.MethodGet, "/api/users?pageSize=2&minAge=18&maxAge=100", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var header pagination.Header
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get("Pagination")), &header))
	assert.Equal(t, pagination.Header{CurrentPage: 1, ItemsPerPage: 2, TotalItems: 4, TotalPages: 2}, header)
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Pagination")

	var members []struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &members))
	require.Len(t, members, 2)
	for _, m := range members {
		assert.NotEqual(t, "alice", m.Username)
	}

	w = api.do(http.MethodGet, "/api/users?minAge=40&maxAge=20", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = api.do(http.MethodGet, "/api/users?pageNumber=abc", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleLikeEndpoint(t *testing.T) {
	api := newAPI(t)
	tok := api.token(4, "dave", "Member")

	liked := func(w *httptest.ResponseRecorder) bool {
		var out struct {
			Liked bool `json:"liked"`
		}
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &out))
		return out.Liked
	}

	w := api.do(http.MethodPost, "/api/likes/5", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, liked(w))

	w = api.do(http.MethodPost, "/api/likes/5", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, liked(w))

	w = api.do(http.MethodPost, "/api/likes/4", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/likes/77", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageEndpoints(t *testing.T) {
	api := newAPI(t)
	carol := api.token(3, "carol", "Member")
	alice := api.token(1, "alice", "Member")

	w := api.do(http.MethodDelete, "/api/messages/1", carol, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPost, "/api/messages", carol,
		map[string]string{"recipientUsername": "erin", "content": "hi erin"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = api.do(http.MethodGet, "/api/messages/thread/Bob", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var thread []struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &thread))
	assert.Len(t, thread, 3)

	w = api.do(http.MethodGet, "/api/messages?container=Outbox", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("Pagination"))
}

func TestRolePolicies(t *testing.T) {
	api := newAPI(t)
	moderator := api.token(2, "bob", "Member", "Moderator")
	adminTok := api.token(1, "alice", "Member", "Admin")

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/admin/photos-to-moderate", moderator, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/admin/users-with-roles", moderator, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/admin/users-with-roles", adminTok, nil).Code)

	// the tag catalogue is admin-only; members may only list it
	member := api.token(5, "erin", "Member")
	w := api.do(http.MethodPost, "/api/admin/photo-tags", member, map[string]string{"name": "hiking"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, w).Error.Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/api/admin/photo-tags/1", moderator, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/users/photo-tags", member, nil).Code)

	w = api.do(http.MethodPost, "/api/admin/photo-tags", adminTok, map[string]string{"name": "outdoors"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decode(t, w).Error.Code)

	w = api.do(http.MethodPost, "/api/admin/edit-roles/carol?roles=Member,Moderator", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var roles []string
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &roles))
	assert.Equal(t, []string{"Member", "Moderator"}, roles)
}

func TestAuthenticatedRequestTouchesLastActive(t *testing.T) {
	api := newAPI(t)
	before := time.Now().UTC().Add(-time.Second)

	w := api.do(http.MethodGet, "/api/likes/count", api.token(5, "erin", "Member"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var u db.User
	require.NoError(t, api.db.First(&u, 5).Error)
	assert.True(t, u.LastActive.After(before), "last active %v", u.LastActive)
}
