package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blog-api/internal/config"
	"blog-api/internal/controller"
	"blog-api/internal/middleware"
	"blog-api/internal/model"
	"blog-api/internal/repository"
	"blog-api/internal/service"
	"blog-api/pkg/db/dbtest"
	"blog-api/pkg/jwtauth"
	"blog-api/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testApp struct {
	handler http.Handler
}

func newTestApp(t *testing.T, mutate func(*config.Config)) *testApp {
	t.Helper()
	return newTestAppWithLogger(t, mutate, logger.NewNopLogger())
}

func newTestAppWithLogger(t *testing.T, mutate func(*config.Config), log logger.Logger) *testApp {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Name: "blog-api", Port: "0", Mode: "test"},
		JWT: config.JWTConfig{
			SigningKey:       strings.Repeat("r", 32),
			Timeout:          time.Hour,
			MaxLoginAttempts: 5,
			LockDuration:     time.Minute,
		},
		RateLimit: config.RateLimitConfig{
			Limit:       1000,
			Window:      time.Minute,
			LoginLimit:  2,
			LoginWindow: time.Minute,
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	gdb := dbtest.Open(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	userRepo := repository.NewUserRepository(gdb)
	blacklist := jwtauth.NewJwtBlacklist(rdb, cfg, log)
	tokens, err := jwtauth.NewTokenService(cfg, userRepo, blacklist)
	require.NoError(t, err)

	users := service.NewUserService(userRepo, tokens, jwtauth.NewLoginLocked(rdb, cfg), blacklist, log)
	posts := service.NewBlogService(repository.NewBlogRepository(gdb), log)

	rt := NewRouter(
		controller.NewBlogController(posts, log),
		controller.NewUserController(users, log),
		controller.NewAuthController(users, log),
		controller.NewHealthController(gdb, log),
		middleware.NewAuthMiddleware(log),
		middleware.NewJWT(tokens, log),
		middleware.NewRateLimiterMiddleware(rdb, cfg, log),
		cfg,
		log,
	)

	_, err = users.EnsureAdmin(context.Background(), config.AdminConfig{
		Username: "root", Email: "root@example.com", Password: "rootpass",
	})
	require.NoError(t, err)
	return &testApp{handler: rt.Engine}
}

func (a *testApp) call(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type loginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (a *testApp) login(t *testing.T, username, password string) loginResponse {
	t.Helper()
	w := a.call(http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[loginResponse](t, w)
}

func (a *testApp) register(t *testing.T, adminToken, username string, role model.Role) model.User {
	t.Helper()
	w := a.call(http.MethodPost, "/api/auth/register", adminToken, map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "pw-" + username,
		"role":     string(role),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.User](t, w)
}

func TestHealthAndNoRoute(t *testing.T) {
	app := newTestApp(t, nil)

	w := app.call(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = app.call(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t, nil)
	root := app.login(t, "root", "rootpass")
	assert.Equal(t, model.RoleAdmin, root.User.Role)
	assert.NotContains(t, app.call(http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "root", "password": "rootpass"}).Body.String(), "password")

	w := app.call(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "root", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	wrongPassword := w.Body.String()
	w = app.call(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "ghost", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, wrongPassword, w.Body.String())

	w = app.call(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "root"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.call(http.MethodGet, "/api/auth/me", root.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]interface{}](t, w)
	assert.Equal(t, "root", me["username"])
	assert.NotContains(t, me, "passwordHash")
	assert.NotContains(t, me, "PasswordHash")

	w = app.call(http.MethodPost, "/api/auth/logout", root.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.call(http.MethodGet, "/api/auth/me", root.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister(t *testing.T) {
	app := newTestApp(t, nil)
	root := app.login(t, "root", "rootpass")

	alice := app.register(t, root.Token, "alice", "")
	assert.Equal(t, model.RoleUser, alice.Role)

	tests := []struct {
		name  string
		token string
		body  map[string]string
		want  int
	}{
		{"anonymous", "", map[string]string{"username": "bob", "email": "bob@example.com", "password": "secret1"}, http.StatusUnauthorized},
		{"duplicate username", root.Token, map[string]string{"username": "alice", "email": "x@example.com", "password": "secret1"}, http.StatusConflict},
		{"duplicate email", root.Token, map[string]string{"username": "bob", "email": "alice@example.com", "password": "secret1"}, http.StatusConflict},
		{"short username", root.Token, map[string]string{"username": "bo", "email": "bo@example.com", "password": "secret1"}, http.StatusBadRequest},
		{"bad email", root.Token, map[string]string{"username": "bob", "email": "nope", "password": "secret1"}, http.StatusBadRequest},
		{"short password", root.Token, map[string]string{"username": "bob", "email": "bob@example.com", "password": "123"}, http.StatusBadRequest},
		{"unknown role", root.Token, map[string]string{"username": "bob", "email": "bob@example.com", "password": "secret1", "role": "owner"}, http.StatusBadRequest},
		{"password over 72 bytes", root.Token, map[string]string{"username": "bob", "email": "bob@example.com", "password": strings.Repeat("p", 80)}, http.StatusBadRequest},
		{"multibyte password over 72 bytes", root.Token, map[string]string{"username": "bob", "email": "bob@example.com", "password": strings.Repeat("é", 40)}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := app.call(http.MethodPost, "/api/auth/register", tc.token, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}

	editor := app.register(t, root.Token, "eddie", model.RoleEditor)
	assert.Equal(t, model.RoleEditor, editor.Role)
	edToken := app.login(t, "eddie", "pw-eddie").Token
	w := app.call(http.MethodPost, "/api/auth/register", edToken, map[string]string{
		"username": "carol", "email": "carol@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPostRoleGates(t *testing.T) {
	app := newTestApp(t, nil)
	root := app.login(t, "root", "rootpass").Token
	app.register(t, root, "eddie", model.RoleEditor)
	app.register(t, root, "ursula", model.RoleUser)
	editor := app.login(t, "eddie", "pw-eddie").Token
	user := app.login(t, "ursula", "pw-ursula").Token

	body := map[string]interface{}{"title": "Hello", "author": "Jane Doe", "age": 30}

	assert.Equal(t, http.StatusUnauthorized, app.call(http.MethodPost, "/api/posts", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, app.call(http.MethodPost, "/api/posts", "garbage", body).Code)
	assert.Equal(t, http.StatusForbidden, app.call(http.MethodPost, "/api/posts", user, body).Code)

	w := app.call(http.MethodPost, "/api/posts", editor, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode[model.BlogPost](t, w)
	assert.False(t, post.IsDeleted)

	w = app.call(http.MethodPost, "/api/posts", root, body)
	require.Equal(t, http.StatusCreated, w.Code)

	path := fmt.Sprintf("/api/posts/%d", post.ID)
	assert.Equal(t, http.StatusOK, app.call(http.MethodPut, path, editor, map[string]string{"title": "Edited"}).Code)
	assert.Equal(t, http.StatusForbidden, app.call(http.MethodDelete, path, editor, nil).Code)
	assert.Equal(t, http.StatusForbidden, app.call(http.MethodGet, "/api/posts/all", editor, nil).Code)
	assert.Equal(t, http.StatusForbidden, app.call(http.MethodPost, "/api/posts/reorganize", editor, nil).Code)
	assert.Equal(t, http.StatusOK, app.call(http.MethodDelete, path, root, nil).Code)
}

func TestPostLifecycle(t *testing.T) {
	app := newTestApp(t, nil)
	root := app.login(t, "root", "rootpass").Token

	var ids []uint
	for _, p := range []map[string]interface{}{
		{"title": "Go tips", "author": "Jane Doe", "description": "channels", "age": 20},
		{"title": "Rust notes", "author": "John Roe", "age": 35},
		{"title": "Cooking", "author": "Mary Major"},
	} {
		w := app.call(http.MethodPost, "/api/posts", root, p)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ids = append(ids, decode[model.BlogPost](t, w).ID)
	}

	w := app.call(http.MethodGet, "/api/posts?search=jane", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[model.Page[model.BlogPost]](t, w)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Go tips", page.Items[0].Title)

	w = app.call(http.MethodGet, "/api/posts?limit=2&page=2&sortBy=title&sortOrder=desc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[model.Page[model.BlogPost]](t, w)
	assert.EqualValues(t, 3, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Cooking", page.Items[0].Title)

	w = app.call(http.MethodPut, fmt.Sprintf("/api/posts/%d", ids[1]), root, map[string]interface{}{"age": 36})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[model.BlogPost](t, w)
	assert.Equal(t, "Rust notes", updated.Title)
	assert.Equal(t, 36, *updated.Age)

	first := fmt.Sprintf("/api/posts/%d", ids[0])
	assert.Equal(t, http.StatusOK, app.call(http.MethodDelete, first, root, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.call(http.MethodDelete, first, root, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.call(http.MethodGet, first, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, app.call(http.MethodPut, first, root, map[string]string{"title": "x"}).Code)

	w = app.call(http.MethodGet, "/api/posts/all", root, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.BlogPost](t, w), 3)

	assert.Equal(t, http.StatusOK, app.call(http.MethodPost, first+"/restore", root, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.call(http.MethodPost, first+"/restore", root, nil).Code)
	assert.Equal(t, http.StatusOK, app.call(http.MethodGet, first, "", nil).Code)

	assert.Equal(t, http.StatusOK, app.call(http.MethodDelete, first, root, nil).Code)
	w = app.call(http.MethodPost, "/api/posts/reorganize", root, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reorganized":2}`, w.Body.String())

	w = app.call(http.MethodGet, "/api/posts/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rust notes", decode[model.BlogPost](t, w).Title)
	w = app.call(http.MethodGet, "/api/posts/2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cooking", decode[model.BlogPost](t, w).Title)
}

func TestPostSortOrderIgnoresCase(t *testing.T) {
	app := newTestApp(t, nil)
	root := app.login(t, "root", "rootpass").Token
	for _, title := range []string{"A", "B", "C"} {
		w := app.call(http.MethodPost, "/api/posts", root, map[string]interface{}{"title": title, "author": "Jane Doe"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	for _, order := range []string{"Desc", "dEsC", "DESC", "desc"} {
		w := app.call(http.MethodGet, "/api/posts?sortBy=title&sortOrder="+order, "", nil)
		require.Equal(t, http.StatusOK, w.Code, order+": "+w.Body.String())
		page := decode[model.Page[model.BlogPost]](t, w)
		require.Len(t, page.Items, 3)
		assert.Equal(t, "C", page.Items[0].Title, order)
	}

	w := app.call(http.MethodGet, "/api/posts?sortBy=title&sortOrder=Asc", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "A", decode[model.Page[model.BlogPost]](t, w).Items[0].Title)
}

func TestPostValidation(t *testing.T) {
	app := newTestApp(t, nil)
	root := app.login(t, "root", "rootpass").Token

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"missing title", http.MethodPost, "/api/posts", map[string]interface{}{"author": "a"}},
		{"title too long", http.MethodPost, "/api/posts", map[string]interface{}{"title": strings.Repeat("t", 201), "author": "a"}},
		{"age out of range", http.MethodPost, "/api/posts", map[string]interface{}{"title": "t", "author": "a", "age": 151}},
		{"negative age", http.MethodPost, "/api/posts", map[string]interface{}{"title": "t", "author": "a", "age": -1}},
		{"bad id", http.MethodGet, "/api/posts/abc", nil},
		{"zero id", http.MethodGet, "/api/posts/0", nil},
		{"unknown sort", http.MethodGet, "/api/posts?sortBy=password", nil},
		{"bad order", http.MethodGet, "/api/posts?sortOrder=up", nil},
		{"limit too large", http.MethodGet, "/api/posts?limit=1000", nil},
		{"negative page", http.MethodGet, "/api/posts?page=-1", nil},
		{"non numeric age", http.MethodGet, "/api/posts?minAge=old", nil},
		{"inverted ages", http.MethodGet, "/api/posts?minAge=50&maxAge=10", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := app.call(tc.method, tc.path, root, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestUserAdministration(t *testing.T) {
	app := newTestApp(t, nil)
	rootLogin := app.login(t, "root", "rootpass")
	root := rootLogin.Token
	alice := app.register(t, root, "alice", model.RoleEditor)
	aliceToken := app.login(t, "alice", "pw-alice").Token

	assert.Equal(t, http.StatusForbidden, app.call(http.MethodGet, "/api/users/all", aliceToken, nil).Code)

	w := app.call(http.MethodGet, fmt.Sprintf("/api/users/%d", rootLogin.User.ID+1000), root, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	self := fmt.Sprintf("/api/users/%d", rootLogin.User.ID)
	assert.Equal(t, http.StatusForbidden, app.call(http.MethodDelete, self, root, nil).Code)

	path := fmt.Sprintf("/api/users/%d", alice.ID)
	assert.Equal(t, http.StatusOK, app.call(http.MethodDelete, path, root, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.call(http.MethodDelete, path, root, nil).Code)

	// the token was issued before deactivation
	assert.Equal(t, http.StatusUnauthorized, app.call(http.MethodGet, "/api/auth/me", aliceToken, nil).Code)
	w = app.call(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "pw-alice"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.call(http.MethodGet, "/api/users/all", root, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.User](t, w), 1)
	w = app.call(http.MethodGet, "/api/users/all?inactive=true", root, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.User](t, w), 2)

	assert.Equal(t, http.StatusOK, app.call(http.MethodPost, path+"/restore", root, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.call(http.MethodPost, path+"/restore", root, nil).Code)

	w = app.call(http.MethodPut, path+"/password", root, map[string]string{"password": "fresh-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	app.login(t, "alice", "fresh-pass")
	assert.Equal(t, http.StatusBadRequest, app.call(http.MethodPut, path+"/password", root, map[string]string{"password": "x"}).Code)
	w = app.call(http.MethodPut, path+"/password", root, map[string]string{"password": strings.Repeat("p", 80)})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	w = app.call(http.MethodPut, path+"/password", root, map[string]string{"password": strings.Repeat("é", 40)})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	app.login(t, "alice", "fresh-pass")
}

func TestLoginRateLimit(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) { cfg.RateLimit.Enabled = true })

	creds := map[string]string{"username": "root", "password": "wrong"}
	assert.Equal(t, http.StatusUnauthorized, app.call(http.MethodPost, "/api/auth/login", "", creds).Code)
	assert.Equal(t, http.StatusUnauthorized, app.call(http.MethodPost, "/api/auth/login", "", creds).Code)
	assert.Equal(t, http.StatusTooManyRequests, app.call(http.MethodPost, "/api/auth/login", "", creds).Code)

	assert.Equal(t, http.StatusOK, app.call(http.MethodGet, "/api/posts", "", nil).Code)
}

func TestRateLimitRunsBeforeTokenVerification(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	app := newTestAppWithLogger(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.Limit = 1
	}, logger.NewFromZap(zap.New(core)))

	assert.Equal(t, http.StatusOK, app.call(http.MethodGet, "/api/posts", "garbage", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, app.call(http.MethodGet, "/api/posts", "garbage", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, app.call(http.MethodGet, "/api/posts", "garbage", nil).Code)

	assert.Equal(t, 1, logs.FilterMessage("token rejected").Len())
}
