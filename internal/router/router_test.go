package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/taskhive/config"
	"github.com/oksasatya/taskhive/internal/container"
	"github.com/oksasatya/taskhive/internal/infrastructure/memory"
	"github.com/oksasatya/taskhive/internal/interface/middleware"
	"github.com/oksasatya/taskhive/pkg/validation"
)

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiClient struct {
	t       *testing.T
	engine  *gin.Engine
	cookies []*http.Cookie
}

func newTestServer(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.FromEnv()
	cfg.StoreDriver = config.StoreMemory
	cfg.BcryptCost = bcrypt.MinCost
	logger, _ := test.NewNullLogger()

	c := container.Wire(cfg, logger, container.Infra{Store: memory.NewStore(), Redis: rdb})

	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware(), middleware.RealIP(), middleware.Metrics())
	reg := NewRegistry(engine)
	InitModules(reg, c)
	reg.RegisterAll()
	return &apiClient{t: t, engine: engine}
}

func (a *apiClient) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range a.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	if set := w.Result().Cookies(); len(set) > 0 {
		a.cookies = nil
		for _, ck := range set {
			if ck.MaxAge >= 0 && ck.Value != "" {
				a.cookies = append(a.cookies, ck)
			}
		}
	}
	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (a *apiClient) login(username, password string) {
	a.t.Helper()
	w, _ := a.do(http.MethodPost, "/api/auth/register", map[string]string{"username": username, "password": password})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	w, _ = a.do(http.MethodPost, "/api/auth/login", map[string]string{"username": username, "password": password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
}

func TestAuthFlow(t *testing.T) {
	api := newTestServer(t)

	w, env := api.do(http.MethodGet, "/api/auth/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"isLoggedIn":false}`, string(env.Data))

	w, _ = api.do(http.MethodPost, "/api/auth/register", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	api.login("alice", "hunter22")

	w, _ = api.do(http.MethodPost, "/api/auth/register", map[string]string{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = api.do(http.MethodGet, "/api/auth/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[map[string]any](t, env.Data)
	assert.Equal(t, true, status["isLoggedIn"])
	assert.Equal(t, "alice", status["username"])

	w, _ = api.do(http.MethodPost, "/api/auth/refresh", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(http.MethodGet, "/api/tabs", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	api := newTestServer(t)
	api.login("bob", "correct-horse")
	api.cookies = nil

	w, env := api.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "bob", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)

	w, _ = api.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "nobody", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTabsAndTasks(t *testing.T) {
	api := newTestServer(t)
	api.login("carol", "pa55word")

	w, env := api.do(http.MethodGet, "/api/tabs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"tabId":"main","tabName":"Main"}]`, string(env.Data))

	w, env = api.do(http.MethodPost, "/api/tabs", map[string]string{"tabName": "  Work  Stuff "})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"tabId":"work-stuff","tabName":"Work  Stuff"}`, string(env.Data))

	w, _ = api.do(http.MethodPost, "/api/tabs", map[string]string{"tabName": "a#b"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = api.do(http.MethodPost, "/api/tasks", map[string]string{"tabId": "work-stuff", "text": "ship it"})
	require.Equal(t, http.StatusCreated, w.Code)
	task := decode[map[string]any](t, env.Data)
	taskID := task["taskId"].(string)
	assert.Equal(t, false, task["completed"])

	w, _ = api.do(http.MethodPost, "/api/tasks", map[string]string{"tabId": "work-stuff"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = api.do(http.MethodPut, "/api/tasks/work-stuff/"+taskID, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, env.Data)["completed"])

	w, _ = api.do(http.MethodPut, "/api/tasks/work-stuff/"+taskID, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodPut, "/api/tasks/work-stuff/missing", map[string]any{"text": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = api.do(http.MethodGet, "/api/tasks/work-stuff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)

	w, _ = api.do(http.MethodGet, "/api/tasks/work-stuff/"+taskID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(http.MethodPut, "/api/preferences/active-tab", map[string]string{"tabId": "work-stuff"})
	assert.Equal(t, http.StatusOK, w.Code)
	_, env = api.do(http.MethodGet, "/api/preferences/active-tab", nil)
	assert.JSONEq(t, `{"activeTabId":"work-stuff"}`, string(env.Data))

	w, _ = api.do(http.MethodDelete, "/api/tabs/main", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = api.do(http.MethodDelete, "/api/tabs/work-stuff", nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, env = api.do(http.MethodGet, "/api/tasks/work-stuff", nil)
	assert.JSONEq(t, `[]`, string(env.Data))
	w, _ = api.do(http.MethodGet, "/api/tasks/work-stuff/"+taskID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// idempotent delete
	w, _ = api.do(http.MethodDelete, "/api/tasks/work-stuff/"+taskID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTasksAreScopedPerUser(t *testing.T) {
	api := newTestServer(t)
	api.login("dave", "secret1")
	_, env := api.do(http.MethodPost, "/api/tasks", map[string]string{"tabId": "main", "text": "private"})
	taskID := decode[map[string]any](t, env.Data)["taskId"].(string)

	api.cookies = nil
	api.login("erin", "secret2")
	w, _ := api.do(http.MethodGet, "/api/tasks/main/"+taskID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	_, env = api.do(http.MethodGet, "/api/tasks/main", nil)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestSearch_DisabledReturnsEmpty(t *testing.T) {
	api := newTestServer(t)
	api.login("frank", "secret3")

	w, _ := api.do(http.MethodGet, "/api/search/tasks", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := api.do(http.MethodGet, "/api/search/tasks?q=milk", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestServer(t)
	api.do(http.MethodGet, "/api/auth/status", nil)

	w, _ := api.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
