package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-be/internal/api"
	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/database"
	"github.com/taskhive/taskhive-be/internal/services"
	"github.com/taskhive/taskhive-be/internal/websocket"
)

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "api_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	hub := websocket.NewHub()
	go hub.Run()

	tokens := auth.NewTokenManager("api-test-secret", time.Hour)
	eventService := services.NewEventService(db, hub)
	userService := services.NewUserService(db, eventService)
	listService := services.NewListService(db, eventService)
	taskService := services.NewTaskService(db, listService, eventService)

	return api.NewRouter(hub, tokens, userService, listService, taskService, eventService, "http://localhost:3000")
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// registerAndLogin creates a user over HTTP and returns its id and a token.
func registerAndLogin(t *testing.T, router http.Handler, username string) (string, string) {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/users", "", map[string]string{
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	userID := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/authentication", "", map[string]string{
		"strategy": "local",
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decodeBody(t, rec)["accessToken"].(string)
	require.NotEmpty(t, token)

	return userID, token
}

func TestRegistration(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/users", "", map[string]string{
		"username": "alice",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "secret123")

	// Same username again
	rec = doJSON(t, router, http.MethodPost, "/api/v1/users", "", map[string]string{
		"username": "alice",
		"password": "other456",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Too-short username
	rec = doJSON(t, router, http.MethodPost, "/api/v1/users", "", map[string]string{
		"username": "al",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthentication(t *testing.T) {
	router := setupRouter(t)
	registerAndLogin(t, router, "bob")

	// Wrong password
	rec := doJSON(t, router, http.MethodPost, "/api/v1/authentication", "", map[string]string{
		"strategy": "local",
		"username": "bob",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Unknown strategy
	rec = doJSON(t, router, http.MethodPost, "/api/v1/authentication", "", map[string]string{
		"strategy": "oauth",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthentication_JWTStrategy(t *testing.T) {
	router := setupRouter(t)
	userID, token := registerAndLogin(t, router, "carol")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/authentication", "", map[string]string{
		"strategy":    "jwt",
		"accessToken": token,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["accessToken"])
	assert.Equal(t, userID, body["user"].(map[string]any)["id"])
}

func TestProtectedRoutes_RequireAuth(t *testing.T) {
	router := setupRouter(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/users"},
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/lists"},
		{http.MethodGet, "/api/v1/tasks"},
		{http.MethodGet, "/api/v1/events"},
		{http.MethodGet, "/api/v1/system/stats"},
	} {
		rec := doJSON(t, router, tc.method, tc.path, "", nil)
		assert.Equalf(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestListLifecycleOverHTTP(t *testing.T) {
	router := setupRouter(t)
	userA, tokenA := registerAndLogin(t, router, "dave")
	userB, tokenB := registerAndLogin(t, router, "erin")

	// Create
	rec := doJSON(t, router, http.MethodPost, "/api/v1/lists", tokenA, map[string]any{
		"name":   "Groceries",
		"author": userB, // must be ignored
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	listID := created["id"].(string)
	assert.Equal(t, userA, created["author"], "client-supplied author is ignored")

	// Public read
	rec = doJSON(t, router, http.MethodGet, "/api/v1/lists/"+listID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Malformed id
	rec = doJSON(t, router, http.MethodGet, "/api/v1/lists/not-an-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// B cannot patch yet
	rec = doJSON(t, router, http.MethodPatch, "/api/v1/lists/"+listID, tokenB, map[string]any{
		"name": "Groceries v2",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A grants B editor rights
	rec = doJSON(t, router, http.MethodPatch, "/api/v1/lists/"+listID, tokenA, map[string]any{
		"editors": []string{userB},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Now B can rename
	rec = doJSON(t, router, http.MethodPatch, "/api/v1/lists/"+listID, tokenB, map[string]any{
		"name": "Groceries v2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Groceries v2", decodeBody(t, rec)["name"])

	// Find by author returns the page envelope
	rec = doJSON(t, router, http.MethodGet, "/api/v1/lists?author="+userA, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody(t, rec)
	assert.Equal(t, float64(1), page["total"])

	// Delete, then the list is gone
	rec = doJSON(t, router, http.MethodDelete, "/api/v1/lists/"+listID, tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodGet, "/api/v1/lists/"+listID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	router := setupRouter(t)
	_, tokenA := registerAndLogin(t, router, "frank")
	userB, tokenB := registerAndLogin(t, router, "grace")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/lists", tokenA, map[string]any{"name": "Work"})
	require.Equal(t, http.StatusCreated, rec.Code)
	listID := decodeBody(t, rec)["id"].(string)

	// B is not an editor yet
	rec = doJSON(t, router, http.MethodPost, "/api/v1/tasks", tokenB, map[string]any{
		"title": "Sneaky task",
		"list":  listID,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Invalid flag
	rec = doJSON(t, router, http.MethodPost, "/api/v1/tasks", tokenA, map[string]any{
		"title": "Bad flag",
		"list":  listID,
		"flag":  9,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A creates a task; flag defaults to 0
	rec = doJSON(t, router, http.MethodPost, "/api/v1/tasks", tokenA, map[string]any{
		"title": "Buy milk",
		"list":  listID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decodeBody(t, rec)
	taskID := task["id"].(string)
	assert.Equal(t, float64(0), task["flag"])

	// Task reads are public by id
	rec = doJSON(t, router, http.MethodGet, "/api/v1/tasks/"+taskID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A adds B as editor; B's task creation now succeeds with author=B
	rec = doJSON(t, router, http.MethodPatch, "/api/v1/lists/"+listID, tokenA, map[string]any{
		"editors": []string{userB},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/tasks", tokenB, map[string]any{
		"title": "Buy eggs",
		"list":  listID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, userB, decodeBody(t, rec)["author"])

	// B can mutate A's task through list-level rights
	rec = doJSON(t, router, http.MethodPatch, "/api/v1/tasks/"+taskID, tokenB, map[string]any{"flag": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decodeBody(t, rec)["flag"])

	// Delete then fetch -> 404
	rec = doJSON(t, router, http.MethodDelete, "/api/v1/tasks/"+taskID, tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodGet, "/api/v1/tasks/"+taskID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsersMe(t *testing.T) {
	router := setupRouter(t)
	userID, token := registerAndLogin(t, router, "heidi")

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, userID, body["id"])
	assert.Equal(t, "heidi", body["username"])
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestEventsFeed(t *testing.T) {
	router := setupRouter(t)
	_, token := registerAndLogin(t, router, "ivan")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/lists", token, map[string]any{"name": "Audited"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/events", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "list.created")
	assert.Contains(t, rec.Body.String(), "user.registered")
}
