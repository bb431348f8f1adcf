package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-be/internal/models"
)

func testUser() models.User {
	return models.User{ID: "2f6b4a9e-1f30-4c2a-9a57-0f6a1f1e2d3c", Username: "alice"}
}

func TestTokenManager_Roundtrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, err := tm.Generate(testUser())
	require.NoError(t, err)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, testUser().ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	token, err := tm.Generate(testUser())
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Generate(testUser())
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.Error(t, err)
}

func TestMiddleware_BindsClaims(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	token, err := tm.Generate(testUser())
	require.NoError(t, err)

	var seen *Claims
	handler := tm.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, testUser().ID, seen.UserID)
}

func TestMiddleware_CookieFallback(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	token, err := tm.Generate(testUser())
	require.NoError(t, err)

	handler := tm.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_Rejections(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	handler := tm.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without valid auth")
	}))

	// No token at all
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
