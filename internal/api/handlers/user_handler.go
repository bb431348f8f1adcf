package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive-be/internal/apperr"
	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/models"
	"github.com/taskhive/taskhive-be/internal/services"
)

// UserHandler handles HTTP requests for user accounts and authentication.
type UserHandler struct {
	service services.UserServiceProvider
	tokens  *auth.TokenManager
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens *auth.TokenManager) *UserHandler {
	return &UserHandler{service: service, tokens: tokens}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthPayload defines the structure for authentication requests. The strategy
// selects between a username/password check and re-presenting a valid token.
type AuthPayload struct {
	Strategy    string `json:"strategy"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	AccessToken string `json:"accessToken"`
}

// Register handles new user registration. This is the only unauthenticated
// user operation.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, apperr.New(apperr.CodeBadRequest, "invalid request body"))
		return
	}

	user, err := h.service.CreateUser(payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Authenticate handles the authentication endpoint: verifies credentials or
// an existing token and responds with a signed access token plus the user.
func (h *UserHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, apperr.New(apperr.CodeBadRequest, "invalid request body"))
		return
	}

	user, err := h.resolveUser(payload)
	if err != nil {
		log.Warn().Err(err).Str("strategy", payload.Strategy).Msg("Failed authentication attempt")
		writeError(w, r, err)
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		writeError(w, r, apperr.Internal(err))
		return
	}

	// Set Secure flag based on environment.
	isProd := os.Getenv("APP_ENV") == "production"
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken": token,
		"authentication": map[string]string{
			"strategy": payload.Strategy,
		},
		"user": user,
	})
}

func (h *UserHandler) resolveUser(payload AuthPayload) (models.User, error) {
	switch payload.Strategy {
	case "local":
		return h.service.Authenticate(payload.Username, payload.Password)
	case "jwt":
		claims, err := h.tokens.Validate(payload.AccessToken)
		if err != nil {
			return models.User{}, apperr.New(apperr.CodeNotAuthenticated, "invalid access token")
		}
		return h.service.GetUserByID(claims.UserID)
	default:
		return models.User{}, apperr.New(apperr.CodeNotAuthenticated, "unknown authentication strategy")
	}
}

// GetMe retrieves the currently authenticated user from the token.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.CodeNotAuthenticated, "no authenticated user"))
		return
	}

	user, err := h.service.GetUserByID(claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.service.GetUserByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Find handles listing users. Only the username filter and pagination
// parameters are honored.
func (h *UserHandler) Find(w http.ResponseWriter, r *http.Request) {
	skip, limit := paginationParams(r)
	page, err := h.service.FindUsers(services.UserQuery{
		Username: r.URL.Query().Get("username"),
		Skip:     skip,
		Limit:    limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}
