package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-be/internal/apperr"
	"github.com/taskhive/taskhive-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserQuery holds the sanitized filters for a user find operation.
type UserQuery struct {
	Username string
	Skip     int
	Limit    int
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(username, password string) (models.User, error)
	GetUserByID(id string) (models.User, error)
	FindUsers(q UserQuery) (models.Page[models.User], error)
	Authenticate(username, password string) (models.User, error)
}

// UserService provides business logic for user accounts.
type UserService struct {
	db     *sql.DB
	events EventServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, events EventServiceProvider) *UserService {
	return &UserService{db: db, events: events}
}

// CreateUser registers a new account. Usernames are unique; the pre-check
// gives a clean message and the UNIQUE index backstops concurrent
// registrations racing past it.
func (s *UserService) CreateUser(username, password string) (models.User, error) {
	if len(username) < 3 || len(username) > 64 {
		return models.User{}, apperr.New(apperr.CodeBadRequest, "username must be 3-64 characters")
	}
	if len(password) < 3 || len(password) > 64 {
		return models.User{}, apperr.New(apperr.CodeBadRequest, "password must be 3-64 characters")
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&count); err != nil {
		return models.User{}, apperr.Internal(err)
	}
	if count > 0 {
		return models.User{}, apperr.New(apperr.CodeConflict, "user with that username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.Exec(
		"INSERT INTO users(id, username, password_hash, created_at) VALUES(?, ?, ?, ?)",
		user.ID, user.Username, user.PasswordHash, formatTime(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, apperr.New(apperr.CodeConflict, "user with that username already exists")
		}
		return models.User{}, apperr.Internal(err)
	}

	s.events.RecordEvent("user.registered", "info", "User "+user.Username+" registered", nil)

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	if !validID(id) {
		return models.User{}, apperr.New(apperr.CodeBadRequest, "invalid user id")
	}

	var user models.User
	var createdAt string
	row := s.db.QueryRow("SELECT id, username, created_at FROM users WHERE id = ?", id)
	if err := row.Scan(&user.ID, &user.Username, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.New(apperr.CodeNotFound, "user not found")
		}
		return models.User{}, apperr.Internal(err)
	}
	user.CreatedAt = parseTime(createdAt)
	return user, nil
}

// FindUsers returns a page of users matching the sanitized query.
func (s *UserService) FindUsers(q UserQuery) (models.Page[models.User], error) {
	page := models.Page[models.User]{Data: []models.User{}}
	page.Limit = normalizeLimit(q.Limit)
	page.Skip = q.Skip
	if page.Skip < 0 {
		page.Skip = 0
	}

	where := ""
	args := []any{}
	if q.Username != "" {
		where = " WHERE username = ?"
		args = append(args, q.Username)
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM users"+where, args...).Scan(&page.Total); err != nil {
		return page, apperr.Internal(err)
	}

	rows, err := s.db.Query(
		"SELECT id, username, created_at FROM users"+where+" ORDER BY created_at LIMIT ? OFFSET ?",
		append(args, page.Limit, page.Skip)...,
	)
	if err != nil {
		return page, apperr.Internal(err)
	}
	defer rows.Close()

	for rows.Next() {
		var user models.User
		var createdAt string
		if err := rows.Scan(&user.ID, &user.Username, &createdAt); err != nil {
			return page, apperr.Internal(err)
		}
		user.CreatedAt = parseTime(createdAt)
		page.Data = append(page.Data, user)
	}
	if err := rows.Err(); err != nil {
		return page, apperr.Internal(err)
	}
	return page, nil
}

// Authenticate verifies a username/password pair against the stored hash.
func (s *UserService) Authenticate(username, password string) (models.User, error) {
	var user models.User
	var createdAt string
	row := s.db.QueryRow("SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username)
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.New(apperr.CodeNotAuthenticated, "invalid credentials")
		}
		return models.User{}, apperr.Internal(err)
	}
	user.CreatedAt = parseTime(createdAt)

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, apperr.New(apperr.CodeNotAuthenticated, "invalid credentials")
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}
