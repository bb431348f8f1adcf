package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-be/internal/apperr"
	"github.com/taskhive/taskhive-be/internal/models"
)

// ListQuery holds the sanitized filters for a list find operation. Only these
// fields ever reach storage; any other client-supplied filter is dropped
// before a ListQuery is built.
type ListQuery struct {
	ID     string
	Author string
	Editor string
	Skip   int
	Limit  int
}

// ListPatch carries the mutable list fields. Nil means "leave unchanged".
type ListPatch struct {
	Name    *string  `json:"name"`
	Editors []string `json:"editors"`
}

// ListServiceProvider defines the interface for list services.
type ListServiceProvider interface {
	CreateList(authorID, name string, editors []string) (models.List, error)
	GetListByID(id string) (models.List, error)
	FindLists(q ListQuery) (models.Page[models.List], error)
	PatchList(id, actorID string, patch ListPatch) (models.List, error)
	DeleteList(id, actorID string) (models.List, error)
	AuthorizeEditor(listID, userID string) error
}

// ListService provides business logic for shared lists.
type ListService struct {
	db     *sql.DB
	events EventServiceProvider
}

// NewListService creates a new ListService.
func NewListService(db *sql.DB, events EventServiceProvider) *ListService {
	return &ListService{db: db, events: events}
}

// scanList reads a list row including the editors JSON column.
func scanList(scanner interface{ Scan(...any) error }) (models.List, error) {
	var list models.List
	var createdAt string
	if err := scanner.Scan(&list.ID, &list.Name, &list.Author, &list.EditorsJSON, &createdAt); err != nil {
		return list, err
	}
	list.CreatedAt = parseTime(createdAt)
	list.PrepareForAPI()
	return list, nil
}

// coerceEditors validates every editor identifier. Malformed IDs are a client
// error, not a server fault.
func coerceEditors(editors []string) ([]string, error) {
	if editors == nil {
		return []string{}, nil
	}
	coerced := make([]string, 0, len(editors))
	for _, editor := range editors {
		parsed, err := uuid.Parse(editor)
		if err != nil {
			return nil, apperr.Newf(apperr.CodeBadRequest, "%q is not a valid user id", editor)
		}
		coerced = append(coerced, parsed.String())
	}
	return coerced, nil
}

// CreateList creates a list owned by the authenticated user. The author is
// always the caller; a client-supplied author is never consulted.
func (s *ListService) CreateList(authorID, name string, editors []string) (models.List, error) {
	if name == "" || len(name) > 64 {
		return models.List{}, apperr.New(apperr.CodeBadRequest, "list name must be 1-64 characters")
	}

	coerced, err := coerceEditors(editors)
	if err != nil {
		return models.List{}, err
	}

	list := models.List{
		ID:        uuid.New().String(),
		Name:      name,
		Author:    authorID,
		Editors:   coerced,
		CreatedAt: time.Now().UTC(),
	}
	list.PrepareForSave()

	_, err = s.db.Exec(
		"INSERT INTO lists(id, name, author, editors_json, created_at) VALUES(?, ?, ?, ?, ?)",
		list.ID, list.Name, list.Author, list.EditorsJSON, formatTime(list.CreatedAt),
	)
	if err != nil {
		return models.List{}, apperr.Internal(err)
	}

	s.events.RecordEvent("list.created", "info", "List \""+list.Name+"\" created", &list.ID)
	return list, nil
}

// GetListByID retrieves a single list by its ID.
func (s *ListService) GetListByID(id string) (models.List, error) {
	if !validID(id) {
		return models.List{}, apperr.New(apperr.CodeBadRequest, "invalid list id")
	}

	row := s.db.QueryRow("SELECT id, name, author, editors_json, created_at FROM lists WHERE id = ?", id)
	list, err := scanList(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.List{}, apperr.New(apperr.CodeNotFound, "list not found")
		}
		return models.List{}, apperr.Internal(err)
	}
	return list, nil
}

// FindLists returns a page of lists matching the sanitized query.
func (s *ListService) FindLists(q ListQuery) (models.Page[models.List], error) {
	page := models.Page[models.List]{Data: []models.List{}}
	page.Limit = normalizeLimit(q.Limit)
	page.Skip = q.Skip
	if page.Skip < 0 {
		page.Skip = 0
	}

	where := " WHERE 1=1"
	args := []any{}
	if q.ID != "" {
		if !validID(q.ID) {
			return page, apperr.New(apperr.CodeBadRequest, "invalid list id filter")
		}
		where += " AND id = ?"
		args = append(args, q.ID)
	}
	if q.Author != "" {
		if !validID(q.Author) {
			return page, apperr.New(apperr.CodeBadRequest, "invalid author filter")
		}
		where += " AND author = ?"
		args = append(args, q.Author)
	}
	if q.Editor != "" {
		if !validID(q.Editor) {
			return page, apperr.New(apperr.CodeBadRequest, "invalid editor filter")
		}
		// Editors live in a JSON array column; match the quoted element.
		where += " AND editors_json LIKE ?"
		args = append(args, "%\""+q.Editor+"\"%")
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM lists"+where, args...).Scan(&page.Total); err != nil {
		return page, apperr.Internal(err)
	}

	rows, err := s.db.Query(
		"SELECT id, name, author, editors_json, created_at FROM lists"+where+" ORDER BY created_at LIMIT ? OFFSET ?",
		append(args, page.Limit, page.Skip)...,
	)
	if err != nil {
		return page, apperr.Internal(err)
	}
	defer rows.Close()

	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return page, apperr.Internal(err)
		}
		page.Data = append(page.Data, list)
	}
	if err := rows.Err(); err != nil {
		return page, apperr.Internal(err)
	}
	return page, nil
}

// PatchList updates name and/or editors. The author field is never mutable.
func (s *ListService) PatchList(id, actorID string, patch ListPatch) (models.List, error) {
	if err := s.AuthorizeEditor(id, actorID); err != nil {
		return models.List{}, err
	}

	list, err := s.GetListByID(id)
	if err != nil {
		return models.List{}, err
	}

	if patch.Name != nil {
		if *patch.Name == "" || len(*patch.Name) > 64 {
			return models.List{}, apperr.New(apperr.CodeBadRequest, "list name must be 1-64 characters")
		}
		list.Name = *patch.Name
	}
	if patch.Editors != nil {
		coerced, err := coerceEditors(patch.Editors)
		if err != nil {
			return models.List{}, err
		}
		list.Editors = coerced
	}
	list.PrepareForSave()

	_, err = s.db.Exec(
		"UPDATE lists SET name = ?, editors_json = ? WHERE id = ?",
		list.Name, list.EditorsJSON, list.ID,
	)
	if err != nil {
		return models.List{}, apperr.Internal(err)
	}

	s.events.RecordEvent("list.updated", "info", "List \""+list.Name+"\" updated", &list.ID)
	return list, nil
}

// DeleteList removes a list. Dependent tasks are cascade-deleted by the
// foreign key. Returns the removed record, matching the other operations.
func (s *ListService) DeleteList(id, actorID string) (models.List, error) {
	if err := s.AuthorizeEditor(id, actorID); err != nil {
		return models.List{}, err
	}

	list, err := s.GetListByID(id)
	if err != nil {
		return models.List{}, err
	}

	if _, err := s.db.Exec("DELETE FROM lists WHERE id = ?", id); err != nil {
		return models.List{}, apperr.Internal(err)
	}

	s.events.RecordEvent("list.deleted", "info", "List \""+list.Name+"\" deleted", &list.ID)
	return list, nil
}

// AuthorizeEditor succeeds when userID is the list's author or one of its
// editors. The check is re-derived on every call; nothing is cached.
func (s *ListService) AuthorizeEditor(listID, userID string) error {
	list, err := s.GetListByID(listID)
	if err != nil {
		return err
	}
	if list.Author == userID || list.HasEditor(userID) {
		return nil
	}
	return apperr.New(apperr.CodeForbidden, "not authorized to edit this list")
}
