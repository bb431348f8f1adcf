package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-be/internal/apperr"
	"github.com/taskhive/taskhive-be/internal/models"
)

// TaskQuery holds the sanitized filters for a task find operation.
type TaskQuery struct {
	List   string
	Author string
	Skip   int
	Limit  int
}

// TaskInput carries the client-controlled fields for task creation.
type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Flag        *int       `json:"flag"`
	List        string     `json:"list"`
}

// TaskPatch carries the mutable task fields. Nil means "leave unchanged".
// The owning list is immutable and deliberately absent.
type TaskPatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Flag        *int       `json:"flag"`
}

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	CreateTask(authorID string, input TaskInput) (models.Task, error)
	GetTaskByID(id string) (models.Task, error)
	FindTasks(q TaskQuery) (models.Page[models.Task], error)
	PatchTask(id, actorID string, patch TaskPatch) (models.Task, error)
	DeleteTask(id, actorID string) (models.Task, error)
	FindOverdueTasks(now time.Time) ([]models.Task, error)
}

// TaskService provides business logic for tasks. Authorization for every
// mutation flows through the owning list's author/editor set.
type TaskService struct {
	db     *sql.DB
	lists  ListServiceProvider
	events EventServiceProvider
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sql.DB, lists ListServiceProvider, events EventServiceProvider) *TaskService {
	return &TaskService{db: db, lists: lists, events: events}
}

func scanTask(scanner interface{ Scan(...any) error }) (models.Task, error) {
	var task models.Task
	var deadline sql.NullString
	var createdAt string
	err := scanner.Scan(
		&task.ID, &task.Title, &task.Description, &deadline,
		&task.Flag, &task.Author, &task.List, &createdAt,
	)
	if err != nil {
		return task, err
	}
	if deadline.Valid {
		t := parseTime(deadline.String)
		task.Deadline = &t
	}
	task.CreatedAt = parseTime(createdAt)
	return task, nil
}

// CreateTask creates a task on a list the caller may edit. The task author is
// forced to the authenticated identity; it is informational only and grants
// no rights of its own.
func (s *TaskService) CreateTask(authorID string, input TaskInput) (models.Task, error) {
	if input.Title == "" || len(input.Title) > 128 {
		return models.Task{}, apperr.New(apperr.CodeBadRequest, "task title must be 1-128 characters")
	}
	if input.List == "" {
		return models.Task{}, apperr.New(apperr.CodeBadRequest, "task requires a list")
	}
	if !validID(input.List) {
		return models.Task{}, apperr.New(apperr.CodeBadRequest, "invalid list id")
	}

	flag := models.FlagTodo
	if input.Flag != nil {
		if !models.ValidFlag(*input.Flag) {
			return models.Task{}, apperr.New(apperr.CodeBadRequest, "flag value must be a number from 0 to 3")
		}
		flag = *input.Flag
	}

	// Resolves the list and applies the author-or-editor rule; a missing
	// list surfaces as NotFound here.
	if err := s.lists.AuthorizeEditor(input.List, authorID); err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		Deadline:    input.Deadline,
		Flag:        flag,
		Author:      authorID,
		List:        input.List,
		CreatedAt:   time.Now().UTC(),
	}

	var deadline any
	if task.Deadline != nil {
		deadline = formatTime(*task.Deadline)
	}

	_, err := s.db.Exec(
		"INSERT INTO tasks(id, title, description, deadline, flag, author, list_id, created_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?)",
		task.ID, task.Title, task.Description, deadline, task.Flag, task.Author, task.List, formatTime(task.CreatedAt),
	)
	if err != nil {
		return models.Task{}, apperr.Internal(err)
	}

	s.events.RecordEvent("task.created", "info", "Task \""+task.Title+"\" created", &task.List)
	return task, nil
}

// GetTaskByID retrieves a single task by its ID.
func (s *TaskService) GetTaskByID(id string) (models.Task, error) {
	if !validID(id) {
		return models.Task{}, apperr.New(apperr.CodeBadRequest, "invalid task id")
	}

	row := s.db.QueryRow(
		"SELECT id, title, description, deadline, flag, author, list_id, created_at FROM tasks WHERE id = ?", id,
	)
	task, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Task{}, apperr.New(apperr.CodeNotFound, "task not found")
		}
		return models.Task{}, apperr.Internal(err)
	}
	return task, nil
}

// FindTasks returns a page of tasks matching the sanitized query.
func (s *TaskService) FindTasks(q TaskQuery) (models.Page[models.Task], error) {
	page := models.Page[models.Task]{Data: []models.Task{}}
	page.Limit = normalizeLimit(q.Limit)
	page.Skip = q.Skip
	if page.Skip < 0 {
		page.Skip = 0
	}

	where := " WHERE 1=1"
	args := []any{}
	if q.List != "" {
		if !validID(q.List) {
			return page, apperr.New(apperr.CodeBadRequest, "invalid list filter")
		}
		where += " AND list_id = ?"
		args = append(args, q.List)
	}
	if q.Author != "" {
		if !validID(q.Author) {
			return page, apperr.New(apperr.CodeBadRequest, "invalid author filter")
		}
		where += " AND author = ?"
		args = append(args, q.Author)
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM tasks"+where, args...).Scan(&page.Total); err != nil {
		return page, apperr.Internal(err)
	}

	rows, err := s.db.Query(
		"SELECT id, title, description, deadline, flag, author, list_id, created_at FROM tasks"+where+" ORDER BY created_at LIMIT ? OFFSET ?",
		append(args, page.Limit, page.Skip)...,
	)
	if err != nil {
		return page, apperr.Internal(err)
	}
	defer rows.Close()

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return page, apperr.Internal(err)
		}
		page.Data = append(page.Data, task)
	}
	if err := rows.Err(); err != nil {
		return page, apperr.Internal(err)
	}
	return page, nil
}

// PatchTask updates the mutable task fields. Authorization resolves the
// owning list from the stored task, never from client input.
func (s *TaskService) PatchTask(id, actorID string, patch TaskPatch) (models.Task, error) {
	task, err := s.GetTaskByID(id)
	if err != nil {
		return models.Task{}, err
	}

	if err := s.lists.AuthorizeEditor(task.List, actorID); err != nil {
		return models.Task{}, err
	}

	if patch.Title != nil {
		if *patch.Title == "" || len(*patch.Title) > 128 {
			return models.Task{}, apperr.New(apperr.CodeBadRequest, "task title must be 1-128 characters")
		}
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Deadline != nil {
		task.Deadline = patch.Deadline
	}
	if patch.Flag != nil {
		if !models.ValidFlag(*patch.Flag) {
			return models.Task{}, apperr.New(apperr.CodeBadRequest, "flag value must be a number from 0 to 3")
		}
		task.Flag = *patch.Flag
	}

	var deadline any
	if task.Deadline != nil {
		deadline = formatTime(*task.Deadline)
	}

	_, err = s.db.Exec(
		"UPDATE tasks SET title = ?, description = ?, deadline = ?, flag = ? WHERE id = ?",
		task.Title, task.Description, deadline, task.Flag, task.ID,
	)
	if err != nil {
		return models.Task{}, apperr.Internal(err)
	}

	s.events.RecordEvent("task.updated", "info", "Task \""+task.Title+"\" updated", &task.List)
	return task, nil
}

// DeleteTask removes a task, gated by the owning list's author/editor set.
func (s *TaskService) DeleteTask(id, actorID string) (models.Task, error) {
	task, err := s.GetTaskByID(id)
	if err != nil {
		return models.Task{}, err
	}

	if err := s.lists.AuthorizeEditor(task.List, actorID); err != nil {
		return models.Task{}, err
	}

	if _, err := s.db.Exec("DELETE FROM tasks WHERE id = ?", id); err != nil {
		return models.Task{}, apperr.Internal(err)
	}

	s.events.RecordEvent("task.deleted", "info", "Task \""+task.Title+"\" deleted", &task.List)
	return task, nil
}

// FindOverdueTasks returns unfinished tasks whose deadline has passed.
func (s *TaskService) FindOverdueTasks(now time.Time) ([]models.Task, error) {
	rows, err := s.db.Query(
		"SELECT id, title, description, deadline, flag, author, list_id, created_at FROM tasks WHERE deadline IS NOT NULL AND deadline < ? AND flag IN (?, ?)",
		formatTime(now), models.FlagTodo, models.FlagCurrent,
	)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return tasks, nil
}
