package services

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-be/internal/database"
	"github.com/taskhive/taskhive-be/internal/models"
)

// setupTestDB creates a migrated sqlite database in a temp dir.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type testEnv struct {
	db     *sql.DB
	events *EventService
	users  *UserService
	lists  *ListService
	tasks  *TaskService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	events := NewEventService(db, nil)
	lists := NewListService(db, events)
	return &testEnv{
		db:     db,
		events: events,
		users:  NewUserService(db, events),
		lists:  lists,
		tasks:  NewTaskService(db, lists, events),
	}
}

var testUserSeq int

func createTestUser(t *testing.T, env *testEnv) models.User {
	t.Helper()

	testUserSeq++
	user, err := env.users.CreateUser(fmt.Sprintf("test_user_%d", testUserSeq), "notimportant")
	require.NoError(t, err)
	return user
}

func createTestList(t *testing.T, env *testEnv, author models.User, name string, editors []string) models.List {
	t.Helper()

	list, err := env.lists.CreateList(author.ID, name, editors)
	require.NoError(t, err)
	return list
}
