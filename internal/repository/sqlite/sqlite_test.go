package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sakif/flashcards/internal/model"
)

// newTestDB opens a fresh, fully migrated database in the test's temp dir.
// A file is used instead of ":memory:" so WAL and foreign keys behave as in production.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a user so that rows referencing it satisfy the foreign keys.
func createTestUser(t *testing.T, db *DB, githubID int64, login string) *model.User {
	t.Helper()
	user := &model.User{
		GitHubID:  githubID,
		Login:     login,
		Email:     login + "@example.com",
		AvatarURL: "https://avatars.githubusercontent.com/u/123",
	}
	if err := db.Upsert(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestGeneration(t *testing.T, db *DB, userID, modelName string) *model.Generation {
	t.Helper()
	gen := &model.Generation{
		UserID:           userID,
		Model:            modelName,
		GeneratedCount:   5,
		SourceTextHash:   "0cc175b9c0f1b6a831c399e269772661",
		SourceTextLength: 1500,
		DurationMS:       120,
	}
	if err := db.CreateGeneration(context.Background(), gen); err != nil {
		t.Fatalf("failed to create test generation: %v", err)
	}
	return gen
}

func TestNew_MigrationsAreRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")

	first, err := New(context.Background(), path)
	if err != nil {
		t.Fatalf("first New() error = %v", err)
	}
	first.Close()

	second, err := New(context.Background(), path)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	defer second.Close()

	if err := second.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestNew_InMemory(t *testing.T) {
	db, err := New(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("New(:memory:) error = %v", err)
	}
	defer db.Close()

	user := createTestUser(t, db, 1, "memo")
	if _, err := db.GetUserByID(context.Background(), user.ID); err != nil {
		t.Errorf("GetUserByID() error = %v", err)
	}
}
