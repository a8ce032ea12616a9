package database

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T, maxRowBytes int) *KVStore {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := RunMigrations(db); err != nil {
		t.Fatal(err)
	}

	return NewKVStore(db, maxRowBytes)
}

func TestRunMigrations(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	status, err := RunMigrations(db)
	if err != nil {
		t.Fatal(err)
	}
	if status.Version != 2 || !status.Applied {
		t.Errorf("Expected migrations applied up to version 2, got %+v", status)
	}

	// Running again is a no-op
	status, err = RunMigrations(db)
	if err != nil {
		t.Fatalf("Expected repeated migration to succeed, got %v", err)
	}
	if status.Applied || status.Version != 2 {
		t.Errorf("Expected nothing to apply at version 2, got %+v", status)
	}
}

func TestRunMigrationsRefusesDirtyDatabase(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := RunMigrations(db); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE schema_migrations SET dirty = 1"); err != nil {
		t.Fatal(err)
	}

	if _, err := RunMigrations(db); err == nil {
		t.Error("Expected dirty database to be refused")
	}
}

func TestKVStoreSetGet(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Errorf("Expected missing key to be absent, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "grouped_posts", []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "grouped_posts", []byte(`{"a":2}`)); err != nil {
		t.Fatal(err)
	}

	value, ok, err := store.Get(ctx, "grouped_posts")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Expected key to be present")
	}
	if !bytes.Equal(value, []byte(`{"a":2}`)) {
		t.Errorf("Expected last write to win, got %s", value)
	}
}

func TestKVStoreDelete(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()

	if err := store.Set(ctx, "favorites", []byte("[]")); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "favorites"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(ctx, "favorites"); ok {
		t.Error("Expected key to be deleted")
	}

	if err := store.Delete(ctx, "never_set"); err != nil {
		t.Errorf("Expected deleting a missing key to succeed, got %v", err)
	}
}

func TestKVStoreRowTooBig(t *testing.T) {
	store := openTestStore(t, 16)
	ctx := context.Background()

	if err := store.Set(ctx, "daily_circles", []byte("small")); err != nil {
		t.Fatal(err)
	}

	err := store.Set(ctx, "daily_circles", bytes.Repeat([]byte("x"), 17))
	if !errors.Is(err, ErrRowTooBig) {
		t.Fatalf("Expected ErrRowTooBig, got %v", err)
	}

	value, ok, _ := store.Get(ctx, "daily_circles")
	if !ok || string(value) != "small" {
		t.Errorf("Expected previous value to survive a rejected write, got %q", value)
	}
}
