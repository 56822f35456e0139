package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"pill-tracker/internal/ports/docstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "data", "pill-tracker.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s := NewStore(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SetGetFind(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_ = s.Set(ctx, "schedules", "b", map[string]any{"username": "ana", "progress": 0})
	_ = s.Set(ctx, "schedules", "a", map[string]any{"username": "ana", "progress": 12.5})
	_ = s.Set(ctx, "schedules", "c", map[string]any{"username": "bob", "progress": 0})
	_ = s.Set(ctx, "users", "a", map[string]any{"username": "ana"})

	doc, err := s.Get(ctx, "schedules", "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Data["progress"] != 12.5 {
		t.Fatalf("unexpected data: %#v", doc.Data)
	}

	docs, err := s.Find(ctx, "schedules", docstore.Filter{Field: "username", Value: "ana"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "a" || docs[1].ID != "b" {
		t.Fatalf("expected [a b], got %#v", docs)
	}

	// Set reemplaza el documento completo.
	_ = s.Set(ctx, "schedules", "a", map[string]any{"username": "ana"})
	doc, _ = s.Get(ctx, "schedules", "a")
	if _, ok := doc.Data["progress"]; ok {
		t.Fatalf("Set must replace, got %#v", doc.Data)
	}

	if _, err := s.Get(ctx, "schedules", "zzz"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_ = s.Set(ctx, "schedules", "s1", map[string]any{"progress": 0, "title": "t"})

	err := s.Update(ctx, "schedules", "s1", map[string]any{"progress": 40.0},
		docstore.Precondition{Field: "progress", Equals: 10.0})
	if !errors.Is(err, docstore.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}

	if err := s.Update(ctx, "schedules", "s1", map[string]any{"progress": 40.0},
		docstore.Precondition{Field: "progress", Equals: 0.0}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	doc, _ := s.Get(ctx, "schedules", "s1")
	if doc.Data["progress"] != 40.0 || doc.Data["title"] != "t" {
		t.Fatalf("unexpected data after update: %#v", doc.Data)
	}

	if err := s.Update(ctx, "schedules", "missing", map[string]any{"x": 1}); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Delete(ctx, "schedules", "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "schedules", "s1"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Create(ctx, "usernames", "ana", map[string]any{"userId": "uid-1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, "usernames", "ana", map[string]any{"userId": "uid-2"}); !errors.Is(err, docstore.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	doc, err := s.Get(ctx, "usernames", "ana")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Data["userId"] != "uid-1" {
		t.Fatalf("existing document must be kept, got %#v", doc.Data)
	}

	// Mismo id en otra colección no choca.
	if err := s.Create(ctx, "users", "ana", map[string]any{"x": 1}); err != nil {
		t.Fatalf("Create in another collection: %v", err)
	}
}
