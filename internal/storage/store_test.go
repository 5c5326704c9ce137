package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// storeFactories returns every backend that can run without external services.
func storeFactories(t *testing.T) map[string]func() SessionStore {
	return map[string]func() SessionStore{
		"memory": func() SessionStore {
			return NewMemoryStore()
		},
		"sqlite": func() SessionStore {
			s, err := OpenSQLite(context.Background(), ":memory:")
			if err != nil {
				t.Fatalf("failed to open sqlite store: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
		"redis": func() SessionStore {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			s := NewRedisStore(client, "test")
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

// TestSessionStore_SetGetDelete verifies the basic key/value contract.
//
// Green-Flag: stored values are returned unchanged and can be removed.
func TestSessionStore_SetGetDelete(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			ctx := context.Background()

			if err := s.Set(ctx, KeyToken, []byte("abc.def")); err != nil {
				t.Fatalf("set failed: %v", err)
			}
			got, err := s.Get(ctx, KeyToken)
			if err != nil {
				t.Fatalf("get failed: %v", err)
			}
			if string(got) != "abc.def" {
				t.Errorf("expected 'abc.def', got '%s'", got)
			}

			// Overwrite
			if err := s.Set(ctx, KeyToken, []byte("xyz")); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}
			got, _ = s.Get(ctx, KeyToken)
			if string(got) != "xyz" {
				t.Errorf("expected 'xyz' after overwrite, got '%s'", got)
			}

			if err := s.Delete(ctx, KeyToken); err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			if _, err := s.Get(ctx, KeyToken); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
			}
		})
	}
}

// TestSessionStore_DeleteAbsentKey verifies that deleting a missing key is not an error.
func TestSessionStore_DeleteAbsentKey(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			if err := newStore().Delete(context.Background(), "missing"); err != nil {
				t.Errorf("expected no error deleting absent key, got %v", err)
			}
		})
	}
}

// TestSessionStore_CommitAppliesPutsAndDeletes verifies batch semantics.
//
// Green-Flag: a committed batch leaves puts visible and deletes gone.
func TestSessionStore_CommitAppliesPutsAndDeletes(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			ctx := context.Background()

			if err := s.Set(ctx, KeyCart, []byte(`[{"ProductID":"1"}]`)); err != nil {
				t.Fatalf("set failed: %v", err)
			}

			batch := NewBatch().Put(KeyOrder, []byte(`{"status":"Pending"}`)).Delete(KeyCart)
			if err := s.Commit(ctx, *batch); err != nil {
				t.Fatalf("commit failed: %v", err)
			}

			if _, err := s.Get(ctx, KeyCart); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("expected cart deleted, got %v", err)
			}
			order, err := s.Get(ctx, KeyOrder)
			if err != nil {
				t.Fatalf("expected order written, got %v", err)
			}
			if string(order) != `{"status":"Pending"}` {
				t.Errorf("unexpected order value: %s", order)
			}
		})
	}
}

// TestSessionStore_JSONHelpers verifies LoadJSON/SaveJSON round trip and absence.
func TestSessionStore_JSONHelpers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var v map[string]int
	found, err := LoadJSON(ctx, s, "counts", &v)
	if err != nil || found {
		t.Fatalf("expected not found without error, got found=%v err=%v", found, err)
	}

	if err := SaveJSON(ctx, s, "counts", map[string]int{"a": 1}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	found, err = LoadJSON(ctx, s, "counts", &v)
	if err != nil || !found {
		t.Fatalf("expected found, got found=%v err=%v", found, err)
	}
	if v["a"] != 1 {
		t.Errorf("expected a=1, got %v", v)
	}
}

// TestMemoryStore_RejectsWritesOnPersistenceFailure verifies the failure switch
// leaves state untouched.
//
// Red-Flag: a failed commit must not apply part of the batch.
func TestMemoryStore_RejectsWritesOnPersistenceFailure(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Set(ctx, KeyCart, []byte("[]"))

	s.SetPersistenceFailure(true)
	err := s.Commit(ctx, *NewBatch().Put(KeyOrder, []byte("{}")).Delete(KeyCart))
	if err == nil {
		t.Fatal("expected commit to fail")
	}

	keys := s.Keys()
	sort.Strings(keys)
	if len(keys) != 1 || keys[0] != KeyCart {
		t.Errorf("expected only cart to remain, got %v", keys)
	}
	if s.Commits() != 0 {
		t.Errorf("expected 0 commits, got %d", s.Commits())
	}
}

// TestMemoryStore_ContextCancelled verifies cancelled contexts are rejected.
func TestMemoryStore_ContextCancelled(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Set(ctx, KeyToken, []byte("t")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// TestSQLStore_SurvivesReopen verifies the SQLite file keeps state across opens,
// the way the browser's storage survives a reload.
func TestSQLStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	s1, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := s1.Set(ctx, KeyCart, []byte(`[{"ProductID":"7","Quantity":2}]`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	s1.Close()

	s2, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get(ctx, KeyCart)
	if err != nil {
		t.Fatalf("get after reopen failed: %v", err)
	}
	if string(got) != `[{"ProductID":"7","Quantity":2}]` {
		t.Errorf("unexpected cart after reopen: %s", got)
	}
}

// TestMigrationRunner_Idempotent verifies migrations are recorded and not re-applied.
func TestMigrationRunner_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer s.Close()

	runner := NewMigrationRunner(s.DB())
	if err := runner.Run(ctx); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	applied, err := runner.Applied(ctx)
	if err != nil {
		t.Fatalf("applied failed: %v", err)
	}
	if len(applied) != 2 || applied[0] != "000001" || applied[1] != "000002" {
		t.Errorf("expected versions [000001 000002], got %v", applied)
	}
}
