package storage

import (
	"context"
	"strings"
	"testing"
)

func TestNewStoreMemory(t *testing.T) {
	for _, kind := range []string{"", "memory"} {
		store, err := NewStore(kind, "")
		if err != nil {
			t.Fatalf("new %q store: %v", kind, err)
		}
		if _, ok := store.(*MemoryStore); !ok {
			t.Fatalf("expected memory store for %q, got %T", kind, store)
		}
		if err := CloseIfSupported(store); err != nil {
			t.Fatalf("close memory store: %v", err)
		}
	}
}

func TestNewStoreUnsupported(t *testing.T) {
	_, err := NewStore("unknown", "")
	if err == nil {
		t.Fatal("expected unsupported store error")
	}
}

func TestDefaultStoreKindIsConstructible(t *testing.T) {
	store, err := NewStore(DefaultStoreKind(), t.TempDir()+"/annlab.db")
	if err != nil {
		t.Fatalf("new default store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init default store: %v", err)
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b || !strings.HasPrefix(a, "run-") || len(a) != len("run-")+36 {
		t.Fatalf("unexpected run ids: %q %q", a, b)
	}
}
