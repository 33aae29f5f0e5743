package registry

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestOpenMissingFileIsEmpty(t *testing.T) {
	registry, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if entries := registry.List(); len(entries) != 0 {
		t.Fatalf("expected empty registry, got %#v", entries)
	}
}

func TestSetGetList(t *testing.T) {
	stateDir := t.TempDir()
	registry, err := Open(stateDir, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := registry.Set("alpha", "frontend worker"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := registry.Set("beta", "db migrator"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if descriptor, ok := registry.Get("alpha"); !ok || descriptor != "frontend worker" {
		t.Fatalf("get alpha = %q, %v", descriptor, ok)
	}
	expected := []Entry{
		{Session: "alpha", Descriptor: "frontend worker"},
		{Session: "beta", Descriptor: "db migrator"},
	}
	if !reflect.DeepEqual(registry.List(), expected) {
		t.Fatalf("unexpected list %#v", registry.List())
	}
}

func TestSetPersistsAcrossOpens(t *testing.T) {
	stateDir := t.TempDir()
	first, err := Open(stateDir, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Set("alpha", "planner"); err != nil {
		t.Fatalf("set: %v", err)
	}

	second, err := Open(stateDir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if descriptor, ok := second.Get("alpha"); !ok || descriptor != "planner" {
		t.Fatalf("expected persisted descriptor, got %q, %v", descriptor, ok)
	}
}

func TestSetEmptyDescriptorDeletes(t *testing.T) {
	registry, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := registry.Set("alpha", "temp"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := registry.Set("alpha", ""); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if _, ok := registry.Get("alpha"); ok {
		t.Fatalf("expected descriptor removed")
	}
}

func TestSetRequiresSession(t *testing.T) {
	registry, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := registry.Set("  ", "x"); err == nil {
		t.Fatalf("expected error for blank session")
	}
}

func TestWatchPicksUpExternalWrites(t *testing.T) {
	stateDir := t.TempDir()
	registry, err := Open(stateDir, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := registry.Watch(); err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer registry.Close()

	path := filepath.Join(stateDir, "descriptors.yaml")
	if err := os.WriteFile(path, []byte("gamma: reviewer\n"), 0o644); err != nil {
		t.Fatalf("external write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if descriptor, ok := registry.Get("gamma"); ok && descriptor == "reviewer" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("external write never observed")
}
