package vbucket

import (
	"path/filepath"
	"testing"
)

func TestSnapshotStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSnapshotStore(filepath.Join(dir, "vbmap.db"))
	if err != nil {
		t.Fatalf("OpenSnapshotStore: %v", err)
	}
	defer store.Close()

	m := Map{
		Revision: Revision{Rev: 7, RevEpoch: 1},
		Nodes:    []NodeEntry{{Hostname: "node1.local", KVPort: 11210}},
		VBuckets: []VBucketEntry{{Primary: 0, Replicas: []int{-1}}},
	}

	if err := store.Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("Load: expected ok=true after Save")
	}
	if got.Revision != m.Revision {
		t.Errorf("Revision = %+v, want %+v", got.Revision, m.Revision)
	}
	if len(got.Nodes) != 1 || got.Nodes[0].Hostname != "node1.local" {
		t.Errorf("Nodes = %+v", got.Nodes)
	}
}

func TestSnapshotStoreLoadEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSnapshotStore(filepath.Join(dir, "vbmap.db"))
	if err != nil {
		t.Fatalf("OpenSnapshotStore: %v", err)
	}
	defer store.Close()

	_, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("Load: expected ok=false on an empty store")
	}
}

func TestSnapshotStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vbmap.db")

	store, err := OpenSnapshotStore(path)
	if err != nil {
		t.Fatalf("OpenSnapshotStore: %v", err)
	}
	m := Map{Revision: Revision{Rev: 3}, Nodes: []NodeEntry{{Hostname: "a"}}}
	if err := store.Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenSnapshotStore(path)
	if err != nil {
		t.Fatalf("reopen OpenSnapshotStore: %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Load()
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if !ok || got.Revision.Rev != 3 {
		t.Errorf("Load after reopen = %+v, ok=%v", got, ok)
	}
}
