package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func newStore(t *testing.T) (*AssetStore, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultAvatarName), []byte{0x89, 'P', 'N', 'G'}, 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	store, err := NewAssetStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, dir
}

func TestDefaultAvatar(t *testing.T) {
	store, _ := newStore(t)
	data, err := store.DefaultAvatar()
	if err != nil {
		t.Fatalf("default avatar: %v", err)
	}
	if len(data) != 4 {
		t.Fatalf("avatar bytes = %v", data)
	}
}

func TestReadRejectsTraversal(t *testing.T) {
	store, _ := newStore(t)
	if _, err := store.Read("../outside.png"); err == nil {
		t.Fatalf("expected traversal rejection")
	}
	if _, err := store.Read(""); err == nil {
		t.Fatalf("expected empty key rejection")
	}
}

func TestReadMissingAsset(t *testing.T) {
	store, _ := newStore(t)
	if _, err := store.Read("nope.png"); err == nil {
		t.Fatalf("expected error for missing asset")
	}
}

func TestNewAssetStoreMissingDir(t *testing.T) {
	if _, err := NewAssetStore(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}
