package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hanyuwei/petbabel/server/domain/entities"
	"github.com/hanyuwei/petbabel/server/domain/repositories"
)

func setupVoiceDir(t *testing.T) *DirStore {
	t.Helper()
	root := t.TempDir()
	for _, sub := range []string{"Catvoice", "Dogvoice"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range []string{"Catvoice/猫_警告.m4a", "Dogvoice/狗_警告.m4a", "Dogvoice/狗_哀求.m4a"} {
		if err := os.WriteFile(filepath.Join(root, f), []byte("m4a"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	store, err := NewDirStore(root, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDirStore failed: %v", err)
	}
	return store
}

func TestResolveExistingAsset(t *testing.T) {
	store := setupVoiceDir(t)

	path, err := store.Resolve(entities.SpeciesDog, "狗_警告.m4a")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if filepath.Base(path) != "狗_警告.m4a" {
		t.Errorf("Unexpected path %s", path)
	}
	if !store.Exists(entities.SpeciesDog, "狗_警告.m4a") {
		t.Error("Exists should report true for a resolvable asset")
	}
}

func TestResolveMissingAsset(t *testing.T) {
	store := setupVoiceDir(t)

	_, err := store.Resolve(entities.SpeciesCat, "猫_不存在.m4a")
	if !errors.Is(err, repositories.ErrAssetNotFound) {
		t.Errorf("Expected ErrAssetNotFound, got %v", err)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	store := setupVoiceDir(t)

	for _, ref := range []entities.AudioAssetRef{
		"../Catvoice/猫_警告.m4a",
		"..",
		"sub/clip.m4a",
		"",
	} {
		if _, err := store.Resolve(entities.SpeciesDog, ref); !errors.Is(err, repositories.ErrAssetNotFound) {
			t.Errorf("Ref %q: expected ErrAssetNotFound, got %v", ref, err)
		}
	}
}

func TestResolveUnknownSpecies(t *testing.T) {
	store := setupVoiceDir(t)
	if _, err := store.Resolve(entities.Species("fox"), "狗_警告.m4a"); !errors.Is(err, repositories.ErrAssetNotFound) {
		t.Errorf("Expected ErrAssetNotFound, got %v", err)
	}
}

func TestNewDirStoreMissingRoot(t *testing.T) {
	if _, err := NewDirStore(filepath.Join(t.TempDir(), "nope"), zap.NewNop()); err == nil {
		t.Error("Expected error for missing voice directory")
	}
}
