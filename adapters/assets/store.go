// Package assets resolves audio asset refs against the on-disk inventory of
// pre-recorded vocalization clips.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hanyuwei/petbabel/server/domain/entities"
	"github.com/hanyuwei/petbabel/server/domain/repositories"
)

const (
	catDirName = "Catvoice"
	dogDirName = "Dogvoice"
)

// DirStore serves clips out of a voice directory with one subdirectory per
// species. Refs are bare filenames; anything that resolves outside the
// species directory is rejected.
type DirStore struct {
	root   string
	logger *zap.Logger
}

var _ repositories.AudioAssetStore = (*DirStore)(nil)

// NewDirStore creates a store rooted at dir. The directory must exist.
func NewDirStore(dir string, logger *zap.Logger) (*DirStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("voice directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("voice path %s is not a directory", dir)
	}

	return &DirStore{root: dir, logger: logger}, nil
}

// NewDirStoreFromEnv reads VOICE_DIR, defaulting to ./voice.
func NewDirStoreFromEnv(logger *zap.Logger) (*DirStore, error) {
	dir := os.Getenv("VOICE_DIR")
	if dir == "" {
		dir = "voice"
		logger.Info("Using default voice directory", zap.String("dir", dir))
	}
	return NewDirStore(dir, logger)
}

func speciesDir(species entities.Species) (string, error) {
	switch species {
	case entities.SpeciesCat:
		return catDirName, nil
	case entities.SpeciesDog:
		return dogDirName, nil
	default:
		return "", fmt.Errorf("unknown species %q", species)
	}
}

// Resolve returns the absolute on-disk path for the asset.
func (s *DirStore) Resolve(species entities.Species, ref entities.AudioAssetRef) (string, error) {
	name := string(ref)
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", repositories.ErrAssetNotFound
	}

	dir, err := speciesDir(species)
	if err != nil {
		return "", repositories.ErrAssetNotFound
	}

	path := filepath.Join(s.root, dir, name)

	// Containment check: the cleaned path must stay inside the species dir.
	base := filepath.Join(s.root, dir) + string(filepath.Separator)
	if !strings.HasPrefix(path, base) {
		return "", repositories.ErrAssetNotFound
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", repositories.ErrAssetNotFound
	}

	return path, nil
}

// Exists reports whether the asset resolves without returning the path.
func (s *DirStore) Exists(species entities.Species, ref entities.AudioAssetRef) bool {
	_, err := s.Resolve(species, ref)
	return err == nil
}
