package repositories

import (
	"errors"

	"github.com/hanyuwei/petbabel/server/domain/entities"
)

// ErrAssetNotFound is returned when no clip exists for the requested ref.
var ErrAssetNotFound = errors.New("audio asset not found")

// AudioAssetStore resolves asset refs to playable clips. Refs are bare
// filenames filed under a per-species directory; the store must reject any
// ref that escapes its directory.
type AudioAssetStore interface {
	// Resolve returns the on-disk path for the asset, or ErrAssetNotFound.
	Resolve(species entities.Species, ref entities.AudioAssetRef) (string, error)
	// Exists reports whether the asset is present without opening it.
	Exists(species entities.Species, ref entities.AudioAssetRef) bool
}
