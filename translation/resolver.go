// Package translation resolves one species' emotion label into the other
// species' nearest equivalent and the pre-recorded clip that expresses it.
// All tables are immutable after load; every function here is pure and safe
// for concurrent use without locking.
package translation

import (
	"sort"

	"github.com/hanyuwei/petbabel/server/domain/entities"
)

// Translate resolves a detected emotion into the opposite species' emotion
// and audio asset. Absence at either step is a normal outcome, never an
// error: HasTranslation is false if the emotion has no cross-species entry,
// or if the mapped target emotion has no recorded clip. Translatable means
// playable, not merely semantically mapped.
func Translate(source entities.Species, emotion entities.EmotionLabel) entities.TranslationResult {
	if !source.Valid() {
		return entities.TranslationResult{}
	}

	target, ok := crossMapping(source)[emotion]
	if !ok {
		return entities.TranslationResult{}
	}

	targetSpecies := source.Opposite()
	asset, ok := audioMapping(targetSpecies)[target]
	if !ok {
		return entities.TranslationResult{}
	}

	return entities.TranslationResult{
		TargetSpecies:  targetSpecies,
		TargetEmotion:  target,
		AudioAsset:     asset,
		HasTranslation: true,
	}
}

// CanTranslate reports whether Translate would succeed for the pair.
func CanTranslate(source entities.Species, emotion entities.EmotionLabel) bool {
	return Translate(source, emotion).HasTranslation
}

// AvailableEmotions returns every emotion the species can audibly express,
// i.e. the key set of its audio mapping, sorted for stable output. Whether a
// translation exists for any of them is a separate question.
func AvailableEmotions(species entities.Species) []entities.EmotionLabel {
	if !species.Valid() {
		return nil
	}

	mapping := audioMapping(species)
	emotions := make([]entities.EmotionLabel, 0, len(mapping))
	for emotion := range mapping {
		emotions = append(emotions, emotion)
	}
	sort.Slice(emotions, func(i, j int) bool { return emotions[i] < emotions[j] })
	return emotions
}

// AssetFor returns the recorded clip for a species expressing an emotion, if
// one exists.
func AssetFor(species entities.Species, emotion entities.EmotionLabel) (entities.AudioAssetRef, bool) {
	if !species.Valid() {
		return "", false
	}
	asset, ok := audioMapping(species)[emotion]
	return asset, ok
}

// NormalizeLabel converts a classifier's raw label into the display
// vocabulary. Unknown raw labels pass through unchanged.
func NormalizeLabel(raw string) entities.EmotionLabel {
	if display, ok := rawToDisplay[raw]; ok {
		return display
	}
	return entities.EmotionLabel(raw)
}
