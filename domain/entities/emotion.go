package entities

// Species identifies the animal a vocalization belongs to.
// The set is closed: only cats and dogs are supported.
type Species string

const (
	SpeciesCat Species = "cat"
	SpeciesDog Species = "dog"
)

// Valid reports whether the species is one of the supported values.
func (s Species) Valid() bool {
	return s == SpeciesCat || s == SpeciesDog
}

// Opposite returns the other species. The translation tables are authored
// strictly cat<->dog, so the target species is always the opposite one.
func (s Species) Opposite() Species {
	if s == SpeciesCat {
		return SpeciesDog
	}
	return SpeciesCat
}

// EmotionLabel is an opaque string tag naming an emotional/intent state.
// Each species has its own label space; the same surface string may appear
// in both spaces without meaning the same thing.
type EmotionLabel string

// AudioAssetRef locates a pre-recorded vocalization clip. It is a bare
// filename resolved by the audio asset store under a per-species directory.
type AudioAssetRef string

// TranslationResult is the outcome of a cross-species resolution query.
// HasTranslation is true only when both the cross-species emotion lookup and
// the target species' audio lookup succeeded; a semantic mapping without a
// recorded clip is not a translation.
type TranslationResult struct {
	TargetSpecies  Species       `json:"target_species,omitempty" bson:"target_species,omitempty"`
	TargetEmotion  EmotionLabel  `json:"target_emotion,omitempty" bson:"target_emotion,omitempty"`
	AudioAsset     AudioAssetRef `json:"audio_asset,omitempty" bson:"audio_asset,omitempty"`
	HasTranslation bool          `json:"has_translation" bson:"has_translation"`
}

// Detection is one completed classifier result, optionally paired with the
// translation that was resolved from it.
type Detection struct {
	Species     Species            `json:"species" bson:"species"`
	Emotion     EmotionLabel       `json:"emotion" bson:"emotion"`
	RawLabel    string             `json:"raw_label,omitempty" bson:"raw_label,omitempty"`
	Confidence  float64            `json:"confidence" bson:"confidence"`
	AllEmotions map[string]float64 `json:"all_emotions,omitempty" bson:"all_emotions,omitempty"`
	Translation TranslationResult  `json:"translation" bson:"translation"`
}
