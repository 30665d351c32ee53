package translation

import (
	"testing"

	"github.com/hanyuwei/petbabel/server/domain/entities"
)

func TestTranslateCatWarning(t *testing.T) {
	result := Translate(entities.SpeciesCat, "警告")

	if !result.HasTranslation {
		t.Fatal("Expected cat 警告 to translate")
	}
	if result.TargetSpecies != entities.SpeciesDog {
		t.Errorf("Expected target species dog, got %s", result.TargetSpecies)
	}
	if result.TargetEmotion != "警告" {
		t.Errorf("Expected target emotion 警告, got %s", result.TargetEmotion)
	}
	if result.AudioAsset != "狗_警告.m4a" {
		t.Errorf("Expected asset 狗_警告.m4a, got %s", result.AudioAsset)
	}
}

func TestTranslateManyToOneCollapse(t *testing.T) {
	// Cat's 委屈 folds onto the dog's 哀求 clip.
	result := Translate(entities.SpeciesCat, "委屈")
	if !result.HasTranslation {
		t.Fatal("Expected cat 委屈 to translate")
	}
	if result.TargetEmotion != "哀求" {
		t.Errorf("Expected target emotion 哀求, got %s", result.TargetEmotion)
	}
	if result.AudioAsset != "狗_哀求.m4a" {
		t.Errorf("Expected asset 狗_哀求.m4a, got %s", result.AudioAsset)
	}

	// 求救 folds onto the same dog emotion.
	other := Translate(entities.SpeciesCat, "求救")
	if !other.HasTranslation || other.TargetEmotion != "哀求" {
		t.Errorf("Expected cat 求救 to also fold to 哀求, got %+v", other)
	}
}

func TestTranslateDogBegging(t *testing.T) {
	result := Translate(entities.SpeciesDog, "哀求")
	if !result.HasTranslation {
		t.Fatal("Expected dog 哀求 to translate")
	}
	if result.TargetSpecies != entities.SpeciesCat {
		t.Errorf("Expected target species cat, got %s", result.TargetSpecies)
	}
	if result.TargetEmotion != "委屈" {
		t.Errorf("Expected target emotion 委屈, got %s", result.TargetEmotion)
	}
	if result.AudioAsset != "猫_委屈.m4a" {
		t.Errorf("Expected asset 猫_委屈.m4a, got %s", result.AudioAsset)
	}
}

func TestTranslateUnknownEmotion(t *testing.T) {
	for _, emotion := range []entities.EmotionLabel{"", "开心到飞起", "warning", "not-a-label"} {
		result := Translate(entities.SpeciesCat, emotion)
		if result.HasTranslation {
			t.Errorf("Expected no translation for cat %q, got %+v", emotion, result)
		}
		if result.TargetEmotion != "" || result.AudioAsset != "" {
			t.Errorf("Expected empty target fields for cat %q, got %+v", emotion, result)
		}
	}
}

func TestTranslateInvalidSpecies(t *testing.T) {
	result := Translate(entities.Species("hamster"), "警告")
	if result.HasTranslation {
		t.Errorf("Expected no translation for unknown species, got %+v", result)
	}
}

func TestTranslateDogEmotionUnknownToCat(t *testing.T) {
	// A dog emotion outside the dog_to_cat table must not translate even
	// though cats could express it.
	result := Translate(entities.SpeciesDog, "委屈")
	if result.HasTranslation {
		t.Errorf("Expected no translation for dog 委屈, got %+v", result)
	}
}

func TestCanTranslateMatchesTranslate(t *testing.T) {
	emotions := []entities.EmotionLabel{
		"警告", "委屈", "求救", "撒娇", "哀求", "无聊", "好吃", "", "unknown",
	}
	for _, species := range []entities.Species{entities.SpeciesCat, entities.SpeciesDog} {
		for _, emotion := range emotions {
			want := Translate(species, emotion).HasTranslation
			if got := CanTranslate(species, emotion); got != want {
				t.Errorf("CanTranslate(%s, %s) = %v, Translate reports %v", species, emotion, got, want)
			}
		}
	}
}

func TestEveryMappedEmotionIsPlayable(t *testing.T) {
	// Every target the curated tables name must have a recorded clip;
	// otherwise the content tables have drifted apart.
	for emotion := range catToDog {
		if !CanTranslate(entities.SpeciesCat, emotion) {
			t.Errorf("cat %s maps to a dog emotion without a clip", emotion)
		}
	}
	for emotion := range dogToCat {
		if !CanTranslate(entities.SpeciesDog, emotion) {
			t.Errorf("dog %s maps to a cat emotion without a clip", emotion)
		}
	}
}

func TestAvailableEmotions(t *testing.T) {
	cat := AvailableEmotions(entities.SpeciesCat)
	if len(cat) != 18 {
		t.Errorf("Expected 18 cat emotions, got %d", len(cat))
	}

	dog := AvailableEmotions(entities.SpeciesDog)
	if len(dog) != 7 {
		t.Errorf("Expected 7 dog emotions, got %d", len(dog))
	}

	// Stable across calls: pure function of static data.
	again := AvailableEmotions(entities.SpeciesCat)
	if len(again) != len(cat) {
		t.Fatalf("Expected stable result, got %d then %d entries", len(cat), len(again))
	}
	for i := range cat {
		if cat[i] != again[i] {
			t.Errorf("Expected stable ordering, index %d: %s vs %s", i, cat[i], again[i])
		}
	}

	if AvailableEmotions(entities.Species("bird")) != nil {
		t.Error("Expected nil for unknown species")
	}
}

func TestNormalizeLabel(t *testing.T) {
	cases := []struct {
		raw  string
		want entities.EmotionLabel
	}{
		{"warning", "警告"},
		{"grieved", "委屈"},
		{"begging", "哀求"},
		{"acting_cute", "撒娇"},
		{"hungry", "饿了"},
		{"excited_hunting", "兴奋捕猎"},
		// Unknown labels pass through unchanged.
		{"zoomies", "zoomies"},
		{"", ""},
		{"警告", "警告"},
	}

	for _, tc := range cases {
		if got := NormalizeLabel(tc.raw); got != tc.want {
			t.Errorf("NormalizeLabel(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeTableIsFlat(t *testing.T) {
	// The source data this table was authored from defined some keys more
	// than once; here each key must resolve to exactly one value, with
	// shared labels meaning the last-authored value won.
	seen := make(map[entities.EmotionLabel]bool)
	for raw, display := range rawToDisplay {
		if display == "" {
			t.Errorf("Empty display label for raw %q", raw)
		}
		seen[display] = true
	}
	if len(rawToDisplay) != 19 {
		t.Errorf("Expected 19 raw labels, got %d", len(rawToDisplay))
	}
}

func TestRoundTripNotGuaranteed(t *testing.T) {
	// 委屈 -> 哀求 -> 委屈 happens to round-trip, but e.g. 打招呼 -> 撒娇
	// -> 撒娇 does not return to 打招呼. Only the specific pair is asserted.
	first := Translate(entities.SpeciesCat, "委屈")
	back := Translate(entities.SpeciesDog, first.TargetEmotion)
	if back.TargetEmotion != "委屈" {
		t.Errorf("Expected 委屈/哀求 pair to round-trip, got %s", back.TargetEmotion)
	}

	folded := Translate(entities.SpeciesCat, "打招呼")
	again := Translate(entities.SpeciesDog, folded.TargetEmotion)
	if again.TargetEmotion == "打招呼" {
		t.Error("Did not expect a folded emotion to round-trip")
	}
}

func TestAssetFor(t *testing.T) {
	asset, ok := AssetFor(entities.SpeciesCat, "警告")
	if !ok || asset != "猫_警告.m4a" {
		t.Errorf("Expected 猫_警告.m4a, got %q (ok=%v)", asset, ok)
	}

	if _, ok := AssetFor(entities.SpeciesDog, "委屈"); ok {
		t.Error("Dog has no 委屈 clip")
	}
}
