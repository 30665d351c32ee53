package translation

import "github.com/hanyuwei/petbabel/server/domain/entities"

// The tables below are curated content, not derived data. The cross-species
// relations are intentionally many-to-one and asymmetric: the recorded-clip
// inventory is small, so several cat emotions fold onto one dog emotion.
// Changing them is a content decision, not a code change.

// rawToDisplay converts the classifier's English label vocabulary to the
// display vocabulary the rest of the system (and the asset filenames) use.
// One value per key; unknown raw labels pass through unchanged.
var rawToDisplay = map[string]entities.EmotionLabel{
	"mating_call":     "求偶",
	"begging":         "哀求",
	"acting_cute":     "撒娇",
	"excited_hunting": "兴奋捕猎",
	"friendly_call":   "友好呼唤",
	"fighting":        "吵架",
	"enjoying_food":   "好吃",
	"grieved":         "委屈",
	"want_to_play":    "想玩耍",
	"greeting":        "打招呼",
	"fight_ready":     "打架预备",
	"bored":           "无聊",
	"help_call":       "求救",
	"satisfied":       "满足",
	"anxious":         "着急",
	"comfortable":     "舒服",
	"warning":         "警告",
	"go_away":         "走开",
	"hungry":          "饿了",
}

// catAudio maps each cat emotion that has a recorded clip to its asset ref.
var catAudio = map[entities.EmotionLabel]entities.AudioAssetRef{
	"兴奋捕猎": "猫_兴奋捕猎.m4a",
	"友好呼唤": "猫_友好呼唤.m4a",
	"吵架":   "猫_吵架.m4a",
	"好吃":   "猫_好吃.m4a",
	"委屈":   "猫_委屈.m4a",
	"想玩耍":  "猫_想玩耍.m4a",
	"打招呼":  "猫_打招呼.m4a",
	"打架预备": "猫_打架预备.m4a",
	"撒娇":   "猫_撒娇.m4a",
	"无聊":   "猫_无聊.m4a",
	"求偶":   "猫_求偶.m4a",
	"求救":   "猫_求救.m4a",
	"满足":   "猫_满足.m4a",
	"着急":   "猫_着急.m4a",
	"舒服":   "猫_舒服.m4a",
	"警告":   "猫_警告.m4a",
	"走开":   "猫_走开.m4a",
	"饿了":   "猫_饿了.m4a",
}

// dogAudio maps each dog emotion that has a recorded clip to its asset ref.
// The dog inventory is much smaller than the cat one.
var dogAudio = map[entities.EmotionLabel]entities.AudioAssetRef{
	"吵架": "狗_吵架.m4a",
	"哀求": "狗_哀求.m4a",
	"撒娇": "狗_撒娇.m4a",
	"求偶": "狗_求偶.m4a",
	"着急": "狗_着急.m4a",
	"警告": "狗_警告.m4a",
	"饿了": "狗_饿了.m4a",
}

// catToDog maps a cat emotion to its nearest dog equivalent. Many positive
// and social cat emotions collapse onto the dog's 撒娇 because that is the
// closest clip on record. Authored independently of dogToCat; applying one
// after the other need not round-trip.
var catToDog = map[entities.EmotionLabel]entities.EmotionLabel{
	"吵架":   "吵架",
	"撒娇":   "撒娇",
	"求偶":   "求偶",
	"着急":   "着急",
	"警告":   "警告",
	"饿了":   "饿了",
	"委屈":   "哀求",
	"求救":   "哀求",
	"友好呼唤": "撒娇",
	"打招呼":  "撒娇",
	"想玩耍":  "撒娇",
	"打架预备": "警告",
	"走开":   "警告",
	"兴奋捕猎": "撒娇",
	"好吃":   "撒娇",
	"满足":   "撒娇",
	"舒服":   "撒娇",
	"无聊":   "撒娇",
}

// dogToCat maps a dog emotion to its nearest cat equivalent.
var dogToCat = map[entities.EmotionLabel]entities.EmotionLabel{
	"吵架": "吵架",
	"撒娇": "撒娇",
	"求偶": "求偶",
	"着急": "着急",
	"警告": "警告",
	"饿了": "饿了",
	"哀求": "委屈",
}

func audioMapping(species entities.Species) map[entities.EmotionLabel]entities.AudioAssetRef {
	if species == entities.SpeciesCat {
		return catAudio
	}
	return dogAudio
}

func crossMapping(source entities.Species) map[entities.EmotionLabel]entities.EmotionLabel {
	if source == entities.SpeciesCat {
		return catToDog
	}
	return dogToCat
}
