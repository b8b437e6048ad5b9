package persona

import "strings"

type Emotion string

const (
	Neutral Emotion = "neutral"
	Excited Emotion = "excited"
	Sad     Emotion = "sad"
)

var (
	sadWords = []string{
		"tragedi", "tragis", "mengenaskan", "berduka", "peristiwa menyedihkan",
		"jatuhnya korban", "pemberontakan", "pertempuran berdarah",
	}
	excitedWords = []string{
		"hebat", "seru", "menakjubkan", "keren", "ayo", "yuk", "luar biasa",
		"jelajahi", "lihat", "tentu!", "sama-sama!", "mantap", "senang",
	}
)

// DetectEmotion classifies an answer by keywords. Sad wins over excited.
func DetectEmotion(text string) Emotion {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, sadWords):
		return Sad
	case containsAny(lower, excitedWords):
		return Excited
	default:
		return Neutral
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Prosody is the voice setting for an emotion. Pitch is in semitones.
type Prosody struct {
	Pitch        float64
	SpeakingRate float64
}

func (e Emotion) Prosody() Prosody {
	switch e {
	case Excited:
		return Prosody{Pitch: 2.0, SpeakingRate: 1.2}
	case Sad:
		return Prosody{Pitch: 0, SpeakingRate: 1.0}
	default:
		return Prosody{Pitch: 1.5, SpeakingRate: 1.1}
	}
}
