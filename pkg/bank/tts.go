package bank

import (
	"fmt"
	"math/rand"
	"strings"
)

// TTSSetting names the speech engine and voice used to render a question's
// audio.
type TTSSetting struct {
	Engine string `json:"engine"`
	Voice  string `json:"voice"`
}

type voiceKey struct {
	accent string
	sex    string
}

// ttsVoices maps (accent, sex) to the candidate engine voices. Multiple
// candidates are chosen between at random.
var ttsVoices = map[voiceKey][]TTSSetting{
	{"am", "man"}:   {{"google", "en-US-Neural2-C"}, {"aws", "Matthew"}},
	{"am", "woman"}: {{"google", "en-US-Neural2-E"}, {"aws", "Joanna"}},
	{"cn", "man"}:   {{"google", "zh-CN-Neural2-A"}, {"aws", "Zhiyu"}},
	{"cn", "woman"}: {{"google", "zh-CN-Neural2-C"}, {"aws", "Zhiyu"}},
	{"br", "man"}:   {{"google", "pt-BR-Neural2-B"}, {"aws", "Vitoria"}},
	{"br", "woman"}: {{"google", "pt-BR-Neural2-A"}, {"aws", "Vitoria"}},
	{"au", "man"}:   {{"google", "en-AU-Neural2-B"}, {"aws", "Russell"}},
	{"au", "woman"}: {{"google", "en-AU-Neural2-D"}, {"aws", "Nicole"}},
}

// LookupTTS resolves the voice settings for an accent and sex pair. When
// several voices match, one is chosen at random.
func LookupTTS(accent, sex string, rng *rand.Rand) (TTSSetting, error) {
	if accent == "" || sex == "" {
		return TTSSetting{}, fmt.Errorf("invalid accent or sex: accent=%q sex=%q", accent, sex)
	}

	key := voiceKey{
		accent: strings.ToLower(strings.TrimSpace(accent)),
		sex:    strings.ToLower(strings.TrimSpace(sex)),
	}
	options, ok := ttsVoices[key]
	if !ok {
		return TTSSetting{}, fmt.Errorf("no TTS settings for accent=%q sex=%q", key.accent, key.sex)
	}

	return options[rng.Intn(len(options))], nil
}
