package tts

import (
	"regexp"
	"strings"
)

const pause = `<break time="100ms"/>`

// particles gives the conversational particles their rising intonation.
var particles = map[string]string{
	"kan":   `<emphasis level="strong"><prosody pitch="+6st" rate="1.2">kan?</prosody></emphasis>` + pause,
	"lho":   `<prosody pitch="+3st" rate="0.8">lohh</prosody>` + pause,
	"bukan": `<prosody pitch="+4st" rate="1.2">bukan?</prosody>` + pause,
	"yuk":   `<prosody pitch="+6st" rate="1.2">yuk!</prosody>` + pause,
	"ya":    `<prosody pitch="+6st" rate="1.2">ya!</prosody>` + pause,
}

var (
	particleRe = regexp.MustCompile(`(?i), (kan|lho|bukan|yuk|ya)\b|\byuk, |\btentu!`)

	xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// ToSSML wraps plain text in <speak> with Nathan's intonation. Text that is
// already SSML is returned as is.
func ToSSML(text string) string {
	trimmed := strings.TrimSpace(text)
	if IsSSML(trimmed) {
		return trimmed
	}

	body := particleRe.ReplaceAllStringFunc(xmlEscaper.Replace(trimmed), func(m string) string {
		lower := strings.ToLower(m)
		switch {
		case lower == "tentu!":
			return `<prosody pitch="+2st" rate="1.2">tentu</prosody>` + pause
		case lower == "yuk, ":
			return `<prosody pitch="+6st" rate="1.2">yuk</prosody>` + pause
		default:
			return particles[strings.TrimPrefix(lower, ", ")]
		}
	})

	return "<speak>" + body + "</speak>"
}

func IsSSML(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "<speak>")
}
