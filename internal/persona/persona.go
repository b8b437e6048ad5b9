// Package persona holds Nathan's character: prompts, intro, topics and the
// emotion used to color his voice.
package persona

import (
	"fmt"
	"strings"
)

const Name = "Nathan"

const SystemPrompt = `Kamu adalah Nathan, seorang ahli sejarah Indonesia dengan kepribadian ceria, humoris dan penuh semangat. Kamu berbicara dengan nada ramah dan menarik, memberikan penjelasan singkat yang mudah dipahami. Jawabanmu harus singkat, maksimal 1-3 kalimat, tergantung kebutuhan.
Tunjukkan antusiasme dalam jawabanmu. Jika topik yang diberikan di luar sejarah Indonesia, ucapkan maaf.`

// Intro is SSML and goes to the synthesizer unchanged.
const Intro = `<speak>
<prosody rate="1.2" pitch="+2st">HALOO!!!</prosody>
<break time="200ms"/>
<prosody rate="1.2" pitch="+1.5st">Saya Nathan, <break time="300ms"/> teman diskusi kamu hari ini. Saya di sini untuk membantu kamu belajar tentang sejarah Indonesia. Kamu mau belajar tentang apa hari ini?</prosody>
</speak>`

type Topic struct {
	Keyword string
	Title   string
}

var Topics = []Topic{
	{Keyword: "rengasdengklok", Title: "Peristiwa Rengasdengklok"},
	{Keyword: "10 nopember", Title: "Peristiwa 10 Nopember"},
	{Keyword: "konferensi meja bundar", Title: "Konferensi Meja Bundar"},
}

// MatchTopic returns the first topic whose keyword occurs in text.
func MatchTopic(text string) (Topic, bool) {
	lower := strings.ToLower(text)
	for _, t := range Topics {
		if strings.Contains(lower, t.Keyword) {
			return t, true
		}
	}
	return Topic{}, false
}

// TopicNote is appended to the system prompt once a topic is chosen.
func TopicNote(t Topic) string {
	return fmt.Sprintf("Pengguna sedang mempelajari %s. Utamakan jawaban yang berkaitan dengan topik ini.", t.Title)
}

// ContextNote is appended to the system prompt when reference passages are
// attached to the question.
const ContextNote = "Kamu seorang guru sejarah. Jawablah pertanyaan yang diberikan sesuai konteks yang diberikan. Jawablah seringkas mungkin, namun jawaban terbatas pada maksimal 3 kalimat. Jika tidak ada data yang berkaitan dengan konteks di bawah, jawab dengan 'Saya tidak tahu'."

// Question wraps a transcript with the passages retrieved for it.
func Question(q string, passages []string) string {
	return fmt.Sprintf("Pertanyaan: %s\n\nKonteks:\n%s", q, strings.Join(passages, "\n\n"))
}
