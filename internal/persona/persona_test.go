package persona

import "testing"

func TestDetectEmotion(t *testing.T) {
	tests := []struct {
		text string
		want Emotion
	}{
		{"Peristiwa itu adalah tragedi besar.", Sad},
		{"Wah, itu HEBAT sekali!", Excited},
		{"Ayo kita lihat pertempuran berdarah di Surabaya.", Sad},
		{"Tentu! Konferensi itu terjadi tahun 1949.", Excited},
		{"Konferensi Meja Bundar diadakan di Den Haag.", Neutral},
		{"", Neutral},
	}

	for _, tt := range tests {
		if got := DetectEmotion(tt.text); got != tt.want {
			t.Errorf("DetectEmotion(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestProsody(t *testing.T) {
	tests := map[Emotion]Prosody{
		Excited: {2.0, 1.2},
		Sad:     {0, 1.0},
		Neutral: {1.5, 1.1},
	}
	for e, want := range tests {
		if got := e.Prosody(); got != want {
			t.Errorf("%s prosody = %+v, want %+v", e, got, want)
		}
	}
}

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		text  string
		want  string
		found bool
	}{
		{"Ceritakan tentang peristiwa Rengasdengklok dong", "Peristiwa Rengasdengklok", true},
		{"apa yang terjadi tanggal 10 Nopember?", "Peristiwa 10 Nopember", true},
		{"Konferensi Meja Bundar itu apa?", "Konferensi Meja Bundar", true},
		{"siapa presiden pertama?", "", false},
	}

	for _, tt := range tests {
		got, ok := MatchTopic(tt.text)
		if ok != tt.found || got.Title != tt.want {
			t.Errorf("MatchTopic(%q) = %q, %v", tt.text, got.Title, ok)
		}
	}
}

func TestQuestion(t *testing.T) {
	got := Question("Kapan KMB?", []string{"KMB tahun 1949.", "Di Den Haag."})
	want := "Pertanyaan: Kapan KMB?\n\nKonteks:\nKMB tahun 1949.\n\nDi Den Haag."
	if got != want {
		t.Errorf("Question = %q, want %q", got, want)
	}
}
