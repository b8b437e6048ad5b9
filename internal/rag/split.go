package rag

import (
	"strings"
	"unicode/utf8"
)

// Splitter cuts text into chunks of at most Size runes. Neighbouring chunks
// share up to Overlap runes. Paragraph breaks are preferred, then line
// breaks, then spaces, then any rune.
type Splitter struct {
	Size    int
	Overlap int
}

var separators = []string{"\n\n", "\n", " ", ""}

func (s Splitter) Split(text string) []string {
	if s.Size <= 0 {
		return nil
	}
	return s.split(text, separators)
}

func (s Splitter) split(text string, seps []string) []string {
	sep, rest := "", []string(nil)
	for i, c := range seps {
		if c == "" || strings.Contains(text, c) {
			sep, rest = c, seps[i+1:]
			break
		}
	}

	var out, small []string
	for _, piece := range strings.Split(text, sep) {
		if piece == "" {
			continue
		}
		if utf8.RuneCountInString(piece) < s.Size {
			small = append(small, piece)
			continue
		}

		if len(small) > 0 {
			out = append(out, s.merge(small, sep)...)
			small = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, s.split(piece, rest)...)
		}
	}
	if len(small) > 0 {
		out = append(out, s.merge(small, sep)...)
	}
	return out
}

// merge joins pieces with sep into chunks no longer than Size, carrying the
// tail of each chunk into the next one.
func (s Splitter) merge(pieces []string, sep string) []string {
	sepLen := utf8.RuneCountInString(sep)

	var (
		chunks []string
		cur    []string
		total  int
	)
	joined := func(n int) int {
		if len(cur) > 0 {
			return total + n + sepLen
		}
		return total + n
	}
	emit := func() {
		if c := strings.TrimSpace(strings.Join(cur, sep)); c != "" {
			chunks = append(chunks, c)
		}
	}

	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if joined(n) > s.Size && len(cur) > 0 {
			emit()
			for total > s.Overlap || (joined(n) > s.Size && total > 0) {
				total -= utf8.RuneCountInString(cur[0])
				if len(cur) > 1 {
					total -= sepLen
				}
				cur = cur[1:]
			}
		}
		total = joined(n)
		cur = append(cur, p)
	}
	emit()

	return chunks
}
