// Package conversation runs Nathan's listen, think and speak turns.
package conversation

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	log "log/slog"

	"github.com/google/uuid"

	"nathan/internal/llm"
	"nathan/internal/persona"
)

// DefaultHistory is how many exchanges are replayed to the model.
const DefaultHistory = 6

type Exchange struct {
	User      string
	Assistant string
}

func (e Exchange) String() string {
	return fmt.Sprintf("Pengguna: %s\n%s: %s", e.User, persona.Name, e.Assistant)
}

// Retriever finds reference passages about a topic.
type Retriever interface {
	Retrieve(ctx context.Context, topic, query string) ([]string, error)
}

// Session is the context of one conversation. It is safe for concurrent use.
type Session struct {
	ID string

	mu          sync.Mutex
	prompt      string
	history     *Ring[Exchange]
	topic       *persona.Topic
	retriever   Retriever
	historyPath string
}

// NewSession starts a conversation and truncates the history file, if any.
func NewSession(prompt string, capacity int, historyPath string) (*Session, error) {
	if capacity <= 0 {
		capacity = DefaultHistory
	}

	s := &Session{
		ID:          uuid.NewString(),
		prompt:      prompt,
		history:     NewRing[Exchange](capacity),
		historyPath: historyPath,
	}
	if err := s.writeHistory(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) SetTopic(t persona.Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topic = &t
}

// SetRetriever grounds later answers on passages about the chosen topic.
func (s *Session) SetRetriever(r Retriever) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retriever = r
}

func (s *Session) Topic() (persona.Topic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.topic == nil {
		return persona.Topic{}, false
	}
	return *s.topic, true
}

// Messages builds the request for the next answer: the prompt, the
// remembered exchanges and the new transcript. Once a topic is chosen the
// transcript is sent with the passages retrieved for it.
func (s *Session) Messages(ctx context.Context, transcript string) []llm.Message {
	s.mu.Lock()
	topic, retriever := s.topic, s.retriever
	s.mu.Unlock()

	var passages []string
	if topic != nil && retriever != nil {
		var err error
		passages, err = retriever.Retrieve(ctx, topic.Keyword, transcript)
		if err != nil {
			log.Warn("retrieval failed, answering without context", "topic", topic.Keyword, "err", err)
			passages = nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	system := s.prompt
	if topic != nil {
		system += "\n" + persona.TopicNote(*topic)
	}
	question := transcript
	if len(passages) > 0 {
		system += "\n" + persona.ContextNote
		question = persona.Question(transcript, passages)
	}

	past := s.history.Items()
	msgs := make([]llm.Message, 0, 2+2*len(past))
	msgs = append(msgs, llm.Message{Role: llm.System, Content: system})
	for _, e := range past {
		msgs = append(msgs,
			llm.Message{Role: llm.User, Content: e.User},
			llm.Message{Role: llm.Assistant, Content: e.Assistant},
		)
	}
	return append(msgs, llm.Message{Role: llm.User, Content: question})
}

// Record remembers an exchange and rewrites the history file.
func (s *Session) Record(e Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Push(e)
	return s.writeHistory()
}

func (s *Session) History() []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Items()
}

// Reset forgets the history and the topic.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Reset()
	s.topic = nil
	return s.writeHistory()
}

func (s *Session) writeHistory() error {
	if s.historyPath == "" {
		return nil
	}

	blocks := make([]string, 0, s.history.Len())
	for _, e := range s.history.Items() {
		blocks = append(blocks, e.String())
	}

	if err := os.WriteFile(s.historyPath, []byte(strings.Join(blocks, "\n\n")), 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
