// Package rag indexes reference material per history topic and retrieves
// the passages that ground Nathan's answers.
//
// Every topic has its own collection. Ingesting a document replaces the
// topic's collection, so re-running an ingest is safe.
package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	log "log/slog"

	"github.com/philippgille/chromem-go"
)

const (
	ChunkSize    = 1000
	ChunkOverlap = 100
	// DefaultK is how many passages a retrieval returns.
	DefaultK = 5

	addConcurrency = 4
)

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Store struct {
	db       *chromem.DB
	embedder Embedder
	splitter Splitter
	k        int
}

// Open loads the store persisted in dir, creating it when missing. An empty
// dir keeps everything in memory.
func Open(dir string, embedder Embedder, k int) (*Store, error) {
	if k <= 0 {
		k = DefaultK
	}

	db := chromem.NewDB()
	if dir != "" {
		var err error
		if db, err = chromem.NewPersistentDB(dir, true); err != nil {
			return nil, fmt.Errorf("open vector store %s: %w", dir, err)
		}
	}

	return &Store{
		db:       db,
		embedder: embedder,
		splitter: Splitter{Size: ChunkSize, Overlap: ChunkOverlap},
		k:        k,
	}, nil
}

// CollectionName maps a topic keyword to its collection.
func CollectionName(topic string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(topic)), " ", "_")
}

// embed is the query side of the collection. Vectors are unit length so
// the store's dot product is the cosine similarity.
func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	v, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(v) != 1 {
		return nil, fmt.Errorf("embeddings: got %d vectors for 1 input", len(v))
	}
	return normalize(v[0]), nil
}

// Ingest chunks pages and stores them as the topic's collection. It returns
// the number of chunks stored.
func (s *Store) Ingest(ctx context.Context, topic, source string, pages []Page) (int, error) {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))

	var docs []chromem.Document
	for _, p := range pages {
		for i, chunk := range s.splitter.Split(p.Text) {
			docs = append(docs, chromem.Document{
				ID:      fmt.Sprintf("%s-p%d-%d", base, p.Number, i),
				Content: chunk,
				Metadata: map[string]string{
					"source": filepath.Base(source),
					"page":   strconv.Itoa(p.Number),
				},
			})
		}
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("no text in %s", source)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(docs) {
		return 0, fmt.Errorf("embeddings: got %d vectors for %d chunks", len(vectors), len(docs))
	}
	for i := range docs {
		docs[i].Embedding = normalize(vectors[i])
	}

	name := CollectionName(topic)
	if err := s.db.DeleteCollection(name); err != nil {
		return 0, fmt.Errorf("drop collection %s: %w", name, err)
	}
	col, err := s.db.CreateCollection(name, map[string]string{"source": filepath.Base(source)}, s.embed)
	if err != nil {
		return 0, fmt.Errorf("create collection %s: %w", name, err)
	}
	if err := col.AddDocuments(ctx, docs, addConcurrency); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}

	log.Debug("topic indexed", "topic", topic, "source", source, "chunks", len(docs))
	return len(docs), nil
}

// IngestPDF reads a PDF and ingests its pages for topic.
func (s *Store) IngestPDF(ctx context.Context, topic, path string) (int, error) {
	pages, err := ReadPDF(path)
	if err != nil {
		return 0, err
	}
	return s.Ingest(ctx, topic, path, pages)
}

// Count is the number of chunks stored for topic.
func (s *Store) Count(topic string) int {
	col := s.db.GetCollection(CollectionName(topic), s.embed)
	if col == nil {
		return 0
	}
	return col.Count()
}

// Retrieve returns up to k passages of topic most similar to query, best
// first. A topic that was never ingested has no passages.
func (s *Store) Retrieve(ctx context.Context, topic, query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("empty query")
	}

	col := s.db.GetCollection(CollectionName(topic), s.embed)
	if col == nil || col.Count() == 0 {
		return nil, nil
	}

	results, err := col.Query(ctx, query, min(s.k, col.Count()), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", topic, err)
	}

	passages := make([]string, len(results))
	for i, r := range results {
		passages[i] = r.Content
	}
	return passages, nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(1 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * norm
	}
	return out
}
