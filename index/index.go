// Package index maintains a re-buildable, chunked embedding index of
// calendar events in a vector store and serves nearest-neighbor search.
package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"

	"github.com/chronos-hq/chronos-agent/eventfmt"
)

// Matches holds nearest-neighbor results for one query, index-aligned
// across all slices
type Matches struct {
	IDs       []string         `json:"ids"`
	Documents []string         `json:"documents"`
	Distances []float64        `json:"distances"`
	Metadatas []map[string]any `json:"metadatas"`
}

// VectorStore is the contract with the vector-store provider
type VectorStore interface {
	ListIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, ids []string) error
	Add(ctx context.Context, ids []string, documents []string, metadatas []map[string]any) error
	Query(ctx context.Context, queryText string, n int) (*Matches, error)
}

// SemanticIndex stores coarse multi-event paragraphs rather than one
// vector per event, trading per-event match precision for fewer, cheaper
// index entries. A match is therefore a paragraph describing up to
// chunkSize events and must be treated as advisory context, not an event
// identifier.
type SemanticIndex struct {
	store     VectorStore
	chunkSize int
	logger    *zap.Logger
	now       func() time.Time

	// Reindex deletes everything then re-adds; concurrent reindexes of the
	// same index must be serialized
	mu sync.Mutex
}

// New creates a semantic index over the given vector store
func New(store VectorStore, chunkSize int, logger *zap.Logger) *SemanticIndex {
	return &SemanticIndex{
		store:     store,
		chunkSize: chunkSize,
		logger:    logger,
		now:       time.Now,
	}
}

// Reindex fully rebuilds the chunk set: the existing chunks are deleted,
// events are regrouped into fixed-size chunks, each event is rendered to a
// one-paragraph description, and all chunks are inserted as a single
// batch. An event that fails to render is logged and skipped; a chunk
// whose every event fails to render is dropped.
func (s *SemanticIndex) Reindex(ctx context.Context, events []*calendar.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list existing chunks: %w", err)
	}
	if len(existing) > 0 {
		if err := s.store.Delete(ctx, existing); err != nil {
			return fmt.Errorf("failed to clear existing chunks: %w", err)
		}
		s.logger.Info("cleared existing chunks from collection",
			zap.String("component", "semantic-index"),
			zap.Int("chunkCount", len(existing)))
	}

	dateStamp := s.now().Format("20060102")

	var ids []string
	var documents []string
	var metadatas []map[string]any

	for i := 0; i < len(events); i += s.chunkSize {
		end := i + s.chunkSize
		if end > len(events) {
			end = len(events)
		}
		chunk := events[i:end]

		rendered := make([]string, 0, len(chunk))
		for _, event := range chunk {
			text := eventfmt.Stringify(event)
			if text == "" {
				s.logger.Warn("skipping event that failed to render",
					zap.String("component", "semantic-index"))
				continue
			}
			rendered = append(rendered, text)
		}
		if len(rendered) == 0 {
			continue
		}

		chunkIndex := i / s.chunkSize
		ids = append(ids, fmt.Sprintf("chunk_%d", chunkIndex))
		documents = append(documents, joinDocuments(rendered))
		metadatas = append(metadatas, map[string]any{
			"idx":  chunkIndex,
			"size": len(chunk),
			"ts":   dateStamp,
		})
	}

	if len(documents) > 0 {
		if err := s.store.Add(ctx, ids, documents, metadatas); err != nil {
			return fmt.Errorf("failed to add chunks: %w", err)
		}
	}

	s.logger.Info("reindexed events",
		zap.String("component", "semantic-index"),
		zap.Int("eventCount", len(events)),
		zap.Int("chunkCount", len(documents)))

	return nil
}

// Search performs nearest-neighbor retrieval over chunk documents.
// Provider failures are logged and reported as a nil result, not raised.
func (s *SemanticIndex) Search(ctx context.Context, queryText string, k int) *Matches {
	matches, err := s.store.Query(ctx, queryText, k)
	if err != nil {
		s.logger.Error("vector store query failed",
			zap.String("component", "semantic-index"),
			zap.String("query", queryText),
			zap.Error(err))
		return nil
	}
	return matches
}

func joinDocuments(rendered []string) string {
	document := ""
	for _, text := range rendered {
		document += text + " "
	}
	return document
}
