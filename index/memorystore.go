package index

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory VectorStore used in demo mode. Similarity is
// approximated by token overlap, which is enough to exercise the indexing
// and search flows without a running vector database.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string]string
	metadatas map[string]map[string]any
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]string),
		metadatas: make(map[string]map[string]any),
	}
}

func (m *MemoryStore) ListIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.documents))
	for id := range m.documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) Delete(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.documents, id)
		delete(m.metadatas, id)
	}
	return nil
}

func (m *MemoryStore) Add(ctx context.Context, ids []string, documents []string, metadatas []map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		m.documents[id] = documents[i]
		if i < len(metadatas) {
			m.metadatas[id] = metadatas[i]
		}
	}
	return nil
}

func (m *MemoryStore) Query(ctx context.Context, queryText string, n int) (*Matches, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	queryTokens := tokenize(queryText)

	type scored struct {
		id       string
		distance float64
	}
	results := make([]scored, 0, len(m.documents))
	for id, document := range m.documents {
		overlap := 0
		docTokens := tokenize(document)
		for token := range queryTokens {
			if docTokens[token] {
				overlap++
			}
		}
		results = append(results, scored{id: id, distance: 1.0 / (1.0 + float64(overlap))})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].distance != results[j].distance {
			return results[i].distance < results[j].distance
		}
		return results[i].id < results[j].id
	})
	if len(results) > n {
		results = results[:n]
	}

	matches := &Matches{
		IDs:       make([]string, 0, len(results)),
		Documents: make([]string, 0, len(results)),
		Distances: make([]float64, 0, len(results)),
		Metadatas: make([]map[string]any, 0, len(results)),
	}
	for _, result := range results {
		matches.IDs = append(matches.IDs, result.id)
		matches.Documents = append(matches.Documents, m.documents[result.id])
		matches.Distances = append(matches.Distances, result.distance)
		matches.Metadatas = append(matches.Metadatas, m.metadatas[result.id])
	}
	return matches, nil
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, token := range strings.Fields(strings.ToLower(s)) {
		tokens[strings.Trim(token, ".,;:'\"!?")] = true
	}
	return tokens
}
