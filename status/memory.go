package status

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryStore is the in-process Store implementation. A janitor goroutine
// evicts completed entries once their TTL elapses, so abandoned results do
// not accumulate for the life of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	logger  *zap.Logger
	stop    chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	status      ProcessingStatus
	completedAt time.Time
}

// NewMemoryStore creates a memory store whose completed entries are
// evicted after ttl
func NewMemoryStore(ttl time.Duration, logger *zap.Logger) *MemoryStore {
	store := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		logger:  logger,
		stop:    make(chan struct{}),
	}
	go store.janitor()
	return store
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*ProcessingStatus, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	statusCopy := entry.status
	return &statusCopy, true, nil
}

func (s *MemoryStore) Advance(ctx context.Context, key string, stage Stage, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *ProcessingStatus
	if entry, ok := s.entries[key]; ok {
		current = &entry.status
	}
	if err := advanceFrom(current, stage); err != nil {
		return err
	}

	s.entries[key] = &memoryEntry{
		status: ProcessingStatus{
			Stage:     stage,
			Message:   message,
			UpdatedAt: time.Now(),
		},
	}
	return nil
}

func (s *MemoryStore) Complete(ctx context.Context, key string, response any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.entries[key] = &memoryEntry{
		status: ProcessingStatus{
			Stage:     StageDone,
			Message:   "request complete",
			Complete:  true,
			Response:  response,
			UpdatedAt: now,
		},
		completedAt: now,
	}
	return nil
}

func (s *MemoryStore) Fail(ctx context.Context, key string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var current *ProcessingStatus
	if entry, ok := s.entries[key]; ok {
		current = &entry.status
	}
	s.entries[key] = &memoryEntry{
		status: ProcessingStatus{
			Stage:     failureStage(current),
			Message:   message,
			Complete:  true,
			Error:     message,
			UpdatedAt: now,
		},
		completedAt: now,
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired(time.Now())
		}
	}
}

func (s *MemoryStore) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for key, entry := range s.entries {
		if entry.status.Complete && now.Sub(entry.completedAt) > s.ttl {
			delete(s.entries, key)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Debug("evicted completed status entries",
			zap.String("component", "status-store"),
			zap.Int("evicted", evicted))
	}
}
