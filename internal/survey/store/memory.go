package store

import (
	"context"
	"sync"
	"time"

	"rumble-survey/internal/models"
)

// Memory keeps submissions in process. Used with store.backend=memory and in tests.
type Memory struct {
	mu    sync.Mutex
	docs  map[string][]models.SessionSubmission
	err   error
	now   func() time.Time
	calls int
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]models.SessionSubmission), now: time.Now}
}

func (s *Memory) Backend() string { return "memory" }

func (s *Memory) AppendRecord(ctx context.Context, collection string, doc models.SessionSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	completedAt := s.now().UTC()
	doc.CompletedAt = &completedAt
	doc.Responses = append([]models.ResponseRecord(nil), doc.Responses...)
	s.docs[collection] = append(s.docs[collection], doc)
	return nil
}

// FailWith makes every following write return err until called with nil.
func (s *Memory) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Records returns what was stored in collection.
func (s *Memory) Records(collection string) []models.SessionSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SessionSubmission(nil), s.docs[collection]...)
}

// Calls counts AppendRecord invocations, failed ones included.
func (s *Memory) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Memory) Ping(context.Context) error { return nil }
func (s *Memory) Close() error               { return nil }
