package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newsflow-kr/newsflow/internal/types"
)

// MemoryStore keeps records in process memory. It backs tests and
// credential-free local runs; nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]types.NewsRecord
	logger  *slog.Logger
}

func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]types.NewsRecord),
		logger:  logger.With("component", "memory_store"),
	}
}

func (s *MemoryStore) List(_ context.Context, limit int64) ([]types.NewsRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]types.NewsRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	if limit > 0 && int64(len(records)) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (types.NewsRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return types.NewsRecord{}, types.ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) Create(_ context.Context, rec types.NewsRecord) (types.NewsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(rec), nil
}

func (s *MemoryStore) insertLocked(rec types.NewsRecord) types.NewsRecord {
	now := time.Now().UTC()
	rec.ID = uuid.NewString()
	if rec.Status == "" {
		rec.Status = types.StatusNew
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.records[rec.ID] = rec
	return rec
}

func (s *MemoryStore) Update(_ context.Context, id string, fields map[string]any) (types.NewsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return types.NewsRecord{}, types.ErrNotFound
	}
	applyFields(&rec, fields)
	s.records[id] = rec
	return rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return types.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, rec types.NewsRecord) (types.NewsRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.matchLocked(rec); ok {
		existing.Title = rec.Title
		existing.Content = rec.Content
		existing.PublishedAt = rec.PublishedAt
		existing.ReporterName = rec.ReporterName
		existing.ReporterEmail = rec.ReporterEmail
		existing.Category = rec.Category
		existing.Phone = rec.Phone
		existing.SourceURL = rec.SourceURL
		existing.UpdatedAt = time.Now().UTC()
		s.records[existing.ID] = existing
		return existing, false, nil
	}

	return s.insertLocked(rec), true, nil
}

// matchLocked finds an existing record by source URL first, then title.
func (s *MemoryStore) matchLocked(rec types.NewsRecord) (types.NewsRecord, bool) {
	if rec.SourceURL != "" {
		for _, existing := range s.records {
			if existing.SourceURL == rec.SourceURL {
				return existing, true
			}
		}
	}
	if rec.Title != "" {
		for _, existing := range s.records {
			if existing.Title == rec.Title {
				return existing, true
			}
		}
	}
	return types.NewsRecord{}, false
}

func (s *MemoryStore) Close(context.Context) error {
	s.logger.Debug("memory store closing", "records", len(s.records))
	return nil
}

var _ Store = (*MemoryStore)(nil)
