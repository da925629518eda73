package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/newsflow-kr/newsflow/internal/config"
	"github.com/newsflow-kr/newsflow/internal/types"
)

// Store is the persistence contract for news records. All methods take a
// context; backends apply their own per-operation timeouts on top of it.
type Store interface {
	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int64) ([]types.NewsRecord, error)

	// Get returns one record, or types.ErrNotFound.
	Get(ctx context.Context, id string) (types.NewsRecord, error)

	// Create inserts a record and returns it with its assigned ID.
	// Status and timestamps are set by the store.
	Create(ctx context.Context, rec types.NewsRecord) (types.NewsRecord, error)

	// Update merges the given fields into an existing record. Unknown
	// field names are ignored; a missing record is types.ErrNotFound.
	Update(ctx context.Context, id string, fields map[string]any) (types.NewsRecord, error)

	// Delete removes one record, or returns types.ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Upsert inserts the record, or refreshes the existing one matched
	// first by source URL and then by title. The bool reports whether a
	// new record was created. Matched records keep their status, blog
	// URL and creation time.
	Upsert(ctx context.Context, rec types.NewsRecord) (types.NewsRecord, bool, error)

	Close(ctx context.Context) error
}

// Open builds the backend named in the configuration.
func Open(ctx context.Context, cfg *config.StoreConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(logger), nil
	case "mongo", "":
		return NewMongoStore(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

// updatable names the record fields a caller may change after creation.
// IDs and timestamps stay store-managed.
var updatable = map[string]bool{
	"title":          true,
	"content":        true,
	"published_at":   true,
	"reporter_name":  true,
	"reporter_email": true,
	"category":       true,
	"phone":          true,
	"source_url":     true,
	"blog_url":       true,
	"status":         true,
}

func applyFields(rec *types.NewsRecord, fields map[string]any) {
	for k, v := range fields {
		s, ok := v.(string)
		if !ok || !updatable[k] {
			continue
		}
		switch k {
		case "title":
			rec.Title = s
		case "content":
			rec.Content = s
		case "published_at":
			rec.PublishedAt = s
		case "reporter_name":
			rec.ReporterName = s
		case "reporter_email":
			rec.ReporterEmail = s
		case "category":
			rec.Category = s
		case "phone":
			rec.Phone = s
		case "source_url":
			rec.SourceURL = s
		case "blog_url":
			rec.BlogURL = s
		case "status":
			rec.Status = s
		}
	}
	rec.UpdatedAt = time.Now().UTC()
}

// SaveCrawl upserts one record per crawled article and reports how many
// were newly created. Per-record failures are logged and skipped so one
// bad document cannot sink a whole crawl.
func SaveCrawl(ctx context.Context, s Store, logger *slog.Logger, details []types.ArticleDetail) (created int, err error) {
	for _, d := range details {
		rec := types.RecordFromDetail(d)
		_, isNew, upsertErr := s.Upsert(ctx, rec)
		if upsertErr != nil {
			logger.Error("record upsert failed", "source_url", rec.SourceURL, "error", upsertErr)
			if err == nil {
				err = upsertErr
			}
			continue
		}
		if isNew {
			created++
		}
	}
	return created, err
}

// PendingPublish selects the records still awaiting publication. Anything
// not yet marked posted qualifies, including records whose status was
// hand-edited to some other value.
func PendingPublish(records []types.NewsRecord) []types.NewsRecord {
	var pending []types.NewsRecord
	for _, rec := range records {
		if rec.Status != types.StatusPosted {
			pending = append(pending, rec)
		}
	}
	return pending
}

// MarkPosted records confirmed blog URLs and flips each record's status.
func MarkPosted(ctx context.Context, s Store, logger *slog.Logger, results types.PublishResults) error {
	var firstErr error
	for id, blogURL := range results {
		_, err := s.Update(ctx, id, map[string]any{
			"blog_url": blogURL,
			"status":   types.StatusPosted,
		})
		if err != nil {
			logger.Error("status update failed", "id", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
