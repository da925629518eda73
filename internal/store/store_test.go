package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsflow-kr/newsflow/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore() *MemoryStore {
	return NewMemoryStore(testLogger())
}

func TestCreateAssignsIDAndStatus(t *testing.T) {
	s := newTestStore()
	rec, err := s.Create(context.Background(), types.NewsRecord{Title: "금리 동결"})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, types.StatusNew, rec.Status)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore()
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpdateMergesFields(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	rec, err := s.Create(ctx, types.NewsRecord{Title: "원제", Content: "본문"})
	require.NoError(t, err)

	updated, err := s.Update(ctx, rec.ID, map[string]any{
		"title":    "수정된 제목",
		"bogus":    "ignored",
		"blog_url": "https://blog.naver.com/newsbot/223000000001",
	})
	require.NoError(t, err)

	assert.Equal(t, "수정된 제목", updated.Title)
	assert.Equal(t, "본문", updated.Content)
	assert.Equal(t, "https://blog.naver.com/newsbot/223000000001", updated.BlogURL)
	assert.False(t, updated.UpdatedAt.Before(rec.UpdatedAt))
}

func TestUpdateNotFound(t *testing.T) {
	s := newTestStore()
	_, err := s.Update(context.Background(), "missing", map[string]any{"title": "x"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	rec, err := s.Create(ctx, types.NewsRecord{Title: "삭제 대상"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, rec.ID))
	_, err = s.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, rec.ID), types.ErrNotFound)
}

func TestListNewestFirstWithLimit(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	for i, title := range []string{"첫째", "둘째", "셋째"} {
		rec := types.NewsRecord{Title: title, SourceURL: "https://www.ytn.co.kr/_ln/0102_" + title}
		created, err := s.Create(ctx, rec)
		require.NoError(t, err)
		// force distinct creation times
		created.CreatedAt = created.CreatedAt.Add(time.Duration(i) * time.Second)
		s.records[created.ID] = created
	}

	records, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "셋째", records[0].Title)
	assert.Equal(t, "둘째", records[1].Title)
}

func TestUpsertMatchesBySourceURL(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	first := types.RecordFromDetail(types.ArticleDetail{
		Title:   "환율 급등",
		URL:     "https://www.ytn.co.kr/_ln/0102_202608310001",
		Content: "초판 본문",
	})
	created, isNew, err := s.Upsert(ctx, first)
	require.NoError(t, err)
	assert.True(t, isNew)

	// mark it published, then re-crawl with refreshed content
	_, err = s.Update(ctx, created.ID, map[string]any{
		"status":   types.StatusPosted,
		"blog_url": "https://blog.naver.com/newsbot/223000000002",
	})
	require.NoError(t, err)

	second := first
	second.Title = "환율 급등 (종합)"
	second.Content = "개정판 본문"
	refreshed, isNew, err := s.Upsert(ctx, types.NewsRecord{
		Title:     second.Title,
		Content:   second.Content,
		SourceURL: second.SourceURL,
		Status:    types.StatusNew,
	})
	require.NoError(t, err)

	assert.False(t, isNew)
	assert.Equal(t, created.ID, refreshed.ID)
	assert.Equal(t, "환율 급등 (종합)", refreshed.Title)
	assert.Equal(t, "개정판 본문", refreshed.Content)
	// publish state survives a re-crawl
	assert.Equal(t, types.StatusPosted, refreshed.Status)
	assert.Equal(t, "https://blog.naver.com/newsbot/223000000002", refreshed.BlogURL)
	assert.Equal(t, created.CreatedAt, refreshed.CreatedAt)
}

func TestUpsertFallsBackToTitle(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	created, isNew, err := s.Upsert(ctx, types.NewsRecord{Title: "유가 하락", Status: types.StatusNew})
	require.NoError(t, err)
	require.True(t, isNew)

	// same title, source URL now known
	refreshed, isNew, err := s.Upsert(ctx, types.NewsRecord{
		Title:     "유가 하락",
		SourceURL: "https://www.ytn.co.kr/_ln/0102_202608310002",
		Status:    types.StatusNew,
	})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, created.ID, refreshed.ID)
	assert.Equal(t, "https://www.ytn.co.kr/_ln/0102_202608310002", refreshed.SourceURL)
}

func TestUpsertWithoutKeysAlwaysInserts(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_, isNew, err := s.Upsert(ctx, types.NewsRecord{Content: "키 없음 1"})
	require.NoError(t, err)
	assert.True(t, isNew)

	_, isNew, err = s.Upsert(ctx, types.NewsRecord{Content: "키 없음 2"})
	require.NoError(t, err)
	assert.True(t, isNew)
}

// A detail page that failed to render still produces a minimal record:
// title and source URL only, everything else empty, status new.
func TestSaveCrawlMinimalDetail(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	details := []types.ArticleDetail{
		{
			Title:         "반도체 수출 반등",
			URL:           "https://www.ytn.co.kr/_ln/0102_202608310003",
			Content:       "본문 전체",
			ReporterName:  "김철수",
			ReporterEmail: "cskim@ytn.co.kr",
		},
		{
			// fetch failed: link metadata only
			Title: "가계부채 통계 발표",
			URL:   "https://www.ytn.co.kr/_ln/0102_202608310004",
		},
	}

	created, err := SaveCrawl(ctx, s, testLogger(), details)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	var minimal types.NewsRecord
	for _, rec := range records {
		if rec.Title == "가계부채 통계 발표" {
			minimal = rec
		}
	}
	require.NotEmpty(t, minimal.ID)
	assert.Equal(t, types.StatusNew, minimal.Status)
	assert.Empty(t, minimal.Content)
	assert.Empty(t, minimal.ReporterName)

	// re-crawl of the same listing creates nothing new
	created, err = SaveCrawl(ctx, s, testLogger(), details)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestPendingPublishExcludesOnlyPosted(t *testing.T) {
	records := []types.NewsRecord{
		{Title: "새 기사", Status: types.StatusNew},
		{Title: "발행된 기사", Status: types.StatusPosted},
		{Title: "검토 중 기사", Status: "review"},
		{Title: "상태 없는 기사"},
	}

	pending := PendingPublish(records)

	require.Len(t, pending, 3)
	for _, rec := range pending {
		assert.NotEqual(t, types.StatusPosted, rec.Status)
	}
	assert.Equal(t, "새 기사", pending[0].Title)
	// hand-edited statuses still qualify for publishing
	assert.Equal(t, "검토 중 기사", pending[1].Title)
	assert.Equal(t, "상태 없는 기사", pending[2].Title)
}

func TestMarkPostedFlipsOnlyConfirmed(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"기사 A", "기사 B", "기사 C"} {
		rec, err := s.Create(ctx, types.NewsRecord{Title: title})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	// two of three resolved a canonical URL
	results := types.PublishResults{
		ids[0]: "https://blog.naver.com/newsbot/223000000010",
		ids[2]: "https://blog.naver.com/newsbot/223000000011",
	}
	require.NoError(t, MarkPosted(ctx, s, testLogger(), results))

	for i, id := range ids {
		rec, err := s.Get(ctx, id)
		require.NoError(t, err)
		if i == 1 {
			assert.Equal(t, types.StatusNew, rec.Status)
			assert.Empty(t, rec.BlogURL)
			continue
		}
		assert.Equal(t, types.StatusPosted, rec.Status)
		assert.Equal(t, results[id], rec.BlogURL)
	}
}
