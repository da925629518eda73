package types

import (
	"strings"
	"time"
)

// Record status values. Manual edits may set other strings; the pipeline
// only ever writes these two.
const (
	StatusNew    = "new"
	StatusPosted = "posted"
)

// ArticleLink is a candidate article discovered on the listing page.
// Links are deduplicated by absolute URL within one crawl and never persisted.
type ArticleLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ArticleDetail holds the fields extracted from one article page.
// Every field except Title and URL is best-effort: extraction failures
// leave it empty rather than raising an error.
type ArticleDetail struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Content       string `json:"content"`
	PublishedAt   string `json:"published_at"`
	Category      string `json:"category"`
	ReporterName  string `json:"reporter_name"`
	ReporterEmail string `json:"reporter_email"`
	Phone         string `json:"phone"`
}

// NewsRecord is the persisted form of an article.
type NewsRecord struct {
	ID            string    `json:"id"             bson:"-"`
	Title         string    `json:"title"          bson:"title"`
	Content       string    `json:"content"        bson:"content"`
	PublishedAt   string    `json:"published_at"   bson:"published_at"`
	ReporterName  string    `json:"reporter_name"  bson:"reporter_name"`
	ReporterEmail string    `json:"reporter_email" bson:"reporter_email"`
	Category      string    `json:"category"       bson:"category"`
	Phone         string    `json:"phone"          bson:"phone"`
	SourceURL     string    `json:"source_url"     bson:"source_url"`
	BlogURL       string    `json:"blog_url"       bson:"blog_url"`
	Status        string    `json:"status"         bson:"status"`
	CreatedAt     time.Time `json:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"     bson:"updated_at"`
}

// RecordFromDetail maps an extracted article onto a fresh record.
// The detail's source link becomes the record's natural dedup key.
func RecordFromDetail(d ArticleDetail) NewsRecord {
	return NewsRecord{
		Title:         strings.TrimSpace(d.Title),
		Content:       d.Content,
		PublishedAt:   d.PublishedAt,
		ReporterName:  d.ReporterName,
		ReporterEmail: d.ReporterEmail,
		Category:      d.Category,
		Phone:         d.Phone,
		SourceURL:     strings.TrimSpace(d.URL),
		Status:        StatusNew,
	}
}

// PublishResults maps record IDs to confirmed blog post URLs for one
// publish batch. Records whose canonical URL never resolved are absent.
type PublishResults map[string]string
