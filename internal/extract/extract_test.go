package extract

import (
	"log/slog"
	"os"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const detailHTML = `<!DOCTYPE html>
<html>
<head>
    <title>[경제] 기준금리 동결…시장 반응은 | YTN</title>
</head>
<body>
    <div class="head"><span>YTN</span></div>
    <div class="date">2025-11-03 09:12</div>
    <div class="article_wrap">
        <span>짧은 캡션</span>
        <span>한국은행이 기준금리를 현 수준에서 동결했습니다.
시장에서는 예상된 결정이라는 평가가 나옵니다.

YTN 김민수 (minsu.kim@ytn.co.kr)

※ '당신의 제보가 뉴스가 됩니다'
[전화] 02-398-8585
[메일] social@ytn.co.kr</span>
    </div>
</body>
</html>`

func TestExtractFields(t *testing.T) {
	e := NewExtractor(testLogger)
	d := e.Extract(detailHTML)

	if d.PublishedAt != "2025-11-03 09:12" {
		t.Errorf("published_at: got %q", d.PublishedAt)
	}
	if d.Category != "경제" {
		t.Errorf("category: got %q", d.Category)
	}
	if d.Phone != "02-398-8585" {
		t.Errorf("phone: got %q", d.Phone)
	}
	if d.ReporterName != "김민수" {
		t.Errorf("reporter_name: got %q", d.ReporterName)
	}
	if d.ReporterEmail != "minsu.kim@ytn.co.kr" {
		t.Errorf("reporter_email: got %q", d.ReporterEmail)
	}
}

func TestExtractBodyLongestSpan(t *testing.T) {
	e := NewExtractor(testLogger)
	d := e.Extract(detailHTML)

	// The caption span must lose to the article span.
	if d.Content == "" || d.Content == "짧은 캡션" {
		t.Fatalf("body: got %q", d.Content)
	}
	if want := "한국은행이 기준금리를"; len(d.Content) < len(want) {
		t.Errorf("body too short: %q", d.Content)
	}
}

func TestExtractOutsideContainer(t *testing.T) {
	// No known article container: every span in the document is a candidate.
	html := `<html><head><title>no brackets here</title></head><body>
		<div class="unrelated"><span>short</span><span>a considerably longer span that should win</span></div>
	</body></html>`

	e := NewExtractor(testLogger)
	d := e.Extract(html)

	if d.Content != "a considerably longer span that should win" {
		t.Errorf("body: got %q", d.Content)
	}
	if d.Category != "" {
		t.Errorf("category should be empty, got %q", d.Category)
	}
	if d.PublishedAt != "" {
		t.Errorf("published_at should be empty, got %q", d.PublishedAt)
	}
}

func TestExtractDateXPathFallback(t *testing.T) {
	// div.date carries extra class tokens; the CSS path still matches but
	// the XPath probe must also cover markup where it does not.
	html := `<html><body><div class="article-date date-area">2025-01-01 08:00</div></body></html>`

	e := NewExtractor(testLogger)
	d := e.Extract(html)

	if d.PublishedAt != "2025-01-01 08:00" {
		t.Errorf("published_at: got %q", d.PublishedAt)
	}
}

func TestExtractIdempotent(t *testing.T) {
	e := NewExtractor(testLogger)
	first := e.Extract(detailHTML)
	second := e.Extract(detailHTML)

	if first != second {
		t.Errorf("extraction not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestExtractEmptyOnGarbage(t *testing.T) {
	e := NewExtractor(testLogger)
	d := e.Extract("not html at all ><")

	if d.Content != "" || d.PublishedAt != "" || d.Phone != "" {
		t.Errorf("expected empty detail, got %+v", d)
	}
}

func TestMarkerRules(t *testing.T) {
	text := "문의는 아래로\n[전화] 02-398-8585\n[메일] tips@ytn.co.kr\n끝"
	out := applyMarkerRules(text)

	if out[fieldPhone] != "02-398-8585" {
		t.Errorf("phone: got %q", out[fieldPhone])
	}
	if out[fieldEmail] != "tips@ytn.co.kr" {
		t.Errorf("email: got %q", out[fieldEmail])
	}
}

func TestMarkersInAdjacentElements(t *testing.T) {
	// No whitespace between the elements in source: the phone capture
	// must still stop at the element boundary.
	html := `<html><body><div class="article">` +
		`<p>[전화] 02-398-8585</p><p>[메일] social@ytn.co.kr</p>` +
		`</div></body></html>`

	e := NewExtractor(testLogger)
	d := e.Extract(html)

	if d.Phone != "02-398-8585" {
		t.Errorf("phone: got %q", d.Phone)
	}
	if d.ReporterEmail != "social@ytn.co.kr" {
		t.Errorf("email: got %q", d.ReporterEmail)
	}
}

func BenchmarkExtract(b *testing.B) {
	e := NewExtractor(testLogger)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Extract(detailHTML)
	}
}
