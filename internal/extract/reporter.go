package extract

import (
	"regexp"
	"strings"
)

// Reporter holds byline metadata inferred from article body text.
type Reporter struct {
	Name  string
	Email string
}

// Reader-submission boilerplate that trails every article body. Byline
// scanning stops here so the footer's contact lines are never mistaken
// for a byline.
const boilerplateMarker = "※ '당신의 제보가 뉴스가 됩니다'"

var (
	// "YTN 홍길동 (hong@ytn.co.kr)" — the standard byline form. The last
	// occurrence wins: bodies quoting other reports repeat the pattern.
	bylineRe = regexp.MustCompile(`YTN\s+([가-힣]{2,5})\s*\(\s*([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})\s*\)`)

	// Production credits, e.g. "제작 : 홍길동" or "제작 | 홍길동".
	productionRe = regexp.MustCompile(`제작\s*[:|]\s*([가-힣]{2,5}(?:\s[가-힣]{2,5})*)`)

	// Interview-excerpt credits, e.g. "대담 발췌 : 홍길동".
	excerptRe = regexp.MustCompile(`대담\s?발췌\s*[:|]\s*([가-힣]{2,5}(?:\s[가-힣]{2,5})*)`)
)

// InferReporter scans body text for reporter name and email.
// Priority is fixed: byline pattern, then production marker, then
// interview-excerpt marker; empty when none match.
func InferReporter(body string) Reporter {
	if idx := strings.Index(body, boilerplateMarker); idx >= 0 {
		body = body[:idx]
	}

	if matches := bylineRe.FindAllStringSubmatch(body, -1); len(matches) > 0 {
		last := matches[len(matches)-1]
		return Reporter{
			Name:  strings.TrimSpace(last[1]),
			Email: strings.TrimSpace(last[2]),
		}
	}

	if m := productionRe.FindStringSubmatch(body); m != nil {
		return Reporter{Name: strings.TrimSpace(m[1])}
	}

	if m := excerptRe.FindStringSubmatch(body); m != nil {
		return Reporter{Name: strings.TrimSpace(m[1])}
	}

	return Reporter{}
}
