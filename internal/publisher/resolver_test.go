package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-rod/rod"

	"github.com/newsflow-kr/newsflow/internal/config"
)

// stubPageLister simulates a session with no confirmable pages open.
type stubPageLister struct {
	err   error
	calls int
}

func (s *stubPageLister) Pages() (rod.Pages, error) {
	s.calls++
	return nil, s.err
}

func TestResolveTimeoutReturnsEmpty(t *testing.T) {
	cfg := &config.BrowserConfig{
		ResolveTimeout: 50 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
	}
	lister := &stubPageLister{}
	r := NewResolver(lister, cfg, testLogger())

	if got := r.Resolve(context.Background()); got != "" {
		t.Errorf("expected empty URL on deadline, got %q", got)
	}
	if lister.calls < 2 {
		t.Errorf("expected repeated polling before the deadline, got %d calls", lister.calls)
	}
}

func TestResolveCancelledContext(t *testing.T) {
	cfg := &config.BrowserConfig{
		ResolveTimeout: time.Minute,
		PollInterval:   10 * time.Millisecond,
	}
	r := NewResolver(&stubPageLister{err: errors.New("browser gone")}, cfg, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if got := r.Resolve(ctx); got != "" {
		t.Errorf("expected empty URL on cancel, got %q", got)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancelled resolve did not return promptly")
	}
}

func TestIsPostURL(t *testing.T) {
	accepted := []string{
		"https://blog.naver.com/PostView.naver?blogId=newsbot&logNo=223456789012",
		"https://blog.naver.com/someuser/223456789012",
		"https://m.blog.naver.com/someuser/223456789012",
		"https://blog.naver.com/PostView.nhn?blogId=a&logno=999999",
		"https://blog.naver.com/mobile/PostView.naver?x=1&LogNo=123456",
	}
	for _, raw := range accepted {
		if !IsPostURL(raw) {
			t.Errorf("expected accept: %s", raw)
		}
	}

	rejected := []string{
		"",
		"https://blog.naver.com/GoBlogWrite.naver",
		"https://blog.naver.com/PostWriteForm.naver?Redirect=Write&logNo=123456",
		"https://blog.naver.com/PostWriteForm.naver?Redirct=Write&logNo=123456",
		"https://blog.naver.com/someuser",
		"https://blog.naver.com/someuser/12345",
		"https://example.com/someuser/223456789012",
		"https://nid.naver.com/nidlogin.login",
		"://bad url",
	}
	for _, raw := range rejected {
		if IsPostURL(raw) {
			t.Errorf("expected reject: %s", raw)
		}
	}
}

func TestCanonicalPostURL(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "query form rewritten",
			raw:  "https://blog.naver.com/PostView.naver?blogId=newsbot&logNo=223456789012",
			want: "https://blog.naver.com/newsbot/223456789012",
		},
		{
			name: "case insensitive params",
			raw:  "https://m.blog.naver.com/PostView.naver?BlogId=newsbot&logno=1234567",
			want: "https://blog.naver.com/newsbot/1234567",
		},
		{
			name: "short form passes through",
			raw:  "https://blog.naver.com/newsbot/223456789012",
			want: "https://blog.naver.com/newsbot/223456789012",
		},
		{
			name: "missing logNo passes through",
			raw:  "https://blog.naver.com/PostView.naver?blogId=newsbot",
			want: "https://blog.naver.com/PostView.naver?blogId=newsbot",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanonicalPostURL(tc.raw); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}
