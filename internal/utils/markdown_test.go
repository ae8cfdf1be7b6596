package utils

import (
	"strings"
	"testing"
	"time"
)

func TestRenderMarkdownStripsScripts(t *testing.T) {
	out := string(RenderMarkdown("hello <script>alert(1)</script> **bold**"))
	if strings.Contains(out, "<script") {
		t.Errorf("script tag survived sanitizing: %s", out)
	}
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("expected markdown to render, got %s", out)
	}
}

func TestRenderMarkdownStripsEventHandlers(t *testing.T) {
	out := string(RenderMarkdown(`<img src="https://example.com/a.png" onerror="steal()">`))
	if strings.Contains(out, "onerror") || strings.Contains(out, "steal") {
		t.Errorf("event handler survived sanitizing: %s", out)
	}
}

func TestRenderMarkdownKeepsLineBreaks(t *testing.T) {
	out := string(RenderMarkdown("first line\nsecond line"))
	if !strings.Contains(out, "<br") {
		t.Errorf("expected hard wrap, got %s", out)
	}
}

func TestRenderMarkdownExternalLinks(t *testing.T) {
	out := string(RenderMarkdown("[site](https://example.com)"))
	if !strings.Contains(out, `target="_blank"`) {
		t.Errorf("expected target=_blank on external link, got %s", out)
	}
	if !strings.Contains(out, "external") {
		t.Errorf("expected external class, got %s", out)
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	if out := RenderMarkdown("   "); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}

func TestExcerpt(t *testing.T) {
	got := Excerpt("# Title\n\nSome **bold** text & more", 100)
	if got != "Title Some bold text & more" {
		t.Errorf("unexpected excerpt %q", got)
	}

	got = Excerpt("가나다라마바사", 3)
	if got != "가나다…" {
		t.Errorf("expected rune-aware truncation, got %q", got)
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "방금 전"},
		{5 * time.Minute, "5분 전"},
		{3 * time.Hour, "3시간 전"},
		{2 * 24 * time.Hour, "2일 전"},
		{65 * 24 * time.Hour, "2개월 전"},
		{800 * 24 * time.Hour, "2년 전"},
	}
	for _, tc := range cases {
		if got := timeAgoFrom(now.Add(-tc.ago), now); got != tc.want {
			t.Errorf("timeAgoFrom(-%v) = %q, want %q", tc.ago, got, tc.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)); got != "2024년 3월 5일" {
		t.Errorf("unexpected date %q", got)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPasswordHash("secret123", hash) {
		t.Errorf("expected password to match")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Errorf("expected wrong password to fail")
	}
}
