package feeds

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example Security News</title>
  <link>https://example.com</link>
  <item>
    <title>Critical flaw in router firmware</title>
    <link>https://example.com/router-flaw</link>
    <guid>https://example.com/router-flaw</guid>
    <description>&lt;p&gt;Attackers can run &lt;b&gt;arbitrary code&lt;/b&gt;.&lt;/p&gt;</description>
    <pubDate>Mon, 10 Mar 2025 09:00:00 GMT</pubDate>
  </item>
  <item>
    <title></title>
    <link>https://example.com/untitled</link>
  </item>
  <item>
    <title>Item without any link</title>
  </item>
  <item>
    <title>Guid-only advisory</title>
    <guid>https://example.com/guid-only</guid>
  </item>
</channel>
</rss>`

// roundTripFunc lets a test script HTTP responses per URL.
type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func fakeClient(fn roundTripFunc) *http.Client {
	return &http.Client{Transport: fn}
}

func xmlResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/rss+xml"}},
	}
}

func testOptions() Options {
	options := DefaultOptions()
	options.Stagger = 0
	return options
}

func TestFetchSourceParsesItems(t *testing.T) {
	client := fakeClient(func(req *http.Request) (*http.Response, error) {
		if got := req.Header.Get("User-Agent"); got != testOptions().UserAgent {
			t.Errorf("Unexpected User-Agent %q", got)
		}
		return xmlResponse(sampleRSS), nil
	})
	f := NewFetcherWithClient(testOptions(), client)

	articles, err := f.FetchSource(context.Background(), Source{URL: "https://example.com/feed", Name: "Example"})
	if err != nil {
		t.Fatalf("FetchSource failed: %v", err)
	}
	// The untitled item and the item with no link candidates are dropped.
	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "Critical flaw in router firmware" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Link != "https://example.com/router-flaw" {
		t.Errorf("Link = %q", first.Link)
	}
	if strings.Contains(first.Description, "<") {
		t.Errorf("Description still contains markup: %q", first.Description)
	}
	if !strings.Contains(first.Description, "arbitrary code") {
		t.Errorf("Description lost its text: %q", first.Description)
	}
	want := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", first.PublishedAt, want)
	}
	if first.SourceName != "Example" {
		t.Errorf("SourceName = %q", first.SourceName)
	}

	if articles[1].Link != "" || articles[1].GUID != "https://example.com/guid-only" {
		t.Errorf("Expected guid-only item to survive with its GUID candidate, got %+v", articles[1])
	}
}

func TestFetchSourceHTTPError(t *testing.T) {
	client := fakeClient(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusServiceUnavailable, Body: io.NopCloser(strings.NewReader(""))}, nil
	})
	f := NewFetcherWithClient(testOptions(), client)

	if _, err := f.FetchSource(context.Background(), Source{URL: "https://example.com/feed"}); err == nil {
		t.Error("Expected an error for a 503 response")
	}
}

func TestFetchSourceTriesProxyAlternatives(t *testing.T) {
	var attempts []string
	client := fakeClient(func(req *http.Request) (*http.Response, error) {
		attempts = append(attempts, req.URL.String())
		if strings.HasPrefix(req.URL.String(), "https://proxy.example/") {
			return xmlResponse(sampleRSS), nil
		}
		return nil, errors.New("connection refused")
	})
	options := testOptions()
	options.ProxyURLs = []string{"https://proxy.example/get?url="}
	f := NewFetcherWithClient(options, client)

	articles, err := f.FetchSource(context.Background(), Source{URL: "https://example.com/feed", Name: "Example"})
	if err != nil {
		t.Fatalf("Expected proxy alternative to succeed: %v", err)
	}
	if len(articles) == 0 {
		t.Error("Proxy fetch returned no articles")
	}
	if len(attempts) != 2 {
		t.Fatalf("Expected direct then proxy attempt, got %v", attempts)
	}
	if !strings.HasPrefix(attempts[0], "https://example.com/") {
		t.Errorf("Direct endpoint must be tried first, got %q", attempts[0])
	}
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	client := fakeClient(func(req *http.Request) (*http.Response, error) {
		if strings.Contains(req.URL.Host, "broken") {
			return nil, errors.New("dns failure")
		}
		return xmlResponse(sampleRSS), nil
	})
	f := NewFetcherWithClient(testOptions(), client)

	sources := []Source{
		{URL: "https://good.example.com/feed", Name: "Good"},
		{URL: "https://broken.example.com/feed", Name: "Broken"},
		{URL: "https://also-good.example.com/feed", Name: "Also Good"},
	}
	articles, stats := f.FetchAll(context.Background(), sources)

	if stats.SourcesUsed != 2 {
		t.Errorf("SourcesUsed = %d, want 2", stats.SourcesUsed)
	}
	if stats.SourcesFailed != 1 {
		t.Errorf("SourcesFailed = %d, want 1", stats.SourcesFailed)
	}
	if len(articles) != 4 {
		t.Errorf("Expected 4 articles from the two healthy sources, got %d", len(articles))
	}
}

func TestFetchAllEmptySources(t *testing.T) {
	f := NewFetcherWithClient(testOptions(), fakeClient(func(req *http.Request) (*http.Response, error) {
		t.Error("No request expected for an empty source list")
		return nil, errors.New("unexpected")
	}))

	articles, stats := f.FetchAll(context.Background(), nil)
	if len(articles) != 0 || stats.SourcesUsed != 0 || stats.SourcesFailed != 0 {
		t.Errorf("Expected empty result, got %d articles, stats %+v", len(articles), stats)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "already plain", "already plain"},
		{"tags removed", "<p>Hello <b>world</b></p>", "Hello world"},
		{"whitespace collapsed", "<div>one\n\n  two</div>", "one two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSourceDisplayName(t *testing.T) {
	tests := []struct {
		source Source
		want   string
	}{
		{Source{URL: "https://feeds.example.com/rss", Name: "Named Feed"}, "Named Feed"},
		{Source{URL: "https://www.krebsonsecurity.com/feed/"}, "krebsonsecurity.com"},
		{Source{URL: "https://feeds.feedburner.com/TheHackersNews"}, "feedburner.com"},
		{Source{URL: "not a url"}, "not a url"},
	}
	for _, tt := range tests {
		if got := tt.source.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.source.URL, got, tt.want)
		}
	}
}
