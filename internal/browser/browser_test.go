package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeBackend serves canned results and page content for browser tests.
type fakeBackend struct {
	results     []Result
	pages       map[string]string
	searchErr   error
	fetchErr    error
	fetchCalls  int
	searchCalls int
}

func (f *fakeBackend) Search(_ context.Context, query string, topn int, _ string) ([]Result, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if topn < len(f.results) {
		return f.results[:topn], nil
	}
	return f.results, nil
}

func (f *fakeBackend) Fetch(_ context.Context, url string, _ bool) (*PageContent, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	text, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("no such page: %s", url)
	}
	return &PageContent{Title: "Page " + url, URL: url, Text: text}, nil
}

func newFake() *fakeBackend {
	return &fakeBackend{
		results: []Result{
			{Title: "First", URL: "https://a.example", Snippet: "alpha snippet"},
			{Title: "Second", URL: "https://b.example", Snippet: "beta snippet"},
		},
		pages: map[string]string{
			"https://a.example": "line zero\nline one\nline two\nline three",
			"https://b.example": "only line",
			"https://c.example": "direct open",
		},
	}
}

func TestSearchListsResultsWithCursorTags(t *testing.T) {
	br := NewBrowser(newFake())

	text, err := Collect(br.Search(context.Background(), "anything", 10, ""))
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if !strings.Contains(text, "[0] First") {
		t.Errorf("expected first result tagged [0], got:\n%s", text)
	}
	if !strings.Contains(text, "[1] Second") {
		t.Errorf("expected second result tagged [1], got:\n%s", text)
	}
	if !strings.Contains(text, "URL: https://a.example") {
		t.Errorf("expected result URL in listing, got:\n%s", text)
	}
	if !strings.Contains(text, "alpha snippet") {
		t.Errorf("expected snippet in listing, got:\n%s", text)
	}
	if strings.Contains(text, "results=") {
		t.Errorf("meta fragments must not leak into collected text:\n%s", text)
	}
}

func TestSearchCursorsAccumulateAcrossSearches(t *testing.T) {
	br := NewBrowser(newFake())
	ctx := context.Background()

	if _, err := Collect(br.Search(ctx, "one", 10, "")); err != nil {
		t.Fatal(err)
	}
	text, err := Collect(br.Search(ctx, "two", 10, ""))
	if err != nil {
		t.Fatal(err)
	}

	// Second search continues the cursor sequence rather than restarting it.
	if !strings.Contains(text, "[2] First") || !strings.Contains(text, "[3] Second") {
		t.Errorf("expected cursors 2 and 3 on second search, got:\n%s", text)
	}
	if br.PageCount() != 4 {
		t.Errorf("expected 4 pages after two searches, got %d", br.PageCount())
	}
}

func TestSearchNoResults(t *testing.T) {
	fake := newFake()
	fake.results = nil
	br := NewBrowser(fake)

	text, err := Collect(br.Search(context.Background(), "nothing", 10, ""))
	if err != nil {
		t.Fatalf("empty search should not fail: %v", err)
	}
	if !strings.Contains(text, `No results for "nothing".`) {
		t.Errorf("expected no-results message, got %q", text)
	}
}

func TestSearchBackendError(t *testing.T) {
	fake := newFake()
	fake.searchErr = errors.New("backend down")
	br := NewBrowser(fake)

	_, err := Collect(br.Search(context.Background(), "q", 10, ""))
	if err == nil || !strings.Contains(err.Error(), "backend down") {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
}

func TestOpenResultIndexFetchesFullText(t *testing.T) {
	fake := newFake()
	br := NewBrowser(fake)
	ctx := context.Background()

	if _, err := Collect(br.Search(ctx, "q", 10, "")); err != nil {
		t.Fatal(err)
	}

	text, err := Collect(br.Open(ctx, TargetIndex(0), -1, 0, -1, false))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if !strings.HasPrefix(text, "[0] ") {
		t.Errorf("expected header tagged with cursor 0, got:\n%s", text)
	}
	for i, want := range []string{"line zero", "line one", "line two", "line three"} {
		prefixed := fmt.Sprintf("L%d: %s", i, want)
		if !strings.Contains(text, prefixed) {
			t.Errorf("expected numbered line %q, got:\n%s", prefixed, text)
		}
	}
	if fake.fetchCalls != 1 {
		t.Errorf("expected one fetch, got %d", fake.fetchCalls)
	}
}

func TestOpenIsLazyAndCached(t *testing.T) {
	fake := newFake()
	br := NewBrowser(fake)
	ctx := context.Background()

	if _, err := Collect(br.Search(ctx, "q", 10, "")); err != nil {
		t.Fatal(err)
	}
	if fake.fetchCalls != 0 {
		t.Fatalf("search must not fetch page content, got %d fetches", fake.fetchCalls)
	}

	if _, err := Collect(br.Open(ctx, TargetIndex(0), -1, 0, -1, false)); err != nil {
		t.Fatal(err)
	}
	if _, err := Collect(br.Open(ctx, TargetIndex(0), -1, 0, -1, false)); err != nil {
		t.Fatal(err)
	}
	if fake.fetchCalls != 1 {
		t.Errorf("reopening a fetched page must reuse content, got %d fetches", fake.fetchCalls)
	}

	// Switching to view-source invalidates the cached extraction.
	if _, err := Collect(br.Open(ctx, TargetIndex(0), -1, 0, -1, true)); err != nil {
		t.Fatal(err)
	}
	if fake.fetchCalls != 2 {
		t.Errorf("view_source change must refetch, got %d fetches", fake.fetchCalls)
	}
}

func TestOpenURLAssignsFreshCursor(t *testing.T) {
	br := NewBrowser(newFake())
	ctx := context.Background()

	if _, err := Collect(br.Search(ctx, "q", 10, "")); err != nil {
		t.Fatal(err)
	}

	text, err := Collect(br.Open(ctx, TargetURL("https://c.example"), -1, 0, -1, false))
	if err != nil {
		t.Fatalf("open by URL failed: %v", err)
	}
	if !strings.HasPrefix(text, "[2] ") {
		t.Errorf("expected URL open to take the next cursor (2), got:\n%s", text)
	}
	if !strings.Contains(text, "L0: direct open") {
		t.Errorf("expected page content, got:\n%s", text)
	}
}

func TestOpenScrollContinuation(t *testing.T) {
	br := NewBrowser(newFake())
	ctx := context.Background()

	if _, err := Collect(br.Search(ctx, "q", 10, "")); err != nil {
		t.Fatal(err)
	}
	first, err := Collect(br.Open(ctx, TargetIndex(0), -1, 0, 2, false))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(first, "L0: line zero") || strings.Contains(first, "L2:") {
		t.Errorf("expected window L0-L1 only, got:\n%s", first)
	}

	// Continue from the scroll position on the current page.
	second, err := Collect(br.Open(ctx, TargetCurrent(), -1, -1, 2, false))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(second, "L2: line two") {
		t.Errorf("expected continuation from L2, got:\n%s", second)
	}
	if strings.Contains(second, "L0:") {
		t.Errorf("continuation must not restart at the top:\n%s", second)
	}
}

func TestOpenPastEndReportsEndOfPage(t *testing.T) {
	br := NewBrowser(newFake())
	ctx := context.Background()

	if _, err := Collect(br.Search(ctx, "q", 10, "")); err != nil {
		t.Fatal(err)
	}
	if _, err := Collect(br.Open(ctx, TargetIndex(1), -1, 0, -1, false)); err != nil {
		t.Fatal(err)
	}

	text, err := Collect(br.Open(ctx, TargetCurrent(), -1, -1, 2, false))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "End of page reached (L1 of L1).") {
		t.Errorf("expected end-of-page marker, got:\n%s", text)
	}
}

func TestOpenErrors(t *testing.T) {
	t.Run("no current page", func(t *testing.T) {
		br := NewBrowser(newFake())
		_, err := Collect(br.Open(context.Background(), TargetCurrent(), -1, 0, -1, false))
		if err == nil || !strings.Contains(err.Error(), "no page open") {
			t.Errorf("expected no-page error, got %v", err)
		}
	})

	t.Run("result index out of range", func(t *testing.T) {
		br := NewBrowser(newFake())
		ctx := context.Background()
		if _, err := Collect(br.Search(ctx, "q", 10, "")); err != nil {
			t.Fatal(err)
		}
		_, err := Collect(br.Open(ctx, TargetIndex(9), -1, 0, -1, false))
		if err == nil || !strings.Contains(err.Error(), "result index 9 out of range") {
			t.Errorf("expected range error, got %v", err)
		}
	})

	t.Run("unknown cursor", func(t *testing.T) {
		br := NewBrowser(newFake())
		_, err := Collect(br.Open(context.Background(), TargetCurrent(), 5, 0, -1, false))
		if err == nil || !strings.Contains(err.Error(), "unknown cursor 5") {
			t.Errorf("expected cursor error, got %v", err)
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		fake := newFake()
		fake.fetchErr = errors.New("connection refused")
		br := NewBrowser(fake)
		ctx := context.Background()
		if _, err := Collect(br.Search(ctx, "q", 10, "")); err != nil {
			t.Fatal(err)
		}
		_, err := Collect(br.Open(ctx, TargetIndex(0), -1, 0, -1, false))
		if err == nil || !strings.Contains(err.Error(), "connection refused") {
			t.Errorf("expected wrapped fetch error, got %v", err)
		}
	})
}

func TestFind(t *testing.T) {
	fake := newFake()
	fake.pages["https://a.example"] = "intro\nneedle here\nNEEDLE again\nplain\nneedle once more"
	br := NewBrowser(fake)
	ctx := context.Background()

	if _, err := Collect(br.Search(ctx, "q", 10, "")); err != nil {
		t.Fatal(err)
	}
	if _, err := Collect(br.Open(ctx, TargetIndex(0), -1, 0, -1, false)); err != nil {
		t.Fatal(err)
	}

	t.Run("groups consecutive matches with citations", func(t *testing.T) {
		text, err := Collect(br.Find(ctx, "needle", -1))
		if err != nil {
			t.Fatalf("find failed: %v", err)
		}
		if !strings.Contains(text, "【0†L1-L2】") {
			t.Errorf("expected range citation for lines 1-2, got:\n%s", text)
		}
		if !strings.Contains(text, "【0†L4】") {
			t.Errorf("expected single-line citation for line 4, got:\n%s", text)
		}
		if !strings.Contains(text, "L2: NEEDLE again") {
			t.Errorf("expected case-insensitive match, got:\n%s", text)
		}
		if strings.Contains(text, "L3:") {
			t.Errorf("non-matching lines must not appear:\n%s", text)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		text, err := Collect(br.Find(ctx, "absent", -1))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(text, `No matches for "absent" on page [0].`) {
			t.Errorf("expected no-match message, got %q", text)
		}
	})

	t.Run("pattern is a literal, not a regex", func(t *testing.T) {
		text, err := Collect(br.Find(ctx, "n.edle", -1))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(text, "No matches") {
			t.Errorf("regex metacharacters must match literally, got:\n%s", text)
		}
	})

	t.Run("unfetched page", func(t *testing.T) {
		_, err := Collect(br.Find(ctx, "needle", 1))
		if err == nil || !strings.Contains(err.Error(), "has no content") {
			t.Errorf("expected unfetched-page error, got %v", err)
		}
	})
}

func TestCollectDropsMetaAndJoinsText(t *testing.T) {
	frags := make(chan Fragment, 3)
	frags <- Fragment{Kind: KindText, Text: "a"}
	frags <- Fragment{Kind: KindMeta, Text: "hidden"}
	frags <- Fragment{Kind: KindText, Text: "b"}
	close(frags)

	text, err := Collect(frags)
	if err != nil {
		t.Fatal(err)
	}
	if text != "a\nb" {
		t.Errorf("Collect = %q, want %q", text, "a\nb")
	}
}

func TestCollectDrainsAfterError(t *testing.T) {
	frags := make(chan Fragment, 3)
	frags <- Fragment{Kind: KindText, Text: "partial"}
	frags <- Fragment{Err: errors.New("boom")}
	frags <- Fragment{Kind: KindText, Text: "after"}
	close(frags)

	text, err := Collect(frags)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
	if text != "" {
		t.Errorf("failed collection must not return partial text, got %q", text)
	}
}
