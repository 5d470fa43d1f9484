package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FragmentKind classifies the fragments a browsing operation emits.
type FragmentKind int

const (
	// KindText fragments carry displayable content and are included in the
	// collected result.
	KindText FragmentKind = iota
	// KindMeta fragments carry machine-oriented detail (viewport ranges,
	// result counts) and are dropped by the text collector.
	KindMeta
)

// Fragment is one unit of a browsing operation's output sequence. A fragment
// with Err set terminates the sequence with that failure.
type Fragment struct {
	Kind FragmentKind
	Text string
	Err  error
}

// Collect drains a fragment sequence to completion and joins the text
// fragments with newlines, in emission order. Non-text fragments are
// silently dropped. An error fragment aborts collection after the channel
// is drained.
func Collect(frags <-chan Fragment) (string, error) {
	var parts []string
	for f := range frags {
		if f.Err != nil {
			for range frags {
			}
			return "", f.Err
		}
		if f.Kind == KindText && f.Text != "" {
			parts = append(parts, f.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// OpenTarget is the tagged id argument of open: either an index into the
// current result set, a literal URL, or the sentinel for "current page".
type OpenTarget struct {
	url   string
	index int
}

// TargetIndex addresses the i-th entry of the most recent search. The
// sentinel -1 means "most recently referenced page".
func TargetIndex(i int) OpenTarget { return OpenTarget{index: i} }

// TargetURL addresses a literal URL, assigning it a fresh cursor.
func TargetURL(u string) OpenTarget { return OpenTarget{url: u, index: -1} }

// TargetCurrent addresses the most recently referenced page.
func TargetCurrent() OpenTarget { return OpenTarget{index: -1} }

// Browser holds one client's navigation state: pages addressed by cursor,
// the last result set, and the current scroll context. Operations are
// serialized by an internal mutex, so concurrent same-client calls never
// observe interleaved cursor state.
type Browser struct {
	backend Backend

	mu      sync.Mutex
	pages   []*Page
	results []int // cursors of the most recent search's results, in rank order
	current int   // cursor of the most recently referenced page, -1 when none
}

func NewBrowser(backend Backend) *Browser {
	return &Browser{backend: backend, current: -1}
}

// PageCount reports how many cursors have been assigned.
func (br *Browser) PageCount() int {
	br.mu.Lock()
	defer br.mu.Unlock()
	return len(br.pages)
}

// addPage assigns the next cursor. Caller holds br.mu.
func (br *Browser) addPage(url, title, snippet string) *Page {
	p := &Page{Cursor: len(br.pages), URL: url, Title: title, Snippet: snippet}
	br.pages = append(br.pages, p)
	return p
}

// Search issues a backend search and streams a result listing. Each result
// is assigned a cursor and its entry is tagged with it; the raw listing
// text, not a structured list, is the contract consumers parse.
func (br *Browser) Search(ctx context.Context, query string, topn int, source string) <-chan Fragment {
	out := make(chan Fragment)
	go func() {
		defer close(out)
		br.mu.Lock()
		defer br.mu.Unlock()

		results, err := br.backend.Search(ctx, query, topn, source)
		if err != nil {
			out <- Fragment{Err: fmt.Errorf("search %q: %w", query, err)}
			return
		}
		if len(results) == 0 {
			out <- Fragment{Kind: KindText, Text: fmt.Sprintf("No results for %q.", query)}
			br.results = nil
			return
		}

		br.results = make([]int, 0, len(results))
		for _, r := range results {
			title := r.Title
			if title == "" {
				title = r.URL
			}
			page := br.addPage(r.URL, title, r.Snippet)
			br.results = append(br.results, page.Cursor)

			entry := fmt.Sprintf("%s %s\nURL: %s", CursorTag(page.Cursor), title, r.URL)
			if r.Snippet != "" {
				entry += "\n" + r.Snippet
			}
			out <- Fragment{Kind: KindText, Text: entry}
		}
		out <- Fragment{Kind: KindMeta, Text: fmt.Sprintf("results=%d", len(results))}
	}()
	return out
}

// Open navigates to a page and streams its text. Targets resolve in order:
// literal URL (fresh cursor), result index (cursor assigned at search time),
// explicit cursor, then the most recently referenced page. loc=-1 continues
// from the page's scroll position and num_lines=-1 reads to the end.
func (br *Browser) Open(ctx context.Context, target OpenTarget, cursor, loc, numLines int, viewSource bool) <-chan Fragment {
	out := make(chan Fragment)
	go func() {
		defer close(out)
		br.mu.Lock()
		defer br.mu.Unlock()

		page, err := br.resolveTarget(target, cursor)
		if err != nil {
			out <- Fragment{Err: err}
			return
		}

		if !page.Fetched || page.ViewSource != viewSource {
			content, err := br.backend.Fetch(ctx, page.URL, viewSource)
			if err != nil {
				out <- Fragment{Err: fmt.Errorf("open %s: %w", page.URL, err)}
				return
			}
			page.SetContent(content, viewSource)
		}

		br.current = page.Cursor

		window, start, end := page.Window(loc, numLines)
		out <- Fragment{Kind: KindText, Text: fmt.Sprintf("%s %s\nURL: %s", CursorTag(page.Cursor), page.Title, page.URL)}
		if len(window) > 0 {
			out <- Fragment{Kind: KindText, Text: numberLines(window, start)}
		} else {
			out <- Fragment{Kind: KindText, Text: fmt.Sprintf("End of page reached (L%d of L%d).", start, len(page.Lines))}
		}
		out <- Fragment{Kind: KindMeta, Text: fmt.Sprintf("viewport=L%d-L%d total=%d", start, end, len(page.Lines))}
	}()
	return out
}

// Find scans the addressed page for an exact substring (case-insensitive,
// not a regex) and streams each block of consecutive matching lines with its
// citation.
func (br *Browser) Find(ctx context.Context, pattern string, cursor int) <-chan Fragment {
	out := make(chan Fragment)
	go func() {
		defer close(out)
		br.mu.Lock()
		defer br.mu.Unlock()

		page, err := br.pageAt(cursor)
		if err != nil {
			out <- Fragment{Err: err}
			return
		}
		if !page.Fetched {
			out <- Fragment{Err: fmt.Errorf("page %s has no content; open it first", CursorTag(page.Cursor))}
			return
		}

		br.current = page.Cursor

		needle := strings.ToLower(pattern)
		matched := false
		start := -1
		flush := func(endExclusive int) {
			if start < 0 {
				return
			}
			block := Citation(page.Cursor, start, endExclusive-1) + "\n" + numberLines(page.Lines[start:endExclusive], start)
			out <- Fragment{Kind: KindText, Text: block}
			matched = true
			start = -1
		}

		for i, line := range page.Lines {
			if strings.Contains(strings.ToLower(line), needle) {
				if start < 0 {
					start = i
				}
				continue
			}
			flush(i)
		}
		flush(len(page.Lines))

		if !matched {
			out <- Fragment{Kind: KindText, Text: fmt.Sprintf("No matches for %q on page %s.", pattern, CursorTag(page.Cursor))}
		}
	}()
	return out
}

// resolveTarget maps an open target plus cursor argument to a page.
// Caller holds br.mu.
func (br *Browser) resolveTarget(target OpenTarget, cursor int) (*Page, error) {
	if target.url != "" {
		return br.addPage(target.url, "", ""), nil
	}
	if target.index >= 0 {
		if target.index >= len(br.results) {
			return nil, fmt.Errorf("result index %d out of range (have %d results)", target.index, len(br.results))
		}
		return br.pages[br.results[target.index]], nil
	}
	return br.pageAt(cursor)
}

// pageAt resolves a cursor argument, treating -1 as the most recently
// referenced page. Caller holds br.mu.
func (br *Browser) pageAt(cursor int) (*Page, error) {
	if cursor >= 0 {
		if cursor >= len(br.pages) {
			return nil, fmt.Errorf("unknown cursor %d (have %d pages)", cursor, len(br.pages))
		}
		return br.pages[cursor], nil
	}
	if br.current < 0 {
		return nil, fmt.Errorf("no page open; search or open a URL first")
	}
	return br.pages[br.current], nil
}
