package browser

import (
	"fmt"
	"strings"
)

// Page is one addressable unit of navigation state: a search result or an
// opened URL, identified within its session by a cursor assigned in order of
// first reference.
type Page struct {
	Cursor  int
	URL     string
	Title   string
	Snippet string
	Lines   []string
	// Loc is the scroll position: index of the first line the next
	// continuation read should return.
	Loc int
	// Fetched reports whether page content has been retrieved. Search
	// results start unfetched and load lazily on open.
	Fetched bool
	// ViewSource reports whether Lines hold raw source rather than
	// extracted text.
	ViewSource bool
}

// SetContent installs retrieved content and resets the scroll position.
func (p *Page) SetContent(content *PageContent, viewSource bool) {
	if content.Title != "" {
		p.Title = content.Title
	}
	if p.Title == "" {
		p.Title = p.URL
	}
	p.Lines = splitLines(content.Text)
	p.Loc = 0
	p.Fetched = true
	p.ViewSource = viewSource
}

// Window returns the requested slice of lines together with the resolved
// [start, end) range. loc == -1 continues from the scroll position;
// numLines == -1 returns all remaining lines. The scroll position advances
// to the end of the returned window.
func (p *Page) Window(loc, numLines int) ([]string, int, int) {
	start := loc
	if start < 0 {
		start = p.Loc
	}
	if start > len(p.Lines) {
		start = len(p.Lines)
	}

	end := len(p.Lines)
	if numLines >= 0 && start+numLines < end {
		end = start + numLines
	}

	p.Loc = end
	return p.Lines[start:end], start, end
}

// CursorTag renders the bracketed cursor annotation used in result listings.
func CursorTag(cursor int) string {
	return fmt.Sprintf("[%d]", cursor)
}

// Citation renders the line-range citation for a page. The end line is
// omitted when it equals the start line. The format is part of the external
// contract and must not change.
func Citation(cursor, start, end int) string {
	if end <= start {
		return fmt.Sprintf("【%d†L%d】", cursor, start)
	}
	return fmt.Sprintf("【%d†L%d-L%d】", cursor, start, end)
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// numberLines renders a window of lines with 0-based L-prefixes so citations
// can reference them.
func numberLines(lines []string, start int) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "L%d: %s", start+i, line)
	}
	return b.String()
}
