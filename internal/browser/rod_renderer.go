package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"intelligent-search-mcp-server/internal/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// ChromeRenderer fetches page content through a shared headless Chrome so
// JS-rendered pages and view_source reads work where a plain GET would not.
// Search still goes to the wrapped backend; only Fetch is rerouted.
type ChromeRenderer struct {
	cfg config.ChromeConfig

	mu      sync.Mutex
	browser *rod.Browser
}

func NewChromeRenderer(cfg config.ChromeConfig) *ChromeRenderer {
	return &ChromeRenderer{cfg: cfg}
}

// Start connects to an existing Chrome or launches a new one.
func (r *ChromeRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		if _, err := r.browser.Version(); err == nil {
			return nil
		}
		log.Printf("stale Chrome connection detected, reconnecting...")
		_ = r.browser.Close()
		r.browser = nil
	}

	controlURL := r.cfg.DebuggerURL
	if controlURL == "" && len(r.cfg.Launch) > 0 {
		bin := r.cfg.Launch[0]
		launch := launcher.New().Bin(bin).Headless(r.cfg.IsHeadless())
		for _, rawFlag := range r.cfg.Launch[1:] {
			flagStr := strings.TrimLeft(rawFlag, "-")
			name, val, hasVal := strings.Cut(flagStr, "=")
			if hasVal {
				launch = launch.Set(flags.Flag(name), val)
			} else {
				launch = launch.Set(flags.Flag(name))
			}
		}
		url, err := launch.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = url
	}

	if controlURL == "" {
		return errors.New("no debugger_url or launch command provided")
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	r.browser = browser
	log.Printf("Chrome renderer connected at %s", controlURL)
	return nil
}

// Shutdown closes the underlying browser.
func (r *ChromeRenderer) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	return err
}

// Wrap reroutes a backend's Fetch through the renderer.
func (r *ChromeRenderer) Wrap(b Backend) Backend {
	return &renderedBackend{inner: b, renderer: r}
}

// render loads a URL in a throwaway page and returns its content.
func (r *ChromeRenderer) render(ctx context.Context, url string, viewSource bool) (*PageContent, error) {
	r.mu.Lock()
	browser := r.browser
	r.mu.Unlock()
	if browser == nil {
		return nil, errors.New("chrome renderer not started")
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx).Timeout(r.cfg.GetNavigationTimeout())
	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("load %s: %w", url, err)
	}

	info, err := page.Info()
	title := ""
	if err == nil {
		title = info.Title
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	if viewSource {
		return &PageContent{Title: title, URL: url, Text: html}, nil
	}
	return &PageContent{Title: title, URL: url, Text: ExtractText(html)}, nil
}

type renderedBackend struct {
	inner    Backend
	renderer *ChromeRenderer
}

func (b *renderedBackend) Search(ctx context.Context, query string, topn int, source string) ([]Result, error) {
	return b.inner.Search(ctx, query, topn, source)
}

func (b *renderedBackend) Fetch(ctx context.Context, url string, viewSource bool) (*PageContent, error) {
	return b.renderer.render(ctx, url, viewSource)
}
