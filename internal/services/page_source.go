package services

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const pageUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PageSource loads a product page as a parsed HTML document
type PageSource interface {
	Fetch(ctx context.Context, target string) (*html.Node, error)
}

// NewPageSource picks a source by renderer name: "chrome" renders the page in
// headless Chrome, anything else fetches the raw HTML. Local file paths are
// always read from disk.
func NewPageSource(renderer string, logger *zap.Logger) PageSource {
	var remote PageSource
	if renderer == "chrome" {
		remote = NewChromePageSource(logger)
	} else {
		remote = NewHTTPPageSource()
	}
	return &routingPageSource{remote: remote, file: FilePageSource{}}
}

type routingPageSource struct {
	remote PageSource
	file   FilePageSource
}

func (s *routingPageSource) Fetch(ctx context.Context, target string) (*html.Node, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return s.remote.Fetch(ctx, target)
	}
	return s.file.Fetch(ctx, strings.TrimPrefix(target, "file://"))
}

// FilePageSource reads a saved page from disk
type FilePageSource struct{}

func (FilePageSource) Fetch(_ context.Context, path string) (*html.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

// HTTPPageSource fetches the server-rendered HTML of a page
type HTTPPageSource struct {
	client *http.Client
}

// NewHTTPPageSource creates a page source backed by a plain HTTP client
func NewHTTPPageSource() *HTTPPageSource {
	return &HTTPPageSource{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPPageSource) Fetch(ctx context.Context, target string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", pageUserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page fetch failed: status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

// ChromePageSource renders the page in headless Chrome so that prices
// injected by JavaScript are visible to the detector
type ChromePageSource struct {
	logger     *zap.Logger
	renderWait time.Duration
	timeout    time.Duration
}

// NewChromePageSource creates a chromedp-backed page source
func NewChromePageSource(logger *zap.Logger) *ChromePageSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromePageSource{
		logger:     logger.Named("chrome"),
		renderWait: 2 * time.Second,
		timeout:    60 * time.Second,
	}
}

func (s *ChromePageSource) Fetch(ctx context.Context, target string) (*html.Node, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(pageUserAgent),
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()
	runCtx, cancel := context.WithTimeout(browserCtx, s.timeout)
	defer cancel()

	var outer string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.renderWait),
		chromedp.OuterHTML("html", &outer, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome render failed: %w", err)
	}
	s.logger.Debug("Rendered page", zap.String("url", target), zap.Int("bytes", len(outer)))

	doc, err := html.Parse(strings.NewReader(outer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered page: %w", err)
	}
	return doc, nil
}
