package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"property-agent/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	defaultPageTimeout = 45 * time.Second
	defaultSettle      = 4 * time.Second
)

// Renderer loads a page and returns its rendered HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// ChromeOptions controls the headless browser.
type ChromeOptions struct {
	ExecPath    string        // empty means look the binary up
	PageTimeout time.Duration // per page load
	Settle      time.Duration // wait after the body is ready, for client-side rendering
}

// ChromeRenderer renders pages in one shared headless Chrome, one tab per page.
type ChromeRenderer struct {
	browserCtx  context.Context
	cancel      context.CancelFunc
	startOnce   sync.Once
	startErr    error
	pageTimeout time.Duration
	settle      time.Duration
	logger      *utils.Logger
}

// NewChromeRenderer prepares a headless Chrome allocator. The browser process
// starts on the first Render call and every later page opens a tab in it.
func NewChromeRenderer(opts ChromeOptions, logger *utils.Logger) *ChromeRenderer {
	chromeBin := opts.ExecPath
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", orDefault(chromeBin, "chromedp default"))

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	pageTimeout := opts.PageTimeout
	if pageTimeout <= 0 {
		pageTimeout = defaultPageTimeout
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = defaultSettle
	}

	return &ChromeRenderer{
		browserCtx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
		pageTimeout: pageTimeout,
		settle:      settle,
		logger:      logger,
	}
}

// Render opens url in a new tab, scrolls once to trigger lazy content and
// returns the document HTML.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	if err := r.start(); err != nil {
		return "", err
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.pageTimeout)
	defer cancelTimeout()

	var html string
	start := time.Now()
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.settle),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(r.settle/2),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("browser: render %s: %w", url, err)
	}

	r.logger.Debug("[browser] Rendered %s (%d bytes) in %v", url, len(html), time.Since(start).Round(time.Millisecond))
	return html, nil
}

// start launches the browser on the first call. Tabs opened from browserCtx
// afterwards share it and its log settings.
func (r *ChromeRenderer) start() error {
	r.startOnce.Do(func() {
		began := time.Now()
		if err := chromedp.Run(r.browserCtx); err != nil {
			r.startErr = fmt.Errorf("browser: start chrome: %w", err)
			return
		}
		r.logger.Debug("[browser] Chrome started in %v", time.Since(began).Round(time.Millisecond))
	})
	return r.startErr
}

// Close shuts the browser down.
func (r *ChromeRenderer) Close() {
	r.cancel()
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
