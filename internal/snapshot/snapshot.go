// Package snapshot renders a running dashboard in headless Chrome and
// captures it as a PNG.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
)

// ReadySelector matches once dashboard.js has drawn every chart
const ReadySelector = `body[data-ready="1"]`

// Options controls a capture
type Options struct {
	URL      string
	Tab      string // eda, clustering or time; empty keeps the first tab
	Width    int64
	Height   int64
	Quality  int
	Settle   time.Duration // wait after ready so chart animations finish
	Timeout  time.Duration
	Headless bool
}

// DefaultOptions returns the options used by bikectl snapshot
func DefaultOptions() Options {
	return Options{
		URL:      "http://localhost:8080/",
		Width:    1400,
		Height:   900,
		Quality:  100,
		Settle:   1500 * time.Millisecond,
		Timeout:  60 * time.Second,
		Headless: true,
	}
}

// Validate checks the options before a browser is started
func (o Options) Validate() error {
	u, err := url.Parse(o.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", o.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", o.URL)
	}
	if o.Width <= 0 || o.Height <= 0 {
		return errors.New("viewport width and height must be positive")
	}
	if o.Quality < 0 || o.Quality > 100 {
		return fmt.Errorf("quality %d out of range 0-100", o.Quality)
	}
	if o.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// Tasks builds the browser actions for one capture into buf
func Tasks(o Options, buf *[]byte) chromedp.Tasks {
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(o.Width, o.Height),
		chromedp.Navigate(o.URL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
	}
	if o.Tab != "" {
		tasks = append(tasks, chromedp.Click(fmt.Sprintf(`.tabs button[data-tab=%q]`, o.Tab), chromedp.ByQuery))
	}
	if o.Settle > 0 {
		tasks = append(tasks, chromedp.Sleep(o.Settle))
	}
	return append(tasks, chromedp.FullScreenshot(buf, o.Quality))
}

// Capture opens the dashboard and returns the PNG bytes
func Capture(ctx context.Context, o Options, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "snapshot"))

	if err := o.Validate(); err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.WindowSize(int(o.Width), int(o.Height)),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, o.Timeout)
	defer cancel()

	start := time.Now()
	var buf []byte
	if err := chromedp.Run(runCtx, Tasks(o, &buf)); err != nil {
		return nil, fmt.Errorf("snapshot of %s failed: %w", o.URL, err)
	}

	logger.InfoContext(ctx, "snapshot captured",
		slog.String("url", o.URL),
		slog.String("tab", o.Tab),
		slog.Int("bytes", len(buf)),
		slog.Duration("duration", time.Since(start)))
	return buf, nil
}

// WriteFile captures the dashboard into path, creating parent directories
func WriteFile(ctx context.Context, o Options, path string, logger *slog.Logger) (int, error) {
	buf, err := Capture(ctx, o, logger)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return 0, fmt.Errorf("failed to write snapshot: %w", err)
	}
	return len(buf), nil
}
