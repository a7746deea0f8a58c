package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// renderSettle is how long the page is given to run its scripts after the
// body is ready. Company homepages are frequently client-rendered.
const renderSettle = 2 * time.Second

// RenderedHTML loads a URL in a headless browser and returns the HTML after
// scripts have run. Requires Chrome/Chromium on the system; callers should
// fall back to a plain GET when this fails.
func RenderedHTML(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(renderSettle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering of %s failed: %w", rawURL, err)
	}
	return html, nil
}
