package scraper

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Actor is the headless-browser-backed scraping collaborator behind
// the scheduled-scraping job types `medical_society` and
// `pharma_pipeline` (SPEC_FULL.md §2, grounded on
// scheduler_worker.py's closed job-type variant). Narrow on purpose:
// one page-text fetch per call, no session/cookie plumbing exposed to
// callers.
type Actor struct {
	browser *rod.Browser
}

func New() *Actor {
	return &Actor{browser: rod.New()}
}

func (a *Actor) Connect() error {
	return a.browser.Connect()
}

func (a *Actor) Close() error {
	return a.browser.Close()
}

// FetchText navigates to url and returns the rendered page's visible
// text, bounded by timeout.
func (a *Actor) FetchText(ctx context.Context, url string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	page, err := a.browser.Context(ctx).Timeout(timeout).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", err
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return "", err
	}
	body, err := page.Element("body")
	if err != nil {
		return "", err
	}
	return body.Text()
}
