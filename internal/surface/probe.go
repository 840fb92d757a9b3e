// Package surface provides video surfaces for playback sessions: a Probe that
// checks embed pages over HTTP, and a Remote driven by an external player
// such as a browser iframe.
package surface

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"zetflix/internal/httputil"
	xlog "zetflix/internal/log"
)

const maxPage = 2 * 1024 * 1024

var (
	// ErrNotFoundPage is reported for a 2xx page that says the title does not exist.
	ErrNotFoundPage = errors.New("embed page reports not found")
	// ErrNoPlayer is reported for a page with no player markup at all.
	ErrNoPlayer = errors.New("embed page has no player")
)

// Probe is a surface that loads an embed URL by fetching it and inspecting the
// HTML. It never plays anything; the session's winning URL is opened elsewhere.
type Probe struct {
	client  *http.Client
	timeout time.Duration
	log     zerolog.Logger

	mu        sync.Mutex
	onSuccess func()
	onError   func(error)
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// ProbeOption configures a Probe.
type ProbeOption func(*Probe)

// WithHTTPClient sets the client used for fetching embed pages.
func WithHTTPClient(c *http.Client) ProbeOption {
	return func(p *Probe) { p.client = c }
}

// WithProbeTimeout bounds each fetch.
func WithProbeTimeout(d time.Duration) ProbeOption {
	return func(p *Probe) { p.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) ProbeOption {
	return func(p *Probe) { p.log = l }
}

// NewProbe creates a probe surface.
func NewProbe(opts ...ProbeOption) *Probe {
	p := &Probe{
		timeout: 10 * time.Second,
		log:     xlog.WithComponent("probe"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = httputil.NewClient(p.timeout)
	}
	return p
}

func (p *Probe) OnLoadSuccess(cb func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSuccess = cb
}

func (p *Probe) OnLoadError(cb func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = cb
}

// SetSource abandons any running fetch and starts checking url. The callbacks
// registered at this point receive the result.
func (p *Probe) SetSource(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	p.cancel = cancel
	success, fail := p.onSuccess, p.onError

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()

		err := p.check(ctx, url)
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		if err != nil {
			p.log.Debug().Err(err).Str("url", httputil.Redact(url)).Msg("probe failed")
			if fail != nil {
				fail(err)
			}
			return
		}
		if success != nil {
			success()
		}
	}()
}

// Clear abandons any running fetch.
func (p *Probe) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Close clears the probe and waits for running fetches to return.
func (p *Probe) Close() {
	p.Clear()
	p.wg.Wait()
}

func (p *Probe) check(ctx context.Context, url string) error {
	resp, err := httputil.Get(ctx, p.client, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &httputil.StatusError{Code: resp.StatusCode, URL: httputil.Redact(url)}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPage))
	if err != nil {
		return fmt.Errorf("parsing HTML: %w", err)
	}
	return inspect(doc)
}

// inspect flags soft-404 pages: a not-found title, or no player markup.
func inspect(doc *goquery.Document) error {
	title := strings.ToLower(strings.TrimSpace(doc.Find("title").First().Text()))
	if strings.Contains(title, "404") || strings.Contains(title, "not found") {
		return fmt.Errorf("%w: %q", ErrNotFoundPage, title)
	}
	if doc.Find("iframe, video, source, script").Length() == 0 {
		return ErrNoPlayer
	}
	return nil
}
