// Package crawler drives one sub-category listing stream page by page
// through a rendered browser session and collects its records.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"danawa/crawler/internal/config"
	"danawa/crawler/internal/dedup"
	"danawa/crawler/internal/domain"
	"danawa/crawler/internal/domain/event"
	"danawa/crawler/internal/parser"
	"danawa/crawler/internal/renderer"
	"danawa/crawler/internal/report"

	log "github.com/sirupsen/logrus"
)

type State int

const (
	StateInitializing State = iota
	StateLoading
	StateExtracting
	StateAdvancing
	StateTerminated
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateLoading:
		return "loading"
	case StateExtracting:
		return "extracting"
	case StateAdvancing:
		return "advancing"
	case StateTerminated:
		return "terminated"
	case StateAborted:
		return "aborted"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Termination names the signal that ended a crawl.
type Termination string

const (
	TerminationTotal      Termination = "total"
	TerminationNextLink   Termination = "next-link"
	TerminationStagnation Termination = "stagnation"
	TerminationMaxPages   Termination = "max-pages"
)

// Result describes one finished or aborted sub-category crawl.
type Result struct {
	SubCategory domain.SubCategory
	URL         string
	Pages       int // pages fully extracted
	TotalItems  int
	TotalKnown  bool
	Stats       domain.PageStats
	Termination Termination // empty when aborted
	Duration    time.Duration
}

// pageState lives for one sub-category crawl only.
type pageState struct {
	page          int
	total         int
	totalKnown    bool
	discovered    bool
	expectedPages int
	stats         domain.PageStats
}

// discover fixes the expected total once; later pages never change it.
func (s *pageState) discover(lp *parser.ListingPage, pageSize int) {
	if s.discovered {
		return
	}
	s.discovered = true
	if !lp.TotalKnown {
		return
	}
	s.total = lp.TotalItems
	s.totalKnown = true
	s.expectedPages = (lp.TotalItems + pageSize - 1) / pageSize
}

type Controller struct {
	cfg        config.CatalogConfig
	renderer   renderer.PageRenderer
	parser     *parser.CatalogParser
	normalizer *parser.Normalizer
	metrics    *Metrics
	reporter   report.Reporter
}

func NewController(
	cfg config.CatalogConfig,
	pageRenderer renderer.PageRenderer,
	catalogParser *parser.CatalogParser,
	normalizer *parser.Normalizer,
	metrics *Metrics,
	reporter report.Reporter,
) *Controller {
	if reporter == nil {
		reporter = report.Nop()
	}
	return &Controller{
		cfg:        cfg,
		renderer:   pageRenderer,
		parser:     catalogParser,
		normalizer: normalizer,
		metrics:    metrics,
		reporter:   reporter,
	}
}

// Run crawls one sub-category into set. An *AbortError means this
// sub-category stopped early; records inserted before the abort stay in set.
// A context error is returned as is.
func (c *Controller) Run(ctx context.Context, category domain.Category, sub domain.SubCategory, set *dedup.Set) (*Result, error) {
	url := c.cfg.CategoryURL(sub)
	started := time.Now()
	result := &Result{SubCategory: sub, URL: url}
	st := &pageState{page: 1}

	var (
		abort *AbortError
		page  *parser.ListingPage
	)
	fail := func(cause Cause, err error) State {
		abort = &AbortError{Cause: cause, URL: url, Page: st.page, Err: err}
		return StateAborted
	}

	state := StateInitializing
	for {
		log.Debugf("%s/%s page %d: %s", category.Name, sub, st.page, state)

		switch state {
		case StateInitializing:
			if err := c.setup(ctx, url); err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				state = fail(CauseSetup, err)
				continue
			}
			state = StateLoading

		case StateLoading:
			loadStarted := time.Now()
			if err := c.waitReady(ctx, st.page); err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				cause := CauseRender
				if errors.Is(err, renderer.ErrWaitTimeout) {
					cause = CauseTimeout
				}
				state = fail(cause, err)
				continue
			}
			c.metrics.ObservePageLoad(time.Since(loadStarted))

			html, err := c.renderer.Markup(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				state = fail(CauseRender, err)
				continue
			}
			page, err = c.parser.ParseListingPage(html)
			if err != nil {
				state = fail(CauseRender, err)
				continue
			}

			if !st.discovered {
				st.discover(page, c.cfg.PageSize)
				if st.totalKnown {
					log.Infof("📦 %s/%s: %d products over %d pages", category.Name, sub, st.total, st.expectedPages)
				} else {
					c.metrics.IncUnknownTotal(category.Name)
					log.Warnf("⚠️ %s/%s: product count not found, falling back to heuristic termination", category.Name, sub)
				}
			}
			state = StateExtracting

		case StateExtracting:
			stats := c.extract(page, set)
			st.stats.Add(stats)
			result.Pages = st.page
			c.metrics.ObservePage(category.Name, stats.Inserted, stats.Malformed, stats.Duplicates)
			c.emit(ctx, &event.PageDoneEvent{
				CategoryName: category.Name,
				SubCategory:  sub,
				PageNumber:   st.page,
				TotalPages:   st.expectedPages,
				Stats:        stats,
				Collected:    set.Len(),
			})

			if reason, done := c.terminate(st, page, stats); done {
				result.Termination = reason
				state = StateTerminated
				continue
			}
			state = StateAdvancing

		case StateAdvancing:
			script := fmt.Sprintf(c.cfg.AdvanceScript, st.page+1)
			if err := c.renderer.Eval(ctx, script); err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				state = fail(CauseInteraction, err)
				continue
			}
			st.page++
			state = StateLoading

		case StateTerminated:
			c.finish(result, st, started)
			log.Infof("✅ %s/%s done after %d pages (%s): %d new records",
				category.Name, sub, result.Pages, result.Termination, st.stats.Inserted)
			return result, nil

		case StateAborted:
			c.finish(result, st, started)
			c.metrics.IncAbort(abort.Cause)
			c.emit(ctx, &event.SubCategoryAbortedEvent{
				CategoryName: category.Name,
				SubCategory:  sub,
				URL:          url,
				PageNumber:   abort.Page,
				Cause:        string(abort.Cause),
				Error:        abort.Err.Error(),
			})
			return result, abort

		default:
			return result, fmt.Errorf("unknown crawl state %s", state)
		}
	}
}

// setup opens the stream sorted by newest with the largest page size.
func (c *Controller) setup(ctx context.Context, url string) error {
	if err := c.renderer.Navigate(ctx, url); err != nil {
		return err
	}
	if c.cfg.SortLinkText != "" {
		if err := c.renderer.Click(ctx, renderer.Target{LinkText: c.cfg.SortLinkText}); err != nil {
			return fmt.Errorf("sort by newest: %w", err)
		}
	}
	if c.cfg.PageSizeSelector != "" {
		if err := c.renderer.SelectOption(ctx, c.cfg.PageSizeSelector, strconv.Itoa(c.cfg.PageSize)); err != nil {
			return fmt.Errorf("page size: %w", err)
		}
	}
	return nil
}

// waitReady blocks until the listing of page n is rendered. The loading
// indicator is preferred; without one, later pages wait for the previous
// listing to be replaced.
func (c *Controller) waitReady(ctx context.Context, n int) error {
	timeout := c.cfg.LoadTimeout
	if c.cfg.LoadingIndicator != "" {
		return c.renderer.WaitUntil(ctx, renderer.ElementAbsent(c.cfg.LoadingIndicator), timeout)
	}
	if n == 1 {
		return c.renderer.WaitUntil(ctx, renderer.ElementPresent(c.cfg.ListingSelector), timeout)
	}
	return c.renderer.WaitUntil(ctx, renderer.ElementStale(c.cfg.ListingSelector), timeout)
}

func (c *Controller) extract(page *parser.ListingPage, set *dedup.Set) domain.PageStats {
	var stats domain.PageStats
	for raw := range page.Records() {
		record, err := c.normalizer.Normalize(raw)
		if err != nil {
			stats.Malformed++
			log.Debugf("Skipping record: %v", err)
			continue
		}
		if set.Insert(record) {
			stats.Inserted++
		} else {
			stats.Duplicates++
		}
	}
	return stats
}

// terminate decides whether the page just extracted was the last one.
func (c *Controller) terminate(st *pageState, page *parser.ListingPage, stats domain.PageStats) (Termination, bool) {
	if st.totalKnown {
		if st.page >= st.expectedPages {
			return TerminationTotal, true
		}
	} else {
		if c.cfg.NextPageSelector != "" && !page.HasNext {
			return TerminationNextLink, true
		}
		if stats.Inserted == 0 {
			return TerminationStagnation, true
		}
	}
	if st.page >= c.cfg.MaxPages {
		log.Warnf("⚠️ Stopping at page cap %d", c.cfg.MaxPages)
		return TerminationMaxPages, true
	}
	return "", false
}

func (c *Controller) finish(result *Result, st *pageState, started time.Time) {
	result.TotalItems = st.total
	result.TotalKnown = st.totalKnown
	result.Stats = st.stats
	result.Duration = time.Since(started)
}

func (c *Controller) emit(ctx context.Context, e event.Event) {
	if err := c.reporter.Report(ctx, e); err != nil {
		log.Warnf("Failed to report %s: %v", e.EventType(), err)
	}
}
