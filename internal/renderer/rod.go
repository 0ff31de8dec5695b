package renderer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"danawa/crawler/internal/config"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

const pollInterval = 250 * time.Millisecond

type rodRenderer struct {
	rl                ratelimit.Limiter
	launcher          *launcher.Launcher
	browser           *rod.Browser
	page              *rod.Page
	navigationTimeout time.Duration

	// first element of each stale-watched selector in the last snapshot
	anchors map[string]*rod.Element
}

// NewRodRenderer launches a browser and opens the single page the crawl drives.
func NewRodRenderer(cfg config.RendererConfig) (PageRenderer, error) {
	bin := cfg.BinPath
	if bin == "" {
		log.Info("No browser binary configured, downloading default...")
		path, err := launcher.NewBrowser().Get()
		if err != nil {
			return nil, fmt.Errorf("failed to download browser: %w", err)
		}
		bin = path
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Bin(bin).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("disable-gpu")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxActionsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxActionsPerSecond)
	}

	log.Infof("🌐 Browser started (headless=%t)", cfg.Headless)
	return &rodRenderer{
		rl:                rl,
		launcher:          l,
		browser:           browser,
		page:              page,
		navigationTimeout: time.Duration(cfg.NavigationTimeoutSec) * time.Second,
		anchors:           make(map[string]*rod.Element),
	}, nil
}

func (r *rodRenderer) pageFor(ctx context.Context) *rod.Page {
	return r.page.Context(ctx)
}

func (r *rodRenderer) Navigate(ctx context.Context, url string) error {
	r.rl.Take()

	navCtx := ctx
	if r.navigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, r.navigationTimeout)
		defer cancel()
	}

	page := r.pageFor(navCtx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	clear(r.anchors)

	log.Debugf("Navigated to %s", url)
	return nil
}

func (r *rodRenderer) Click(ctx context.Context, target Target) error {
	r.rl.Take()

	page := r.pageFor(ctx)
	var (
		has bool
		el  *rod.Element
		err error
	)
	if target.LinkText != "" {
		has, el, err = page.HasR("a", "/^\\s*"+regexpEscape(target.LinkText)+"\\s*$/")
	} else {
		has, el, err = page.Has(target.Selector)
	}
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", target, err)
	}
	if !has {
		return fmt.Errorf("element %s not found", target)
	}

	// A script click works on links hidden behind overlays, a mouse click does not.
	if _, err := el.Eval(`() => this.click()`); err != nil {
		return fmt.Errorf("failed to click %s: %w", target, err)
	}
	return nil
}

func (r *rodRenderer) SelectOption(ctx context.Context, selector, value string) error {
	r.rl.Take()

	has, el, err := r.pageFor(ctx).Has(selector)
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", selector, err)
	}
	if !has {
		return fmt.Errorf("select %s not found", selector)
	}
	option := `option[value=` + strconv.Quote(value) + `]`
	if err := el.Select([]string{option}, true, rod.SelectorTypeCSSSector); err != nil {
		return fmt.Errorf("failed to select %s in %s: %w", value, selector, err)
	}
	return nil
}

func (r *rodRenderer) Eval(ctx context.Context, script string) error {
	r.rl.Take()

	if _, err := r.pageFor(ctx).Eval(script); err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}
	return nil
}

func (r *rodRenderer) WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var err error
	switch cond.Kind {
	case Present:
		r.watch(cond.Selector)
		_, err = r.pageFor(waitCtx).Element(cond.Selector)
	case Absent:
		err = r.waitAbsent(waitCtx, cond.Selector)
	case Stale:
		err = r.waitStale(waitCtx, cond.Selector)
	default:
		return fmt.Errorf("unsupported condition %s", cond)
	}

	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w after %s waiting for %s", ErrWaitTimeout, timeout, cond)
	}
	return fmt.Errorf("failed waiting for %s: %w", cond, err)
}

func (r *rodRenderer) waitAbsent(ctx context.Context, selector string) error {
	has, el, err := r.pageFor(ctx).Has(selector)
	if err != nil {
		return err
	}
	if !has {
		return nil
	}
	return el.Context(ctx).WaitInvisible()
}

// watch makes Markup record the first element of selector as its stale anchor.
func (r *rodRenderer) watch(selector string) {
	if _, ok := r.anchors[selector]; !ok {
		r.anchors[selector] = nil
	}
}

func (r *rodRenderer) waitStale(ctx context.Context, selector string) error {
	r.watch(selector)
	anchor := r.anchors[selector]
	if anchor == nil {
		// Nothing to compare against yet.
		_, err := r.pageFor(ctx).Element(selector)
		return err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		res, err := anchor.Context(ctx).Eval(`() => this.isConnected`)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// The remote object is gone, so the node is gone.
			break
		}
		if !res.Value.Bool() {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	_, err := r.pageFor(ctx).Element(selector)
	return err
}

func (r *rodRenderer) Markup(ctx context.Context) (string, error) {
	page := r.pageFor(ctx)
	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}

	for selector := range r.anchors {
		has, el, err := page.Has(selector)
		if err != nil || !has {
			r.anchors[selector] = nil
			continue
		}
		r.anchors[selector] = el
	}
	return html, nil
}

func (r *rodRenderer) Close() error {
	var errs []error
	if r.page != nil {
		if err := r.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if r.launcher != nil {
		r.launcher.Cleanup()
	}
	log.Info("🌐 Browser closed")
	return errors.Join(errs...)
}
