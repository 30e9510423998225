package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/polzovatel/a11y-action-space/internal/resolve"
)

const (
	defaultNavTimeout = 30 * time.Second
	defaultActionTime = 10 * time.Second
	headlessEnv       = "A11Y_HEADLESS"
)

// Controller exposes the browser operations the pipeline needs: page
// lifecycle, stability waits, and acting on an already-resolved target.
type Controller interface {
	Close(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
	GoBack(ctx context.Context) error
	WaitForStableDOM(ctx context.Context, timeout time.Duration) error
	SaveState(ctx context.Context, path string) error
	Page() playwright.Page

	Click(ctx context.Context, target resolve.UniqueSelector) error
	Fill(ctx context.Context, target resolve.UniqueSelector, text string) error
	SelectOption(ctx context.Context, target resolve.UniqueSelector, option string) error
	SetChecked(ctx context.Context, target resolve.UniqueSelector, checked bool) error
}

// Launcher owns playwright lifecycle.
type Launcher struct {
	pw       *playwright.Playwright
	browser  playwright.Browser
	headless bool
}

func NewLauncher(ctx context.Context) (*Launcher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	headless := parseBoolEnv(headlessEnv, true)
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	return &Launcher{pw: pw, browser: browser, headless: headless}, nil
}

func (l *Launcher) NewController(ctx context.Context, storagePath string) (Controller, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(true),
	}
	if strings.TrimSpace(storagePath) != "" {
		if _, err := os.Stat(storagePath); err == nil {
			opts.StorageStatePath = playwright.String(storagePath)
		}
	}
	bctx, err := l.browser.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("new context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}
	page.SetDefaultTimeout(float64(defaultNavTimeout.Milliseconds()))
	return &controller{context: bctx, page: page}, nil
}

func (l *Launcher) Close() error {
	if l.browser != nil {
		_ = l.browser.Close()
	}
	if l.pw != nil {
		return l.pw.Stop()
	}
	return nil
}

type controller struct {
	context playwright.BrowserContext
	page    playwright.Page
}

func (c *controller) Page() playwright.Page {
	return c.page
}

func (c *controller) Close(ctx context.Context) error {
	_ = ctx
	if c.page != nil {
		_ = c.page.Close()
	}
	if c.context != nil {
		return c.context.Close()
	}
	return nil
}

func (c *controller) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(defaultNavTimeout.Milliseconds())),
	})
	return wrap(err)
}

func (c *controller) GoBack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.page.GoBack()
	return wrap(err)
}

func (c *controller) Click(ctx context.Context, target resolve.UniqueSelector) error {
	loc, err := c.materialize(ctx, target)
	if err != nil {
		return err
	}
	_ = loc.ScrollIntoViewIfNeeded()
	return wrap(loc.Click())
}

func (c *controller) Fill(ctx context.Context, target resolve.UniqueSelector, text string) error {
	loc, err := c.materialize(ctx, target)
	if err != nil {
		return err
	}
	return wrap(loc.Fill(text))
}

func (c *controller) SelectOption(ctx context.Context, target resolve.UniqueSelector, option string) error {
	loc, err := c.materialize(ctx, target)
	if err != nil {
		return err
	}
	_, err = loc.SelectOption(playwright.SelectOptionValues{
		Labels: &[]string{option},
	})
	return wrap(err)
}

func (c *controller) SetChecked(ctx context.Context, target resolve.UniqueSelector, checked bool) error {
	loc, err := c.materialize(ctx, target)
	if err != nil {
		return err
	}
	return wrap(loc.SetChecked(checked))
}

// materialize turns a resolved target back into a live locator, waiting
// for visibility. The primary is rebuilt from the recorded query steps
// when they exist, since text filters do not survive a round trip
// through the selector string; fallback selectors are tried in order
// when the primary no longer matches.
func (c *controller) materialize(ctx context.Context, target resolve.UniqueSelector) (playwright.Locator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame := c.frameThrough(target.Segments)
	var primary playwright.Locator
	if len(target.Steps) > 0 {
		primary = chainLocator(c.page, frame, target.Steps)
	} else {
		primary = c.applySelector(frame, target.Selector)
	}
	candidates := []playwright.Locator{primary}
	for _, sel := range target.Fallbacks {
		candidates = append(candidates, c.applySelector(frame, sel))
	}
	var lastErr error
	for _, cand := range candidates {
		loc := cand.First()
		err := loc.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: playwright.Float(float64(defaultActionTime.Milliseconds())),
		})
		if err == nil {
			return loc, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("locate %s: %w", target.ID, lastErr)
}

// frameThrough walks iframe boundaries. Shadow hops need no traversal:
// selector engines pierce open shadow roots on their own.
func (c *controller) frameThrough(segments []resolve.PathSegment) playwright.FrameLocator {
	var frame playwright.FrameLocator
	for _, seg := range segments {
		if seg.Kind != resolve.SegmentFrame {
			continue
		}
		if frame == nil {
			frame = c.page.FrameLocator(seg.Selector)
		} else {
			frame = frame.FrameLocator(seg.Selector)
		}
	}
	return frame
}

func (c *controller) applySelector(frame playwright.FrameLocator, selector string) playwright.Locator {
	if frame != nil {
		return frame.Locator(selector)
	}
	return c.page.Locator(selector)
}

func (c *controller) SaveState(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	state, err := c.context.StorageState()
	if err != nil {
		return wrap(err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal storage: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// WaitForStableDOM waits for network idle plus a quiet period without
// DOM mutations, replacing fixed sleeps between observation steps.
func (c *controller) WaitForStableDOM(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if err := c.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		_ = c.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State:   playwright.LoadStateDomcontentloaded,
			Timeout: playwright.Float(1000),
		})
	}

	script := `
		() => {
			return new Promise((resolve) => {
				let timeoutId;
				const observer = new MutationObserver(() => {
					clearTimeout(timeoutId);
					timeoutId = setTimeout(() => {
						observer.disconnect();
						resolve();
					}, 300);
				});
				observer.observe(document.body, {
					childList: true,
					subtree: true,
					attributes: true
				});
				timeoutId = setTimeout(() => {
					observer.disconnect();
					resolve();
				}, 300);
			});
		}
	`
	_, err := c.page.Evaluate(script)
	return wrap(err)
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("playwright: %w", err)
}

func parseBoolEnv(name string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(name))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
