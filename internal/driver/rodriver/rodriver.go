// Package rodriver implements driver.Driver on Chromium through rod.
package rodriver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/v0xg/pagekit/internal/driver"
	"github.com/v0xg/pagekit/internal/errs"
	"github.com/v0xg/pagekit/internal/locator"
)

// Options configures the launched browser
type Options struct {
	Bin        string // Chromium/Chrome/Edge executable; looked up when empty
	Headless   bool
	Width      int
	Height     int
	ProfileDir string // user data directory for authenticated sessions
	Logger     *zap.Logger
}

// Driver owns one launched browser and its active page
type Driver struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	ownsDir  bool
	log      *zap.Logger

	mu       sync.Mutex
	page     *rod.Page
	implicit time.Duration

	quitOnce sync.Once
	quitErr  error
}

var _ driver.Driver = (*Driver)(nil)

// Launch starts a browser and opens a blank page
func Launch(opts Options) (*Driver, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Width == 0 {
		opts.Width = 1280
	}
	if opts.Height == 0 {
		opts.Height = 720
	}

	bin := opts.Bin
	if bin == "" {
		path, found := launcher.LookPath()
		if !found {
			return nil, errs.New(errs.Session, "no Chromium executable found; set BROWSER_BIN")
		}
		bin = path
	}

	l := launcher.New().Bin(bin).Headless(opts.Headless)
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, errs.Wrap(errs.Session, "failed to launch browser", err)
	}
	log.Debug("Browser launched", zap.String("bin", bin), zap.Bool("headless", opts.Headless))

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, errs.Wrap(errs.Session, "failed to connect to browser", err)
	}

	d := &Driver{
		launcher: l,
		browser:  browser,
		ownsDir:  opts.ProfileDir == "",
		log:      log,
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = d.Quit()
		return nil, errs.Wrap(errs.Session, "failed to open page", err)
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = d.Quit()
		return nil, errs.Wrap(errs.Session, "failed to set viewport", err)
	}
	d.page = page

	return d, nil
}

// Page returns the active rod page
func (d *Driver) Page() *rod.Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.page
}

func (d *Driver) active(ctx context.Context) *rod.Page {
	return d.Page().Context(ctx)
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	page := d.active(ctx)
	if err := page.Navigate(url); err != nil {
		return sessionErr("navigation failed", err)
	}
	if err := page.WaitLoad(); err != nil {
		return sessionErr("page load failed", err)
	}
	d.log.Debug("Navigated", zap.String("url", url))
	return nil
}

func (d *Driver) Title(ctx context.Context) (string, error) {
	info, err := d.active(ctx).Info()
	if err != nil {
		return "", sessionErr("failed to read page info", err)
	}
	return info.Title, nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	info, err := d.active(ctx).Info()
	if err != nil {
		return "", sessionErr("failed to read page info", err)
	}
	return info.URL, nil
}

func (d *Driver) FindElements(ctx context.Context, ref locator.Ref) ([]driver.Element, error) {
	q, err := ref.Query()
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "invalid locator", err)
	}

	page := d.active(ctx)
	var found rod.Elements
	switch q.Kind {
	case locator.QueryXPath:
		found, err = page.ElementsX(q.Expr)
	default:
		found, err = page.Elements(q.Expr)
	}
	if err != nil {
		return nil, sessionErr(fmt.Sprintf("lookup of %s failed", ref), err)
	}

	out := make([]driver.Element, len(found))
	for i, el := range found {
		out[i] = &element{el: el}
	}
	return out, nil
}

func (d *Driver) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	res, err := d.active(ctx).Eval(script, args...)
	if err != nil {
		return nil, fmt.Errorf("script failed: %w", err)
	}
	return res.Value.Val(), nil
}

func (d *Driver) SetImplicitWait(dur time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.implicit = dur
}

func (d *Driver) ImplicitWait() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.implicit
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := d.active(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, sessionErr("screenshot failed", err)
	}
	return data, nil
}

func (d *Driver) WindowHandles(ctx context.Context) ([]string, error) {
	pages, err := d.browser.Context(ctx).Pages()
	if err != nil {
		return nil, sessionErr("failed to list windows", err)
	}
	handles := make([]string, len(pages))
	for i, p := range pages {
		handles[i] = string(p.TargetID)
	}
	return handles, nil
}

func (d *Driver) SwitchToWindow(ctx context.Context, handle string) error {
	pages, err := d.browser.Context(ctx).Pages()
	if err != nil {
		return sessionErr("failed to list windows", err)
	}
	for _, p := range pages {
		if string(p.TargetID) != handle {
			continue
		}
		if _, err := p.Activate(); err != nil {
			return sessionErr("failed to activate window", err)
		}
		d.mu.Lock()
		d.page = p
		d.mu.Unlock()
		return nil
	}
	return errs.New(errs.Session, "no such window: "+handle)
}

// Quit closes the browser and kills the process. Later calls return the
// first result.
func (d *Driver) Quit() error {
	d.quitOnce.Do(func() {
		if pages, err := d.browser.Pages(); err == nil {
			for _, p := range pages {
				d.quitErr = multierr.Append(d.quitErr, p.Close())
			}
		}
		if err := d.browser.Close(); err != nil {
			d.quitErr = multierr.Append(d.quitErr, fmt.Errorf("close browser: %w", err))
		}
		d.launcher.Kill()
		if d.ownsDir {
			d.launcher.Cleanup()
		}
		d.log.Debug("Browser closed")
	})
	return d.quitErr
}

func sessionErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errs.Wrap(errs.Session, op, err)
}
