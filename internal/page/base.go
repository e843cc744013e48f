// Package page is the locator/action layer shared by every page object. Each
// call resolves its element reference afresh under an explicit wait policy,
// highlights the live node and then acts on it. Handles never escape a call.
package page

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/v0xg/pagekit/internal/driver"
	"github.com/v0xg/pagekit/internal/errs"
	"github.com/v0xg/pagekit/internal/highlight"
	"github.com/v0xg/pagekit/internal/locator"
	"github.com/v0xg/pagekit/internal/wait"
)

// Base is the interactable-page capability set. Concrete pages hold one.
type Base struct {
	drv       driver.Driver
	log       *zap.Logger
	policy    wait.Policy
	style     string
	highlight bool
}

// Option configures a Base
type Option func(*Base)

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(b *Base) {
		if log != nil {
			b.log = log
		}
	}
}

// WithPolicy replaces the default explicit wait used by actions and queries.
func WithPolicy(p wait.Policy) Option {
	return func(b *Base) { b.policy = p }
}

// WithHighlight sets the border style applied on resolution. An empty style
// turns highlighting off.
func WithHighlight(style string) Option {
	return func(b *Base) {
		b.style = style
		b.highlight = style != ""
	}
}

// New returns a Base driving drv.
func New(drv driver.Driver, opts ...Option) *Base {
	b := &Base{
		drv:       drv,
		log:       zap.NewNop(),
		policy:    wait.Default(),
		style:     highlight.DefaultStyle,
		highlight: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Driver returns the underlying session
func (b *Base) Driver() driver.Driver { return b.drv }

// Logger returns the logger pages should log through
func (b *Base) Logger() *zap.Logger { return b.log }

// Policy returns the default explicit wait
func (b *Base) Policy() wait.Policy { return b.policy }

// Resolve waits until an element matched by ref satisfies the policy
// condition and returns it, highlighted. The driver's implicit wait acts as a
// floor on the policy timeout. Elapsed waits fail with errs.ElementNotFound.
func (b *Base) Resolve(ctx context.Context, ref locator.Ref, policy wait.Policy) (driver.Element, error) {
	policy = policy.AtLeast(b.drv.ImplicitWait())

	var found driver.Element
	err := wait.Until(ctx, policy, func(ctx context.Context) (bool, error) {
		els, err := b.drv.FindElements(ctx, ref)
		if err != nil {
			return false, err
		}
		for _, el := range els {
			ok, err := satisfies(ctx, el, policy.Condition)
			if err != nil {
				if fatal(err) {
					return false, err
				}
				// Nodes detached mid-probe are retried on the next poll.
				continue
			}
			if ok {
				found = el
				return true, nil
			}
		}
		return false, nil
	})
	if errors.Is(err, wait.ErrTimeout) {
		b.log.Debug("Element not found", zap.Stringer("ref", ref), zap.Stringer("policy", policy))
		return nil, errs.Wrap(errs.ElementNotFound, fmt.Sprintf("no element %s is %s", ref, policy.Condition), err)
	}
	if err != nil {
		return nil, err
	}

	if b.highlight {
		if err := highlight.Apply(ctx, found, b.style); err != nil {
			return nil, fmt.Errorf("highlight %s: %w", ref, err)
		}
	}
	b.log.Debug("Resolved", zap.Stringer("ref", ref), zap.Stringer("policy", policy))
	return found, nil
}

func satisfies(ctx context.Context, el driver.Element, c wait.Condition) (bool, error) {
	switch c {
	case wait.Present:
		return true, nil
	case wait.Visible:
		return el.Visible(ctx)
	case wait.Clickable:
		visible, err := el.Visible(ctx)
		if err != nil || !visible {
			return false, err
		}
		return el.Interactable(ctx)
	case wait.Selected:
		return el.Selected(ctx)
	default:
		return false, errs.New(errs.InvalidArgument, "unknown wait condition "+string(c))
	}
}

// fatal reports whether err ends a wait instead of counting as "not yet".
func fatal(err error) bool {
	return errs.Is(err, errs.Session) || errs.Is(err, errs.InvalidArgument) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Lookup resolves ref with the default policy and reports absence as a
// NotFound result rather than an error.
func (b *Base) Lookup(ctx context.Context, ref locator.Ref) Result {
	return b.LookupWithin(ctx, ref, b.policy)
}

// LookupWithin is Lookup with an explicit policy.
func (b *Base) LookupWithin(ctx context.Context, ref locator.Ref, policy wait.Policy) Result {
	el, err := b.Resolve(ctx, ref, policy)
	switch {
	case err == nil:
		return Result{el: el}
	case errs.Is(err, errs.ElementNotFound):
		return Result{missing: err}
	default:
		return Result{err: err}
	}
}

// IsDisplayed reports whether ref becomes visible within the default policy.
// Absence is false; only session and context failures are returned.
func (b *Base) IsDisplayed(ctx context.Context, ref locator.Ref) (bool, error) {
	r := b.Lookup(ctx, ref)
	if err := r.Err(); err != nil {
		return false, err
	}
	if !r.Found() {
		b.log.Info("Element not displayed", zap.Stringer("ref", ref), zap.Error(r.Reason()))
	}
	return r.Found(), nil
}

// act resolves ref with the default policy and runs fn on the live handle.
func (b *Base) act(ctx context.Context, ref locator.Ref, action string, fn func(el driver.Element) error) error {
	el, err := b.Resolve(ctx, ref, b.policy)
	if err != nil {
		return err
	}
	if err := fn(el); err != nil {
		return actionErr(ref, action, err)
	}
	b.log.Debug("Action done", zap.String("action", action), zap.Stringer("ref", ref))
	return nil
}

func actionErr(ref locator.Ref, action string, err error) error {
	if fatal(err) {
		return err
	}
	return errs.Wrap(errs.ElementNotInteractable, fmt.Sprintf("%s %s", action, ref), err)
}

// Type sends text to the element
func (b *Base) Type(ctx context.Context, ref locator.Ref, text string) error {
	return b.act(ctx, ref, "type", func(el driver.Element) error {
		return el.SendKeys(ctx, text)
	})
}

// Clear empties an input
func (b *Base) Clear(ctx context.Context, ref locator.Ref) error {
	return b.act(ctx, ref, "clear", func(el driver.Element) error {
		return el.Clear(ctx)
	})
}

// Click waits for the element to become visible and then clickable before
// clicking it. A visible element that never becomes clickable fails with
// errs.ElementNotInteractable.
func (b *Base) Click(ctx context.Context, ref locator.Ref) error {
	return b.act(ctx, ref, "click", func(el driver.Element) error {
		policy := b.policy.For(wait.Clickable).AtLeast(b.drv.ImplicitWait())
		err := wait.Until(ctx, policy, func(ctx context.Context) (bool, error) {
			return el.Interactable(ctx)
		})
		if errors.Is(err, wait.ErrTimeout) {
			return errs.Wrap(errs.ElementNotInteractable, fmt.Sprintf("%s is visible but not clickable", ref), err)
		}
		if err != nil {
			return err
		}
		return el.Click(ctx)
	})
}

// SelectOption selects the option of a <select> matched by text, index or value
func (b *Base) SelectOption(ctx context.Context, ref locator.Ref, by driver.OptionBy, value string) error {
	return b.act(ctx, ref, "select", func(el driver.Element) error {
		return el.SetOption(ctx, by, value, true)
	})
}

// DeselectOption deselects an option of a multi-select
func (b *Base) DeselectOption(ctx context.Context, ref locator.Ref, by driver.OptionBy, value string) error {
	return b.act(ctx, ref, "deselect", func(el driver.Element) error {
		return el.SetOption(ctx, by, value, false)
	})
}

// SelectIndex is SelectOption by zero-based index.
func (b *Base) SelectIndex(ctx context.Context, ref locator.Ref, index int) error {
	return b.SelectOption(ctx, ref, driver.OptionIndex, strconv.Itoa(index))
}

func (b *Base) Hover(ctx context.Context, ref locator.Ref) error {
	return b.act(ctx, ref, "hover", func(el driver.Element) error {
		return el.Hover(ctx)
	})
}

func (b *Base) ScrollIntoView(ctx context.Context, ref locator.Ref) error {
	return b.act(ctx, ref, "scroll", func(el driver.Element) error {
		return el.ScrollIntoView(ctx)
	})
}

// Text returns the visible text of the element
func (b *Base) Text(ctx context.Context, ref locator.Ref) (string, error) {
	var text string
	err := b.act(ctx, ref, "read text of", func(el driver.Element) error {
		var err error
		text, err = el.Text(ctx)
		return err
	})
	return text, err
}

// WaitVisible waits up to d for ref to be visible.
func (b *Base) WaitVisible(ctx context.Context, ref locator.Ref, d time.Duration) (driver.Element, error) {
	return b.Resolve(ctx, ref, b.policy.For(wait.Visible).Within(d))
}

// WaitClickable waits up to d for ref to be visible and interactable.
func (b *Base) WaitClickable(ctx context.Context, ref locator.Ref, d time.Duration) (driver.Element, error) {
	return b.Resolve(ctx, ref, b.policy.For(wait.Clickable).Within(d))
}

// WaitSelected waits up to d for ref to be checked or selected.
func (b *Base) WaitSelected(ctx context.Context, ref locator.Ref, d time.Duration) (driver.Element, error) {
	return b.Resolve(ctx, ref, b.policy.For(wait.Selected).Within(d))
}

// SetImplicitWait sets the session-wide wait floor.
func (b *Base) SetImplicitWait(d time.Duration) {
	b.drv.SetImplicitWait(d)
	b.log.Debug("Implicit wait set", zap.Duration("wait", d))
}

// SwitchToWindow activates the index-th open window, in opening order.
func (b *Base) SwitchToWindow(ctx context.Context, index int) error {
	handles, err := b.drv.WindowHandles(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(handles) {
		return errs.New(errs.InvalidArgument, fmt.Sprintf("window index %d out of range (%d open)", index, len(handles)))
	}
	return b.drv.SwitchToWindow(ctx, handles[index])
}

func (b *Base) Navigate(ctx context.Context, url string) error {
	return b.drv.Navigate(ctx, url)
}

func (b *Base) Title(ctx context.Context) (string, error) {
	return b.drv.Title(ctx)
}
