// Package driver is the browser session boundary: the capability set the page
// layer and the lifecycle hook consume. Implementations live in rodriver
// (Chromium through rod) and drivertest (in memory).
package driver

import (
	"context"
	"time"

	"github.com/v0xg/pagekit/internal/locator"
)

// Driver is one browser session.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	CurrentURL(ctx context.Context) (string, error)

	// FindElements returns the nodes currently matching ref, without waiting.
	// No match is an empty slice, not an error.
	FindElements(ctx context.Context, ref locator.Ref) ([]Element, error)

	// ExecuteScript evaluates a JS function expression in the page.
	ExecuteScript(ctx context.Context, script string, args ...any) (any, error)

	// SetImplicitWait sets the session-wide floor for explicit waits.
	SetImplicitWait(d time.Duration)
	ImplicitWait() time.Duration

	Screenshot(ctx context.Context) ([]byte, error)

	WindowHandles(ctx context.Context) ([]string, error)
	SwitchToWindow(ctx context.Context, handle string) error

	// Quit releases the browser. Safe to call more than once.
	Quit() error
}

// Element is a live node handle. It is only valid until the next navigation
// or DOM mutation.
type Element interface {
	Visible(ctx context.Context) (bool, error)
	// Interactable reports whether the element is enabled and not obscured.
	Interactable(ctx context.Context) (bool, error)
	Selected(ctx context.Context) (bool, error)

	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)
	Style(ctx context.Context, property string) (string, error)
	SetStyle(ctx context.Context, property, value string) error

	SendKeys(ctx context.Context, text string) error
	Clear(ctx context.Context) error
	Click(ctx context.Context) error
	Hover(ctx context.Context) error
	ScrollIntoView(ctx context.Context) error

	// SetOption selects (or deselects) the options of a <select> matching by.
	SetOption(ctx context.Context, by OptionBy, value string, selected bool) error

	Screenshot(ctx context.Context) ([]byte, error)
}

// OptionBy is how a <select> option is matched.
type OptionBy string

const (
	OptionText  OptionBy = "text"
	OptionIndex OptionBy = "index"
	OptionValue OptionBy = "value"
)
