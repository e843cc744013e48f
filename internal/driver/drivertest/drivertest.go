// Package drivertest provides an in-memory driver.Driver for tests. Nodes are
// registered against the locator.Ref that finds them; routes rebuild the
// document on navigation.
package drivertest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/v0xg/pagekit/internal/driver"
	"github.com/v0xg/pagekit/internal/errs"
	"github.com/v0xg/pagekit/internal/locator"
)

// Node is one fake DOM node.
type Node struct {
	Label    string
	Text     string
	Value    string
	Hidden   bool
	Disabled bool

	// AppearAfter delays visibility relative to when the node was added.
	AppearAfter time.Duration
	// InteractableAfter delays clickability relative to when the node was added.
	InteractableAfter time.Duration

	Selected bool
	Multiple bool
	Options  []*Option

	OnClick  func(d *Driver)
	ClickErr error

	styles  map[string]string
	addedAt time.Time
}

// Option is an <option> of a select node.
type Option struct {
	Text     string
	Value    string
	Selected bool
}

// SelectedTexts returns the texts of the selected options.
func (n *Node) SelectedTexts() []string {
	var out []string
	for _, o := range n.Options {
		if o.Selected {
			out = append(out, o.Text)
		}
	}
	return out
}

// Driver is an in-memory browser session.
type Driver struct {
	mu sync.Mutex

	url    string
	title  string
	nodes  map[locator.Ref][]*Node
	routes map[string]func(d *Driver)

	windows []string
	window  string

	implicit time.Duration

	// ScreenshotErr, when set, fails every page screenshot.
	ScreenshotErr error
	// Script handles ExecuteScript; nil scripts evaluate to nil.
	Script func(script string, args []any) (any, error)

	events      []string
	screenshots int
	quits       int
	closed      bool
}

// New returns an empty session on about:blank with one window.
func New() *Driver {
	return &Driver{
		url:     "about:blank",
		nodes:   make(map[locator.Ref][]*Node),
		routes:  make(map[string]func(d *Driver)),
		windows: []string{"window-1"},
		window:  "window-1",
	}
}

// Route registers a document builder run when url is navigated to.
func (d *Driver) Route(url string, build func(d *Driver)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes[url] = build
}

// Put registers nodes matched by ref, replacing earlier ones.
func (d *Driver) Put(ref locator.Ref, nodes ...*Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.putLocked(ref, nodes...)
}

func (d *Driver) putLocked(ref locator.Ref, nodes ...*Node) {
	now := time.Now()
	for _, n := range nodes {
		n.addedAt = now
		if n.styles == nil {
			n.styles = make(map[string]string)
		}
		if n.Label == "" {
			n.Label = ref.Selector()
		}
	}
	d.nodes[ref] = nodes
}

// Remove deletes the nodes matched by ref.
func (d *Driver) Remove(ref locator.Ref) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.nodes, ref)
}

// SetTitle sets the document title.
func (d *Driver) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.title = title
}

// OpenWindow adds a window handle.
func (d *Driver) OpenWindow(handle string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.windows = append(d.windows, handle)
}

// Events returns the ordered log of mutations and actions.
func (d *Driver) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.events)
}

// Screenshots returns how many page screenshots were taken.
func (d *Driver) Screenshots() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.screenshots
}

// Quits returns how many times Quit was called.
func (d *Driver) Quits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quits
}

// Window returns the current window handle.
func (d *Driver) Window() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.window
}

func (d *Driver) logf(format string, args ...any) {
	d.events = append(d.events, fmt.Sprintf(format, args...))
}

func (d *Driver) alive() error {
	if d.closed {
		return errs.New(errs.Session, "no such session: browser has quit")
	}
	return nil
}

func (d *Driver) Navigate(_ context.Context, url string) error {
	d.mu.Lock()
	if err := d.alive(); err != nil {
		d.mu.Unlock()
		return err
	}
	d.url = url
	d.title = ""
	d.nodes = make(map[locator.Ref][]*Node)
	build := d.routes[url]
	d.logf("navigate %s", url)
	d.mu.Unlock()

	if build != nil {
		build(d)
	}
	return nil
}

func (d *Driver) Title(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return "", err
	}
	return d.title, nil
}

func (d *Driver) CurrentURL(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return "", err
	}
	return d.url, nil
}

func (d *Driver) FindElements(_ context.Context, ref locator.Ref) ([]driver.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return nil, err
	}
	if _, err := ref.Query(); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "invalid locator", err)
	}
	nodes := d.nodes[ref]
	out := make([]driver.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{d: d, n: n})
	}
	return out, nil
}

func (d *Driver) ExecuteScript(_ context.Context, script string, args ...any) (any, error) {
	d.mu.Lock()
	if err := d.alive(); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	handler := d.Script
	d.logf("script %s", script)
	d.mu.Unlock()

	if handler == nil {
		return nil, nil
	}
	return handler(script, args)
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

func (d *Driver) Screenshot(context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return nil, err
	}
	if d.ScreenshotErr != nil {
		return nil, d.ScreenshotErr
	}
	d.screenshots++
	return solidPNG(color.RGBA{R: 240, G: 240, B: 240, A: 255}), nil
}

func (d *Driver) WindowHandles(context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return nil, err
	}
	return slices.Clone(d.windows), nil
}

func (d *Driver) SwitchToWindow(_ context.Context, handle string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.alive(); err != nil {
		return err
	}
	if !slices.Contains(d.windows, handle) {
		return errs.New(errs.Session, "no such window: "+handle)
	}
	d.window = handle
	return nil
}

func (d *Driver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quits++
	d.closed = true
	return nil
}

type element struct {
	d *Driver
	n *Node
}

func (e *element) lock() (func(), error) {
	e.d.mu.Lock()
	if err := e.d.alive(); err != nil {
		e.d.mu.Unlock()
		return nil, err
	}
	return e.d.mu.Unlock, nil
}

func (e *element) visibleLocked() bool {
	return !e.n.Hidden && time.Since(e.n.addedAt) >= e.n.AppearAfter
}

func (e *element) Visible(context.Context) (bool, error) {
	unlock, err := e.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	return e.visibleLocked(), nil
}

func (e *element) Interactable(context.Context) (bool, error) {
	unlock, err := e.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	ready := time.Since(e.n.addedAt) >= e.n.InteractableAfter
	return e.visibleLocked() && !e.n.Disabled && ready, nil
}

func (e *element) Selected(context.Context) (bool, error) {
	unlock, err := e.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	return e.n.Selected, nil
}

func (e *element) Text(context.Context) (string, error) {
	unlock, err := e.lock()
	if err != nil {
		return "", err
	}
	defer unlock()
	return e.n.Text, nil
}

func (e *element) Attribute(_ context.Context, name string) (string, bool, error) {
	unlock, err := e.lock()
	if err != nil {
		return "", false, err
	}
	defer unlock()
	switch name {
	case "value":
		return e.n.Value, true, nil
	case "disabled":
		return "", e.n.Disabled, nil
	}
	return "", false, nil
}

func (e *element) Style(_ context.Context, property string) (string, error) {
	unlock, err := e.lock()
	if err != nil {
		return "", err
	}
	defer unlock()
	return e.n.styles[property], nil
}

func (e *element) SetStyle(_ context.Context, property, value string) error {
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()
	e.n.styles[property] = value
	e.d.logf("style %s %s=%s", e.n.Label, property, value)
	return nil
}

func (e *element) SendKeys(_ context.Context, text string) error {
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()
	if e.n.Disabled {
		return fmt.Errorf("element %s is disabled", e.n.Label)
	}
	e.n.Value += text
	e.d.logf("type %s %q", e.n.Label, text)
	return nil
}

func (e *element) Clear(context.Context) error {
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()
	e.n.Value = ""
	e.d.logf("clear %s", e.n.Label)
	return nil
}

func (e *element) Click(context.Context) error {
	e.d.mu.Lock()
	if err := e.d.alive(); err != nil {
		e.d.mu.Unlock()
		return err
	}
	if e.n.ClickErr != nil {
		e.d.mu.Unlock()
		return e.n.ClickErr
	}
	onClick := e.n.OnClick
	e.d.logf("click %s", e.n.Label)
	e.d.mu.Unlock()

	if onClick != nil {
		onClick(e.d)
	}
	return nil
}

func (e *element) Hover(context.Context) error {
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()
	e.d.logf("hover %s", e.n.Label)
	return nil
}

func (e *element) ScrollIntoView(context.Context) error {
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()
	e.d.logf("scroll %s", e.n.Label)
	return nil
}

func (e *element) SetOption(_ context.Context, by driver.OptionBy, value string, selected bool) error {
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()
	if len(e.n.Options) == 0 {
		return fmt.Errorf("element %s is not a select", e.n.Label)
	}
	if !selected && !e.n.Multiple {
		return fmt.Errorf("you may only deselect options of a multi-select")
	}

	var matched []int
	switch by {
	case driver.OptionText:
		for i, o := range e.n.Options {
			if o.Text == value {
				matched = append(matched, i)
			}
		}
	case driver.OptionValue:
		for i, o := range e.n.Options {
			if o.Value == value {
				matched = append(matched, i)
			}
		}
	case driver.OptionIndex:
		i, err := strconv.Atoi(value)
		if err == nil && i >= 0 && i < len(e.n.Options) {
			matched = append(matched, i)
		}
	default:
		return fmt.Errorf("unknown option match %q", by)
	}
	if len(matched) == 0 {
		return fmt.Errorf("cannot locate option with %s %q", by, value)
	}

	if selected && !e.n.Multiple {
		for _, o := range e.n.Options {
			o.Selected = false
		}
		matched = matched[:1]
	}
	for _, i := range matched {
		e.n.Options[i].Selected = selected
	}
	e.d.logf("select %s %s=%q %t", e.n.Label, by, value, selected)
	return nil
}

func (e *element) Screenshot(context.Context) ([]byte, error) {
	unlock, err := e.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return solidPNG(color.RGBA{R: 200, G: 30, B: 30, A: 255}), nil
}

func solidPNG(c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
