package rodriver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/v0xg/pagekit/internal/driver"
)

type element struct {
	el *rod.Element
}

func (e *element) with(ctx context.Context) *rod.Element {
	return e.el.Context(ctx)
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	return e.with(ctx).Visible()
}

func (e *element) Interactable(ctx context.Context) (bool, error) {
	el := e.with(ctx)

	disabled, err := el.Property("disabled")
	if err != nil {
		return false, err
	}
	if disabled.Bool() {
		return false, nil
	}

	_, err = el.Interactable()
	var covered *rod.CoveredError
	var invisible *rod.InvisibleShapeError
	var noPointer *rod.NoPointerEventsError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &covered), errors.As(err, &invisible), errors.As(err, &noPointer):
		return false, nil
	default:
		return false, err
	}
}

func (e *element) Selected(ctx context.Context) (bool, error) {
	res, err := e.with(ctx).Eval(`() => !!(this.checked || this.selected)`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	return e.with(ctx).Text()
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.with(ctx).Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e *element) Style(ctx context.Context, property string) (string, error) {
	res, err := e.with(ctx).Eval(`(p) => this.style.getPropertyValue(p)`, property)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *element) SetStyle(ctx context.Context, property, value string) error {
	_, err := e.with(ctx).Eval(`(p, v) => { this.style.setProperty(p, v) }`, property, value)
	return err
}

func (e *element) SendKeys(ctx context.Context, text string) error {
	return e.with(ctx).Input(text)
}

func (e *element) Clear(ctx context.Context) error {
	_, err := e.with(ctx).Eval(`() => {
		this.value = '';
		this.dispatchEvent(new Event('input', { bubbles: true }));
		this.dispatchEvent(new Event('change', { bubbles: true }));
	}`)
	return err
}

func (e *element) Click(ctx context.Context) error {
	return e.with(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *element) Hover(ctx context.Context) error {
	return e.with(ctx).Hover()
}

func (e *element) ScrollIntoView(ctx context.Context) error {
	return e.with(ctx).ScrollIntoView()
}

func (e *element) SetOption(ctx context.Context, by driver.OptionBy, value string, selected bool) error {
	el := e.with(ctx)

	if !selected {
		multiple, err := el.Property("multiple")
		if err != nil {
			return err
		}
		if !multiple.Bool() {
			return fmt.Errorf("you may only deselect options of a multi-select")
		}
	}

	switch by {
	case driver.OptionText:
		return el.Select([]string{"^" + regexp.QuoteMeta(value) + "$"}, selected, rod.SelectorTypeRegex)
	case driver.OptionValue:
		return el.Select([]string{"[value=" + strconv.Quote(value) + "]"}, selected, rod.SelectorTypeCSSSector)
	case driver.OptionIndex:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid option index %q", value)
		}
		res, err := el.Eval(`(i, sel) => {
			const o = this.options[i];
			if (!o) return false;
			o.selected = sel;
			this.dispatchEvent(new Event('input', { bubbles: true }));
			this.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		}`, i, selected)
		if err != nil {
			return err
		}
		if !res.Value.Bool() {
			return fmt.Errorf("cannot locate option with index %d", i)
		}
		return nil
	default:
		return fmt.Errorf("unknown option match %q", by)
	}
}

func (e *element) Screenshot(ctx context.Context) ([]byte, error) {
	return e.with(ctx).Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}
