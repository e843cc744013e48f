// Package highlight marks live elements with a visible border so a human
// watching (or a recording) can follow which node each action touched.
package highlight

import (
	"context"
	"fmt"
	"time"

	"github.com/v0xg/pagekit/internal/driver"
)

// DefaultStyle is the border applied to every resolved element
const DefaultStyle = "3px solid red"

const property = "border"

// Apply sets the border style on el. Driver errors are returned as is.
func Apply(ctx context.Context, el driver.Element, style string) error {
	if style == "" {
		style = DefaultStyle
	}
	return el.SetStyle(ctx, property, style)
}

// ApplyAll highlights every element, stopping at the first failure
func ApplyAll(ctx context.Context, els []driver.Element, style string) error {
	for i, el := range els {
		if err := Apply(ctx, el, style); err != nil {
			return fmt.Errorf("highlight element %d: %w", i, err)
		}
	}
	return nil
}

// Flash highlights el for hold and then restores its previous border.
func Flash(ctx context.Context, el driver.Element, style string, hold time.Duration) error {
	previous, err := el.Style(ctx, property)
	if err != nil {
		return err
	}
	if err := Apply(ctx, el, style); err != nil {
		return err
	}

	timer := time.NewTimer(hold)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}

	// Restore even when ctx ended; the page outlives the caller.
	return el.SetStyle(context.WithoutCancel(ctx), property, previous)
}
