// Package wait implements explicit wait policies: a condition polled until it
// holds or a deadline passes.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Condition is the state an element must reach.
type Condition string

const (
	Present   Condition = "present"
	Visible   Condition = "visible"
	Clickable Condition = "clickable"
	Selected  Condition = "selected"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultInterval = 500 * time.Millisecond
)

// ErrTimeout is returned when the policy duration elapses.
var ErrTimeout = errors.New("wait timed out")

// Policy is one explicit wait: how long, how often, for what.
type Policy struct {
	Timeout   time.Duration
	Interval  time.Duration
	Condition Condition
}

// Default returns the policy used by actions that don't specify one.
func Default() Policy {
	return Policy{Timeout: DefaultTimeout, Interval: DefaultInterval, Condition: Visible}
}

// For returns a copy of p waiting for c.
func (p Policy) For(c Condition) Policy {
	p.Condition = c
	return p
}

// Within returns a copy of p with timeout d.
func (p Policy) Within(d time.Duration) Policy {
	p.Timeout = d
	return p
}

// AtLeast raises the timeout to floor when it is shorter.
func (p Policy) AtLeast(floor time.Duration) Policy {
	if p.Timeout < floor {
		p.Timeout = floor
	}
	return p
}

func (p Policy) String() string {
	return fmt.Sprintf("%s within %s", p.Condition, p.Timeout)
}

// Probe reports whether the awaited state holds. A non-nil error stops the
// wait immediately.
type Probe func(ctx context.Context) (bool, error)

// Until polls probe every p.Interval until it reports true, returns an error,
// or p.Timeout elapses. The probe always runs at least once. On timeout the
// returned error wraps ErrTimeout; it is never returned before the deadline
// and at most one interval (plus one probe) after it.
func Until(ctx context.Context, p Policy, probe Probe) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	deadline := time.Now().Add(p.Timeout)

	for {
		ok, err := probe(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w after %s waiting for %s", ErrTimeout, p.Timeout, p.Condition)
		}

		// The last sleep ends on the deadline so the final probe lands there.
		sleep := interval
		if remaining < sleep {
			sleep = remaining
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
