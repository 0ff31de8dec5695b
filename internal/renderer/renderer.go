// Package renderer drives a stateful browser page: navigate, interact,
// wait for readiness and read back the rendered markup.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrWaitTimeout is wrapped by WaitUntil when the condition is not observed in time.
var ErrWaitTimeout = errors.New("wait timeout")

// ConditionKind enumerates the readiness checks a renderer understands.
type ConditionKind int

const (
	// Present holds once an element matching the selector exists.
	Present ConditionKind = iota
	// Absent holds once no visible element matches the selector.
	Absent
	// Stale holds once the element that matched the selector in the last
	// Markup snapshot is detached from the document.
	Stale
)

func (k ConditionKind) String() string {
	switch k {
	case Present:
		return "present"
	case Absent:
		return "absent"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

type Condition struct {
	Kind     ConditionKind
	Selector string
}

func (c Condition) String() string {
	return fmt.Sprintf("%s(%s)", c.Kind, c.Selector)
}

func ElementPresent(selector string) Condition { return Condition{Kind: Present, Selector: selector} }
func ElementAbsent(selector string) Condition  { return Condition{Kind: Absent, Selector: selector} }
func ElementStale(selector string) Condition   { return Condition{Kind: Stale, Selector: selector} }

// Target addresses a clickable element either by CSS selector or by its link text.
type Target struct {
	Selector string
	LinkText string
}

func (t Target) String() string {
	if t.LinkText != "" {
		return fmt.Sprintf("link %q", t.LinkText)
	}
	return t.Selector
}

// PageRenderer is a single browser page. Calls must not be issued concurrently.
type PageRenderer interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, target Target) error
	SelectOption(ctx context.Context, selector, value string) error
	Eval(ctx context.Context, script string) error
	WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) error
	Markup(ctx context.Context) (string, error)
	Close() error
}
