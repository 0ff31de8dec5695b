package crawler

import (
	"errors"
	"fmt"
)

// Cause tags why a sub-category crawl was aborted.
type Cause string

const (
	// CauseSetup: navigation, sort or page-size interaction failed before page 1.
	CauseSetup Cause = "setup"
	// CauseTimeout: the page-ready condition was not observed in time.
	CauseTimeout Cause = "timeout"
	// CauseInteraction: moving to the next page failed.
	CauseInteraction Cause = "interaction"
	// CauseRender: markup could not be read or parsed.
	CauseRender Cause = "render"
)

// AbortError ends one sub-category crawl. It never ends the sweep.
type AbortError struct {
	Cause Cause
	URL   string
	Page  int
	Err   error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("%s failure on %s (page %d): %v", e.Cause, e.URL, e.Page, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// CauseOf returns the abort cause carried by err, or "" when err is not an abort.
func CauseOf(err error) Cause {
	var abort *AbortError
	if errors.As(err, &abort) {
		return abort.Cause
	}
	return ""
}
