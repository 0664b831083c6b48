package pages

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ElementNotFoundError reports that a bounded wait for an element ran out.
type ElementNotFoundError struct {
	Selector string
	Timeout  time.Duration
	Err      error
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %q not found within %s: %v", e.Selector, e.Timeout, e.Err)
}

func (e *ElementNotFoundError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the wait ran out rather than failed for another reason.
func (e *ElementNotFoundError) IsTimeout() bool {
	return errors.Is(e.Err, playwright.ErrTimeout)
}

// waitFor waits until the first element of locator is in state, bounded by timeout.
func waitFor(locator playwright.Locator, selector string, state *playwright.WaitForSelectorState, timeout time.Duration) error {
	err := locator.First().WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return &ElementNotFoundError{Selector: selector, Timeout: timeout, Err: err}
	}
	return nil
}
