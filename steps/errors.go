package steps

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBrowserDisabled is returned by browser steps when the suite runs without a browser.
var ErrBrowserDisabled = errors.New("browser is disabled for this run")

// AssertionFailure is returned by a Then step whose expectation does not hold.
type AssertionFailure struct {
	Expected any
	Actual   any
	// Actor is empty for steps that are not bound to an actor
	Actor   string
	Message string
}

func (e *AssertionFailure) Error() string {
	var sb strings.Builder
	if e.Actor != "" {
		fmt.Fprintf(&sb, "%s: ", e.Actor)
	}
	sb.WriteString(e.Message)
	fmt.Fprintf(&sb, " (expected %v, got %v)", e.Expected, e.Actual)
	return sb.String()
}

// ExternalServiceError is an HTTP or document store failure. When steps cause it, it is
// kept in the scenario so later steps can assert on it.
type ExternalServiceError struct {
	Service   string
	Operation string
	Err       error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Operation, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

func httpError(operation string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: "http", Operation: operation, Err: err}
}

func storeError(operation, collection string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: "store", Operation: operation + " " + collection, Err: err}
}
