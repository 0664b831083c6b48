package config

import "fmt"

// SetupError reports configuration that no run can start with.
type SetupError struct {
	// Source is the config file in use, "profile" or "defaults".
	Source string
	Err    error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup error (%s): %v", e.Source, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}
