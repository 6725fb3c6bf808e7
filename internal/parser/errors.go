package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is matched by every ConfigError via errors.Is
	ErrConfig = errors.New("configuration error")

	// ErrMaterialize is returned when a request cannot be built for an index
	ErrMaterialize = errors.New("materialization failed")
)

// ConfigError reports a job file that cannot be loaded or compiled. It is
// surfaced before any request is dispatched.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrConfig) match any ConfigError
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
