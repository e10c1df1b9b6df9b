package host

import "github.com/teranos/tsapi/errors"

// ErrSkipTask marks an action result that ends the task as skipped
var ErrSkipTask = errors.New("task skipped")

// Skip stops the current task without failing the build
func Skip(reason string) error {
	return errors.Mark(errors.New(reason), ErrSkipTask)
}

// Skipf is Skip with formatting
func Skipf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrSkipTask)
}

// IsSkip reports whether err ends a task as skipped
func IsSkip(err error) bool {
	return err != nil && errors.Is(err, ErrSkipTask)
}
