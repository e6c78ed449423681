package chron

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrParse            = errors.New("parse crontab expression")
	ErrIllegalArgument  = errors.New("illegal argument")
	ErrSchedulerRunning = errors.New("scheduler is already running")
	ErrTaskNotFound     = errors.New("task not found")
)

// parseError returns a crontab parse error with a custom error message,
// which unwraps to ErrParse.
func parseError(message string) error {
	return fmt.Errorf("%w: %s", ErrParse, message)
}

// parseErrorf returns a formatted crontab parse error, which unwraps
// to ErrParse.
func parseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

// illegalArgumentError returns an illegal argument error with a custom
// error message, which unwraps to ErrIllegalArgument.
func illegalArgumentError(message string) error {
	return fmt.Errorf("%w: %s", ErrIllegalArgument, message)
}

// taskNotFoundError returns a task not found error with a custom error
// message, which unwraps to ErrTaskNotFound.
func taskNotFoundError(message string) error {
	return fmt.Errorf("%w: %s", ErrTaskNotFound, message)
}
