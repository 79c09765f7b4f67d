package helper

import (
	"fmt"
)

// GetTypedValueOf safely asserts the result of a getter function to the expected type T.
// Returns an error if type assertion fails.
func GetTypedValueOf[T any](getFn func() (any, error)) (T, error) {
	var zero T

	res, err := getFn()
	if err != nil {
		return zero, fmt.Errorf("failed to get value: %w", err)
	}

	val, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrUnexpectedType, res)
	}

	return val, nil
}

var (
	ErrUnexpectedType = fmt.Errorf("unexpected type")
	ErrMaxAttempts    = fmt.Errorf("max attempts reached")
)

// Retry calls fn until it succeeds or maxAttempts calls have failed.
func Retry(maxAttempts int, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %d, %w", ErrMaxAttempts, maxAttempts, err)
}
