package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBatchFatal aborts a whole batch before any worker starts, e.g. no
	// readable input paths at all. Per-document failures never carry it.
	ErrBatchFatal = errors.New("batch fatal")

	ErrExtraction        = errors.New("extraction failure")
	ErrFieldUnavailable  = errors.New("field extraction unavailable")
	ErrFieldUnconfigured = errors.New("field extraction not configured")
	ErrMalformedResponse = errors.New("malformed field extraction response")
	ErrBatchNotFound     = errors.New("batch not found")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
