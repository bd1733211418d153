package errors

import "errors"

// Sentinel errors checked with errors.Is across package boundaries.
var (
	ErrUnsupported      = errors.New("operation not supported by this backend")
	ErrNotFound         = errors.New("key not found")
	ErrSetupIncoherent  = errors.New("restored job failed setup coherence check")
	ErrQueueFull        = errors.New("queue rejects duplicate or invalid entry")
	ErrResourceExceeded = errors.New("starting this job would exceed tracker resource budget")
	ErrUnknownJob       = errors.New("job id not present in running set")
)

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
