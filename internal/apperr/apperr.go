// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package apperr defines the error kinds shared by the store, the services
// and the HTTP layer. Callers match them with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable wraps transport and driver failures of the code store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound is returned by writes that target an identifier that does not exist.
	// Reads report absence with a nil result instead.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput marks malformed identifiers, empty origins and bad payloads.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCameraUnavailable is the parent of every camera failure.
	ErrCameraUnavailable = errors.New("camera unavailable")

	// ErrCollisionRetryExhausted means no free identifier was found within the attempt budget.
	ErrCollisionRetryExhausted = errors.New("identifier collision retries exhausted")

	// ErrConflict is returned by conditional writes when the current state differs from the expected one.
	ErrConflict = errors.New("conflicting state")
)

// CameraReason distinguishes why a camera could not be acquired.
type CameraReason string

const (
	CameraPermissionDenied CameraReason = "permission_denied"
	CameraNoDevice         CameraReason = "no_device"
	CameraUnsupported      CameraReason = "unsupported"
)

// CameraError carries the sub-reason of a camera failure.
type CameraError struct {
	Err    error
	Reason CameraReason
}

func (e *CameraError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("camera unavailable (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("camera unavailable (%s)", e.Reason)
}

// Is makes every CameraError match ErrCameraUnavailable.
func (e *CameraError) Is(target error) bool {
	return target == ErrCameraUnavailable
}

func (e *CameraError) Unwrap() error {
	return e.Err
}

// NewCameraError returns a CameraError with the given reason and cause.
func NewCameraError(reason CameraReason, err error) *CameraError {
	return &CameraError{Reason: reason, Err: err}
}

// CameraReasonOf extracts the camera sub-reason from err, if any.
func CameraReasonOf(err error) (CameraReason, bool) {
	var ce *CameraError
	if errors.As(err, &ce) {
		return ce.Reason, true
	}
	return "", false
}

// Store wraps a driver error so that both ErrStoreUnavailable and the cause match.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// Invalid returns an ErrInvalidInput with a message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
