package worker

import (
	"context"
	"errors"
)

// JobHandler runs every job whose job_type equals Type. Handle receives the
// stored JSON payload; returning an error wrapped with NewPermanentError
// fails the job without further attempts.
type JobHandler interface {
	Type() string
	Handle(ctx context.Context, payload []byte) error
}

// PermanentError marks a failure that retrying cannot fix, such as a
// malformed payload or a lead that no longer exists.
type PermanentError struct {
	Err error
}

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
