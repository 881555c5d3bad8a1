package engine

import (
	"errors"
	"fmt"

	"livingcanon/internal/source"
)

var (
	ErrAuthenticityRejected   = errors.New("creation must use authentic historical material")
	ErrUnsupportedInteraction = errors.New("unsupported interaction type")
	ErrCheckpointMismatch     = errors.New("checkpoint does not match narrative log")
)

// AuthenticityRejectedError carries the measured score of a rejected
// creation. It matches ErrAuthenticityRejected.
type AuthenticityRejectedError struct {
	Score     float64
	Threshold float64
	Records   []source.ProvenanceRecord
}

func (e *AuthenticityRejectedError) Error() string {
	return fmt.Sprintf("%s: authenticity %.2f below %.2f", ErrAuthenticityRejected, e.Score, e.Threshold)
}

func (e *AuthenticityRejectedError) Is(target error) bool {
	return target == ErrAuthenticityRejected
}
