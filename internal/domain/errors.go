package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by the whole pipeline. Components wrap these
// sentinels with context; callers branch with errors.Is.
var (
	// ErrInvalidInput marks a caller error. Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable marks an unreachable embedding backend.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrDimensionMismatch marks a vector whose dimension disagrees with
	// the index. A configuration error, fatal for the call.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexCorrupt marks a persisted index that fails to load or
	// validate.
	ErrIndexCorrupt = errors.New("index corrupt")
)

// Attempt records one failed provider call during generation.
type Attempt struct {
	Provider string
	Err      error
}

// GenerationError is returned when every configured provider has been
// exhausted. Attempts preserves the per-provider causes in order.
type GenerationError struct {
	Attempts []Attempt
}

func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("generation failed")
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %v", a.Provider, a.Err)
	}
	return b.String()
}

// Unwrap exposes the attempt causes to errors.Is/As.
func (e *GenerationError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}
