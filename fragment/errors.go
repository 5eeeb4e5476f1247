package fragment

import (
	"errors"
	"fmt"
	"strings"
)

// Resolution errors. All of them are fatal to the current run; they stem
// from static input defects that a retry cannot fix.
var (
	// ErrFragmentNotFound is returned when a referenced path does not
	// exist under the component root.
	ErrFragmentNotFound = errors.New("fragment not found")

	// ErrCyclicReference is returned when a path already on the active
	// resolution stack is re-encountered.
	ErrCyclicReference = errors.New("cyclic reference")

	// ErrRecursionLimit is returned when nested resolution exceeds the
	// configured maximum depth.
	ErrRecursionLimit = errors.New("recursion limit exceeded")
)

// NotFoundError reports a missing fragment with the artifact that
// referenced it.
type NotFoundError struct {
	Path     string
	Referrer string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("fragment not found: %s (referenced by %s)", e.Path, e.Referrer)
}

func (e *NotFoundError) Unwrap() error { return ErrFragmentNotFound }

// CycleError reports a reference cycle with the full chain, e.g.
// "a.xml -> b.xml -> a.xml".
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic reference: %s", strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicReference }

// DepthError reports that resolution exceeded the depth budget.
type DepthError struct {
	Path  string
	Depth int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("recursion limit exceeded at depth %d resolving %s", e.Depth, e.Path)
}

func (e *DepthError) Unwrap() error { return ErrRecursionLimit }
