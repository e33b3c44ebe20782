package binder

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactNotFound reports generated source that defines no binding
	// with the expected name.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrGenerationSyntax reports generated source that does not parse or evaluate.
	ErrGenerationSyntax = errors.New("generated source is not valid")
)

// SyntaxError carries the unfenced source that failed so callers can log it.
type SyntaxError struct {
	// Phase is "parse" or "eval".
	Phase  string
	Source string
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("generated source failed to %s: %v", e.Phase, e.Err)
}

func (e *SyntaxError) Unwrap() []error {
	return []error{ErrGenerationSyntax, e.Err}
}

// NotFoundError names the binding that was expected.
type NotFoundError struct {
	Name string
	// Want describes the expected kind of binding, e.g. "function" or "type".
	Want string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generated source defines no %s named %q: %v", e.Want, e.Name, e.Err)
	}
	return fmt.Sprintf("generated source defines no %s named %q", e.Want, e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrArtifactNotFound
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}
