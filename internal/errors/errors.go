// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidReference        Kind = "INVALID_REFERENCE"
	KindUnknownReference        Kind = "UNKNOWN_REFERENCE"
	KindPathConflict            Kind = "PATH_CONFLICT"
	KindMaterializationFailed   Kind = "MATERIALIZATION_FAILED"
	KindExtractionFailed        Kind = "EXTRACTION_FAILED"
	KindExtractionOutputInvalid Kind = "EXTRACTION_OUTPUT_INVALID"
	KindTaskFailed              Kind = "TASK_FAILED"
	KindRenderFailed            Kind = "RENDER_FAILED"
	KindOutputWriteFailed       Kind = "OUTPUT_WRITE_FAILED"
)

// Error is the one error type the pipeline surfaces. Branch and Phase
// identify where in the run it happened; Cause is the wrapped underlying
// error and Secondary carries the other branch's failure when both
// branches fail.
type Error struct {
	Kind      Kind
	Message   string
	Branch    string // "base", "target", or "" for branch-independent phases
	Phase     string // validate, materialize, extract, diff, render, output
	Cause     error
	Secondary error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Branch != "" {
		msg = fmt.Sprintf("%s branch: %s", e.Branch, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind so callers can compare against the sentinel
// constructors without caring about message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func InvalidReference(name string) *Error {
	return &Error{
		Kind:    KindInvalidReference,
		Message: fmt.Sprintf("invalid reference name %q", name),
		Phase:   "validate",
	}
}

func UnknownReference(name string, cause error) *Error {
	return &Error{
		Kind:    KindUnknownReference,
		Message: fmt.Sprintf("reference %q does not resolve to a commit", name),
		Phase:   "validate",
		Cause:   cause,
	}
}

func PathConflict(path string) *Error {
	return &Error{
		Kind:    KindPathConflict,
		Message: fmt.Sprintf("destination %q already exists and is not empty", path),
		Phase:   "materialize",
	}
}

func MaterializationFailed(ref string, cause error) *Error {
	return &Error{
		Kind:    KindMaterializationFailed,
		Message: fmt.Sprintf("materializing reference %q", ref),
		Phase:   "materialize",
		Cause:   cause,
	}
}

// ExtractionFailed reports an engine run that completed with failure.
// diagnostics is the engine's own output, kept verbatim.
func ExtractionFailed(diagnostics string, cause error) *Error {
	msg := "extraction engine failed"
	if diagnostics != "" {
		msg = fmt.Sprintf("extraction engine failed: %s", diagnostics)
	}
	return &Error{
		Kind:    KindExtractionFailed,
		Message: msg,
		Phase:   "extract",
		Cause:   cause,
	}
}

func ExtractionOutputInvalid(cause error) *Error {
	return &Error{
		Kind:    KindExtractionOutputInvalid,
		Message: "extraction engine produced unparsable output",
		Phase:   "extract",
		Cause:   cause,
	}
}

func TaskFailed(branch string, cause error) *Error {
	return &Error{
		Kind:    KindTaskFailed,
		Message: "branch task did not run to completion",
		Branch:  branch,
		Phase:   "extract",
		Cause:   cause,
	}
}

func RenderFailed(cause error) *Error {
	return &Error{
		Kind:    KindRenderFailed,
		Message: "rendering template",
		Phase:   "render",
		Cause:   cause,
	}
}

func OutputWriteFailed(path string, cause error) *Error {
	return &Error{
		Kind:    KindOutputWriteFailed,
		Message: fmt.Sprintf("writing output to %q", path),
		Phase:   "output",
		Cause:   cause,
	}
}

// WithBranch returns a copy of err tagged with the given branch, if err
// is a pipeline Error. Other errors pass through unchanged.
func WithBranch(err error, branch string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	tagged := *e
	tagged.Branch = branch
	return &tagged
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
