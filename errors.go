// Package propel holds the error taxonomy shared by every stage of the
// schema-to-code pipeline.
package propel

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors. Every structured error below matches exactly one
// of them through errors.Is.
var (
	// ErrIO is returned when a file is missing or cannot be read or written.
	ErrIO = errors.New("propel: input/output error")

	// ErrParse is returned when a schema or manifest document is malformed.
	ErrParse = errors.New("propel: parse error")

	// ErrInvalidContent is returned when a document is well-formed but does not
	// contain what the loader expects (an XML schema without <database>).
	ErrInvalidContent = errors.New("propel: invalid content")

	// ErrInvalidArgument is returned when a schema references an unknown
	// entity, field or behavior, declares duplicates, or misses a required
	// parameter.
	ErrInvalidArgument = errors.New("propel: invalid argument")

	// ErrBehaviorNotFound is returned when no behavior type can be resolved
	// for a behavior name.
	ErrBehaviorNotFound = errors.New("propel: behavior not found")

	// ErrBuild is returned for build-time invariant violations.
	ErrBuild = errors.New("propel: build error")
)

// IOError represents a failure to read or write a file.
type IOError struct {
	Op   string // "read", "write", "stat", "mkdir"
	Path string
	Err  error
}

// Error returns the error string.
func (e *IOError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("propel: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("propel: %s %s failed", e.Op, e.Path)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrIO.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// NewIOError returns a new IOError.
func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

// IsIOError returns true if the error is an IOError.
func IsIOError(err error) bool {
	if err == nil {
		return false
	}
	var e *IOError
	return errors.As(err, &e)
}

// ParseError represents a malformed document. Diagnostics holds every
// message reported by the underlying parser, in order.
type ParseError struct {
	Format      string // "xml", "yaml", "json"
	Path        string
	Diagnostics []string
	Err         error
}

// Error returns the error string.
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("propel: parse ")
	if e.Format != "" {
		b.WriteString(e.Format)
		b.WriteString(" ")
	}
	b.WriteString(e.Path)
	switch {
	case len(e.Diagnostics) > 0:
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Diagnostics, "; "))
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NewParseError returns a new ParseError.
func NewParseError(format, path string, err error, diagnostics ...string) *ParseError {
	return &ParseError{Format: format, Path: path, Err: err, Diagnostics: diagnostics}
}

// IsParseError returns true if the error is a ParseError.
func IsParseError(err error) bool {
	if err == nil {
		return false
	}
	var e *ParseError
	return errors.As(err, &e)
}

// InvalidArgumentError reports a schema authoring mistake.
type InvalidArgumentError struct {
	Entity  string // Optional
	Field   string // Optional
	Message string
}

// Error returns the error string.
func (e *InvalidArgumentError) Error() string {
	switch {
	case e.Entity != "" && e.Field != "":
		return fmt.Sprintf("propel: %s.%s: %s", e.Entity, e.Field, e.Message)
	case e.Entity != "":
		return fmt.Sprintf("propel: %s: %s", e.Entity, e.Message)
	default:
		return "propel: " + e.Message
	}
}

// Is reports whether the target error matches ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// NewInvalidArgumentError returns a new InvalidArgumentError.
func NewInvalidArgumentError(entity, field, format string, args ...any) *InvalidArgumentError {
	return &InvalidArgumentError{Entity: entity, Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsInvalidArgumentError returns true if the error is an InvalidArgumentError.
func IsInvalidArgumentError(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidArgumentError
	return errors.As(err, &e)
}

// BehaviorNotFoundError is returned when a behavior name resolves to nothing.
type BehaviorNotFoundError struct {
	Name  string
	Tried []string // Candidate type identifiers probed, in order
}

// Error returns the error string with the remediation hint.
func (e *BehaviorNotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "propel: unknown behavior %q", e.Name)
	if len(e.Tried) > 0 {
		fmt.Fprintf(&b, " (tried %s)", strings.Join(e.Tried, ", "))
	}
	b.WriteString("; try refreshing the dependency lock file (propel.lock) or pass an explicit behavior search directory")
	return b.String()
}

// Is reports whether the target error matches ErrBehaviorNotFound.
func (e *BehaviorNotFoundError) Is(target error) bool {
	return target == ErrBehaviorNotFound
}

// NewBehaviorNotFoundError returns a new BehaviorNotFoundError.
func NewBehaviorNotFoundError(name string, tried ...string) *BehaviorNotFoundError {
	return &BehaviorNotFoundError{Name: name, Tried: tried}
}

// IsBehaviorNotFound returns true if the error is a BehaviorNotFoundError.
func IsBehaviorNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *BehaviorNotFoundError
	return errors.As(err, &e)
}

// BuildError is the fallback for internal invariant violations found while
// preparing or generating a schema.
type BuildError struct {
	Phase   string // "attach", "modify", "build", "write", "ddl"
	Entity  string // Optional
	Message string
	Cause   error
}

// Error returns the error string.
func (e *BuildError) Error() string {
	msg := "propel: " + e.Phase
	if e.Entity != "" {
		msg += " " + e.Entity
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *BuildError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches ErrBuild.
func (e *BuildError) Is(target error) bool {
	return target == ErrBuild
}

// NewBuildError returns a new BuildError.
func NewBuildError(phase, entity, format string, args ...any) *BuildError {
	return &BuildError{Phase: phase, Entity: entity, Message: fmt.Sprintf(format, args...)}
}

// WrapBuildError returns a BuildError carrying cause.
func WrapBuildError(phase, entity string, cause error, format string, args ...any) *BuildError {
	return &BuildError{Phase: phase, Entity: entity, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsBuildError returns true if the error is a BuildError.
func IsBuildError(err error) bool {
	if err == nil {
		return false
	}
	var e *BuildError
	return errors.As(err, &e)
}
