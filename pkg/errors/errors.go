// Package errors provides custom error types for the BOQ comparison system.
// Typed errors carry the context needed to report a failed pass to the operator,
// and sentinel errors allow programmatic checks with errors.Is.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors.
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSchema indicates a dataset whose columns cannot be compared, or an
	// offer name that collides with an offer already on the master
	ErrSchema = errors.New("schema mismatch")

	// ErrDuplicateOffer indicates a second write of the same offer onto a master row
	ErrDuplicateOffer = errors.New("duplicate offer assignment")

	// ErrInvalidState indicates a session step called in the wrong state
	ErrInvalidState = errors.New("invalid session state")

	// ErrSessionBusy indicates a session step while another step is in flight
	ErrSessionBusy = errors.New("session busy")

	// ErrSessionActive indicates a new session against a master that is still owned
	ErrSessionActive = errors.New("session already active")

	// ErrSessionFailed indicates a call on a session that has failed
	ErrSessionFailed = errors.New("session failed")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// SchemaError is fatal for a comparison session. It is raised before any row
// is processed, so no mutation has happened when it surfaces.
type SchemaError struct {
	Dataset string   // "master" or "comparison"
	Missing []string // semantic fields the dataset lacks
	Offer   string   // offer name, set for collisions
	Message string
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	switch {
	case e.Offer != "":
		return fmt.Sprintf("schema error: offer %q %s", e.Offer, e.Message)
	case len(e.Missing) > 0:
		return fmt.Sprintf("schema error in %s dataset: missing %s", e.Dataset, strings.Join(e.Missing, ", "))
	default:
		return fmt.Sprintf("schema error in %s dataset: %s", e.Dataset, e.Message)
	}
}

// Is implements errors.Is support
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// NewOfferCollisionError reports an offer name already present on the master.
func NewOfferCollisionError(offer string) *SchemaError {
	return &SchemaError{Dataset: "master", Offer: offer, Message: "already exists on the master"}
}

// NewMissingColumnsError reports a dataset lacking required semantic fields.
func NewMissingColumnsError(dataset string, missing ...string) *SchemaError {
	return &SchemaError{Dataset: dataset, Missing: missing}
}

// DuplicateOfferError reports a second write of one offer onto one master row
// during a single pass.
type DuplicateOfferError struct {
	Offer    string
	Position int
	Row      int // comparison row that attempted the second write
}

// Error implements the error interface
func (e *DuplicateOfferError) Error() string {
	return fmt.Sprintf("offer %q already assigned to master position %d (comparison row %d)", e.Offer, e.Position, e.Row)
}

// Is implements errors.Is support
func (e *DuplicateOfferError) Is(target error) bool {
	return target == ErrDuplicateOffer
}

// StateError reports a session operation invoked outside its allowed states.
type StateError struct {
	Operation string
	State     string
	Allowed   []string
}

// Error implements the error interface
func (e *StateError) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("cannot %s in state %s (allowed: %s)", e.Operation, e.State, strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("cannot %s in state %s", e.Operation, e.State)
}

// Is implements errors.Is support
func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "xlsx", "csv"
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d:%d: %s", e.Format, e.File, e.Line, e.Column, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "load", "save", "create", "export"
	Resource  string // "snapshot", "master", "workbook"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsSchemaError checks if an error is a schema error
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsDuplicateOffer checks if an error is a duplicate offer assignment
func IsDuplicateOffer(err error) bool {
	return errors.Is(err, ErrDuplicateOffer)
}

// IsFatal reports whether the error ends a comparison session.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSchema) || errors.Is(err, ErrDuplicateOffer)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
