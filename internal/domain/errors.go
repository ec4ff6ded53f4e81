package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidState indicates a manuscript state code that the workflow does not know.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidAction indicates an action that is not available in the current state.
	ErrInvalidAction = errors.New("invalid action")

	// ErrRateLimited indicates that the request was rate limited.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates that a backing service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// AlreadyExistsError provides details about a duplicate entity.
type AlreadyExistsError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *AlreadyExistsError) Unwrap() error {
	return ErrAlreadyExists
}

// InvalidStateError is returned when a state code has no entry in the transition table.
type InvalidStateError struct {
	State State
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("Bad state: %s", e.State)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// InvalidActionError is returned when an action is not available in a state.
type InvalidActionError struct {
	State  State
	Action Action
}

// Error implements the error interface.
func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("%s not available in %s", e.Action, e.State)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *InvalidActionError) Unwrap() error {
	return ErrInvalidAction
}

// RefereeNotAssignedError is returned when a referee action names someone who
// is not on the manuscript's referee list.
type RefereeNotAssignedError struct {
	Title   string
	Referee string
}

// Error implements the error interface.
func (e *RefereeNotAssignedError) Error() string {
	return fmt.Sprintf("referee %s is not assigned to %s", e.Referee, e.Title)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *RefereeNotAssignedError) Unwrap() error {
	return ErrInvalidAction
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(entity, id string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Entity: entity,
		ID:     id,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewInvalidStateError creates a new InvalidStateError.
func NewInvalidStateError(state State) *InvalidStateError {
	return &InvalidStateError{State: state}
}

// NewInvalidActionError creates a new InvalidActionError.
func NewInvalidActionError(state State, action Action) *InvalidActionError {
	return &InvalidActionError{
		State:  state,
		Action: action,
	}
}

// NewRefereeNotAssignedError creates a new RefereeNotAssignedError.
func NewRefereeNotAssignedError(title, referee string) *RefereeNotAssignedError {
	return &RefereeNotAssignedError{Title: title, Referee: referee}
}
