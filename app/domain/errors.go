package domain

import (
	"errors"
	"fmt"
)

// Sentinels shared by every component. Typed errors below match them with
// errors.Is so callers can branch on the class without knowing the type.
var (
	// ErrNotFound marks a missing archive, exclusion file or record.
	// It is an empty-state condition, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks operator input that was rejected before any side effect.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a write whose expected version no longer matches storage.
	ErrConflict = errors.New("concurrent modification")

	// ErrAlreadyRecorded marks a movie id that is already in the ledger.
	ErrAlreadyRecorded = errors.New("movie id already recorded")

	// ErrCollaborator marks a failure of the feed, ledger or media fetcher.
	ErrCollaborator = errors.New("collaborator failure")

	// ErrIngest marks an unreadable or undecodable source table.
	ErrIngest = errors.New("ingest failure")
)

type IngestKind string

const (
	IngestUnreadable      IngestKind = "unreadable"
	IngestUndecodable     IngestKind = "undecodable"
	IngestMissingColumn   IngestKind = "missing_column"
	IngestMalformedRow    IngestKind = "malformed_row"
	IngestMissingLink     IngestKind = "missing_link"
	IngestUnparseableDate IngestKind = "unparseable_date"
)

// IngestError reports a source that could not be turned into records.
type IngestError struct {
	Source string
	Kind   IngestKind
	Detail string
	Err    error
}

func (e *IngestError) Error() string {
	msg := fmt.Sprintf("ingest %s: %s", e.Source, e.Kind)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IngestError) Unwrap() error { return e.Err }

func (e *IngestError) Is(target error) bool { return target == ErrIngest }

// ValidationError rejects a single operator-supplied value.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// CollaboratorError wraps a failure returned by an external collaborator.
type CollaboratorError struct {
	Collaborator string
	Op           string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Collaborator, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

func (e *CollaboratorError) Is(target error) bool { return target == ErrCollaborator }

// Collaborator wraps err as a CollaboratorError unless it is nil or already one.
func Collaborator(name, op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return err
	}
	return &CollaboratorError{Collaborator: name, Op: op, Err: err}
}
