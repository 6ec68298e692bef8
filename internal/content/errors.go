package content

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation addresses an id or item index
	// that is not in the collection. No store call is made.
	ErrNotFound = errors.New("content not found")
	// ErrIncompleteForm is returned by Commit when a required form value is absent.
	ErrIncompleteForm = errors.New("edit form is incomplete")
	// ErrNoEditSession is returned by Commit when nothing is being edited.
	ErrNoEditSession = errors.New("no entity is being edited")
	// ErrInvalidTarget rejects malformed edit targets.
	ErrInvalidTarget = errors.New("invalid edit target")
)

// WriteError reports a failed store write. In-memory state is unchanged
// when it is returned.
type WriteError struct {
	Op         string
	Collection string
	ID         string
	Entity     string
	Err        error
}

func (e *WriteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Notice is the message shown to the admin.
func (e *WriteError) Notice() string {
	switch e.Op {
	case OpDelete:
		return fmt.Sprintf("Error deleting %s. Check the server log for details.", e.Entity)
	case OpCreate:
		return fmt.Sprintf("Error adding %s. Check the server log for details.", e.Entity)
	default:
		return fmt.Sprintf("Error saving %s. Check the server log for details.", e.Entity)
	}
}

// Store operations named in WriteError.
const (
	OpCreate  = "create"
	OpReplace = "replace"
	OpUpdate  = "update"
	OpDelete  = "delete"
)
