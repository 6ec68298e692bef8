package store

import (
	"encoding/json"
	"errors"
	"time"
)

// Collection names used by the portfolio content.
const (
	CollectionProjects = "projects"
	CollectionLogs     = "logs"
	CollectionSkills   = "skills"
)

// Direction orders GetOrdered results.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

var (
	// ErrDocumentNotFound is returned by Update when the addressed document does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidField rejects sort fields that are not plain identifiers.
	ErrInvalidField = errors.New("invalid document field")
	// ErrInvalidDirection rejects anything but Ascending and Descending.
	ErrInvalidDirection = errors.New("invalid sort direction")
)

// Document is one stored record: an id plus its JSON fields.
type Document struct {
	Collection string
	ID         string
	Data       json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Decode unmarshals the document fields into target.
func (d Document) Decode(target any) error {
	return json.Unmarshal(d.Data, target)
}

type Admin struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
