// Package id defines the identifier type shared by every catalog and
// document. IDs are UUIDv7, so sorting by id follows creation order and
// inserts stay clustered in the primary key B-tree.
package id

import "github.com/google/uuid"

// ID aliases uuid.UUID so repos and handlers can use the uuid
// package's scanning and JSON support directly.
type ID = uuid.UUID

// New returns a fresh time-ordered id.
func New() ID {
	v7, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the entropy source does; fall back to random.
		return uuid.New()
	}
	return v7
}

// Parse validates and converts a string form.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse is Parse for fixtures and constants; panics on bad input.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero id.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether the id is the zero value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
