// Package storage holds the error sentinels shared by the Postgres and
// SQLite store implementations.
package storage

import "errors"

var (
	// ErrNotFound is returned when a row does not exist or is not
	// visible to the requesting user. The two cases are deliberately
	// indistinguishable so non-owners learn nothing.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a uniqueness constraint rejects a
	// write, e.g. creating a second active session for one user.
	ErrConflict = errors.New("conflict")
)
