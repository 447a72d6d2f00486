// Package repository contains the pgx-backed persistence layer.
package repository

import "errors"

// ErrNotFound is returned by lookups, updates, and deletes that matched no
// rows. pgx.ErrNoRows never escapes this package.
var ErrNotFound = errors.New("repository: not found")
