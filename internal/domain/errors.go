package domain

import "errors"

var (
	// ErrNotFound indicates a link was not found in a collection.
	ErrNotFound = errors.New("link not found")

	// ErrInvalidURL indicates an unusable URL was provided.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrDuplicate indicates the collection already holds the same link.
	ErrDuplicate = errors.New("duplicate URL")
)
