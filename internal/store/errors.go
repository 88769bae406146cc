package store

import "errors"

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrStoreUnreachable  = errors.New("document store unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
