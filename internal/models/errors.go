package models

import "errors"

var (
	// ErrDocumentNotFound means no document exists for the given id.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidDocumentStatus means a status transition was not allowed.
	ErrInvalidDocumentStatus = errors.New("invalid document status")
)
