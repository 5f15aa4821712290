// api/errors/node_errors.go
package errors

import "errors"

var (
	// ErrNodeNotFound covers both a genuinely absent node and a cross-owner
	// access attempt, so callers never leak existence.
	ErrNodeNotFound = errors.New("node not found")

	ErrSchemaNotFound  = errors.New("schema not found")
	ErrInvalidNodeType = errors.New("invalid node type")

	ErrAuthenticationRequired = errors.New("authentication required")

	ErrDatabaseOperation = errors.New("database operation failed")
	ErrInternalServer    = errors.New("internal server error")
)
