// Package apperr defines sentinel errors shared across the engine.
package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnknownNodeType  = errors.New("unknown node type")
	ErrInvalidAttrs     = errors.New("invalid attributes")
	ErrNoEnclosingTable = errors.New("no enclosing table")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnavailable      = errors.New("service unavailable")
)
