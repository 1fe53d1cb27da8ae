// Package service implements the application use cases on top of the
// storage adapters. Handlers map the sentinel errors here onto HTTP codes.
package service

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrMissingFields = errors.New("missing required fields")
	ErrValidation    = errors.New("validation failed")
)
