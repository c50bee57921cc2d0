// Package apperr defines sentinel errors shared by the serving layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNotReady      = errors.New("vault not loaded")
	ErrUnprocessable = errors.New("note cannot be updated")
)
