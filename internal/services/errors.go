package services

import "errors"

var (
	// ErrTemplateImmutable is returned when a template update would change the
	// recurrence rule of a template that already has instances
	ErrTemplateImmutable = errors.New("template recurrence cannot change once instances exist")

	// ErrInvalidStatus is returned for an unknown instance status
	ErrInvalidStatus = errors.New("invalid instance status")

	// ErrInvalidInput is returned when a request fails validation
	ErrInvalidInput = errors.New("invalid input")
)
