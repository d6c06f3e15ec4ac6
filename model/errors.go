package model

import "errors"

// Structural validation errors.
var (
	ErrInvalidArcSource     = errors.New("model: arc source is neither a place nor a transition")
	ErrInvalidArcTarget     = errors.New("model: arc target is neither a place nor a transition")
	ErrInvalidArcConnection = errors.New("model: arc must connect a place to a transition")
	ErrDuplicateID          = errors.New("model: duplicate id")
	ErrUnknownScope         = errors.New("model: unknown scope")
)
