package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPromptRequired     = errors.New("prompt is required")
	ErrImageRequired      = errors.New("character image is required")
	ErrInsufficientTokens = errors.New("insufficient tokens")
	ErrProviderFailure    = errors.New("provider failure")
)
