package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound             = errors.New("entity not found")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNoCandidate          = errors.New("no unsent media left in folder")
	ErrAlreadyRecorded      = errors.New("media already recorded as sent")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrStateNotFound        = errors.New("conversation state not found")
	ErrReadDatabaseRow      = errors.New("failed to read database row")
	ErrLocked               = errors.New("lock is held by another owner")
)
