package scene

import "errors"

// Scene build and query errors.
var (
	ErrMissingOrEmptyShape = errors.New("shape payload missing or empty")
	ErrMalformedShape      = errors.New("malformed shape payload")
	ErrUploadFailed        = errors.New("mesh upload failed")
	ErrInvalidPickIndex    = errors.New("instance index out of range")
	ErrUnknownBatch        = errors.New("unknown batch")
	ErrSceneDisposed       = errors.New("scene disposed")
	ErrBuildCancelled      = errors.New("build cancelled")
)
