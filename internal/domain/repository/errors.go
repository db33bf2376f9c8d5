package repository

import "errors"

// ErrCheckpointNotFound is returned when no checkpoint exists for the
// requested session id.
var ErrCheckpointNotFound = errors.New("checkpoint not found")
