package model

import "errors"

// ErrModelNotFound means no trained artifact exists for the client. It also
// covers artifacts that can no longer be read; the remedy is the same,
// retrain. Handlers map it to a stable error code.
var ErrModelNotFound = errors.New("model not trained")
