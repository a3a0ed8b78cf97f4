package store

import (
	"context"
	"errors"
)

var ErrEmptySessionID = errors.New("session id is required")

// CartStore persists one opaque cart payload per session.
// Implementations do not interpret the payload.
type CartStore interface {
	// Load returns the stored payload. found is false when nothing was saved for the session.
	Load(ctx context.Context, sessionID string) (payload []byte, found bool, err error)

	// Save replaces the payload for the session.
	Save(ctx context.Context, sessionID string, payload []byte) error

	// Delete removes the payload. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error
}
