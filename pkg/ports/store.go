package ports

import (
	"context"

	"github.com/aretw0/palaver/pkg/domain"
)

// StateStore holds live session records.
// Records are scoped to the interactive session that created them; stores are
// not a transcript archive.
type StateStore interface {
	// Save persists the record under session.ID.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves the record for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the record for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the live sessions.
	List(ctx context.Context) ([]string, error)
}
