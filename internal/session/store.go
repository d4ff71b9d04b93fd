// Package session holds the ephemeral checkout state: the submission a
// customer is paying for and the sequence that reserves order numbers.
package session

import (
	"context"

	"github.com/blueworldgit/epc-parts-store/internal/domain"
)

// Store persists at most one submission per checkout session. Writes replace
// the stored submission wholesale; there are no partial updates.
type Store interface {
	// Save stores the submission under its session ID, replacing any
	// previous submission for that session.
	Save(ctx context.Context, sub *domain.Submission) error

	// Load returns the submission for a session. A missing or expired
	// submission returns apperrors.ErrNotFound; callers treat that as
	// "restart checkout", not as a failure.
	Load(ctx context.Context, sessionID string) (*domain.Submission, error)

	// Clear removes the submission for a session. Clearing an absent
	// session is a no-op.
	Clear(ctx context.Context, sessionID string) error
}

// NumberSequence reserves order numbers. Numbers are unique process-wide and
// monotonically increasing; a reserved number that never materializes into an
// order is simply abandoned.
type NumberSequence interface {
	Next(ctx context.Context) (string, error)
}
