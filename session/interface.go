package session

import "context"

// Store defines the interface for session storage operations.
// Implementations must be safe for concurrent use across session IDs.
type Store interface {
	// Create stores a new session with Version set to 1.
	// Returns ErrAlreadyExists if the session already exists.
	Create(ctx context.Context, s *State) error

	// Get retrieves a session by ID.
	// Returns nil if the session is not found (not an error).
	Get(ctx context.Context, id string) (*State, error)

	// Update replaces an existing session with optimistic locking.
	// Verifies the Version matches the stored version, increments Version,
	// and updates the UpdatedAt timestamp.
	// Returns ErrVersionConflict if the version does not match.
	// Returns ErrNotFound if the session does not exist.
	Update(ctx context.Context, s *State) error

	// Delete deletes a session by ID. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Close closes the store and releases any resources.
	Close() error
}
