package roster

import (
	"context"
)

// Store defines persistence for the pilot roster.
type Store interface {
	// FindByCallsign returns the pilot with the callsign, or nil if none.
	FindByCallsign(ctx context.Context, callsign string) (*Pilot, error)
	// Create inserts a pilot from flat fields. Attributes are set with Update.
	Create(ctx context.Context, fields map[string]string) (*Pilot, error)
	// Update sets fields and merges attrs into the pilot's attributes.
	Update(ctx context.Context, id string, fields map[string]string, attrs map[string]string) (*Pilot, error)
	List(ctx context.Context) ([]Pilot, error)
	// Reset deletes every pilot and returns how many were removed.
	Reset(ctx context.Context) (int64, error)

	Migrate(ctx context.Context) error
	Close() error
}
