package settings

import "context"

// Repository defines persistence operations for the settings record
type Repository interface {
	// Get loads the settings row, creating an empty one on first access
	Get(ctx context.Context) (*Settings, error)

	// Save persists the settings row
	Save(ctx context.Context, s *Settings) error
}
