package profile

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	GetProfile(ctx context.Context, id string) (*Profile, error)
	CreateProfile(ctx context.Context, p *Profile) error
	UpdateProfile(ctx context.Context, p *Profile) error
	// EnsureBalance seeds a time balance row if the user has none.
	// Returns true when a row was created.
	EnsureBalance(ctx context.Context, userID string, starting int) (bool, error)
}
