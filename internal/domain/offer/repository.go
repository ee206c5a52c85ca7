package offer

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	CreateOffer(ctx context.Context, o *Offer) error
	GetOffer(ctx context.Context, offerID string) (*Offer, error)
	// UpdateOffer writes with an id+owner predicate; false means the
	// predicate excluded the row.
	UpdateOffer(ctx context.Context, o *Offer) (bool, error)
	DeleteOffer(ctx context.Context, offerID, ownerID string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Offer, error)
	// ListAvailable returns available offers joined with owner profile
	// fields and accepted-applicant counts, optionally filtered by a title
	// search.
	ListAvailable(ctx context.Context, search string) ([]ListedOffer, error)
	GetViewerServices(ctx context.Context, userID string) ([]string, error)
	// DebitBalance conditionally subtracts amount; false means the user's
	// balance was below amount.
	DebitBalance(ctx context.Context, userID string, amount int) (bool, error)
	CreditBalance(ctx context.Context, userID string, amount int) error
}
