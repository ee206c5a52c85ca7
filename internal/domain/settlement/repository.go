package settlement

import (
	"context"

	offerdomain "timebank-go/internal/domain/offer"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	GetOffer(ctx context.Context, offerID string) (*offerdomain.Offer, error)
	// AcceptedApplicants returns the applicant ids of accepted applications
	// on the offer.
	AcceptedApplicants(ctx context.Context, offerID string) ([]string, error)
	// CompleteOffer moves the offer booked -> completed; false means the
	// offer was not in booked state.
	CompleteOffer(ctx context.Context, offerID string) (bool, error)
	CreditBalance(ctx context.Context, userID string, amount int) error
	GetBalance(ctx context.Context, userID string) (*TimeBalance, error)
	CreateTransaction(ctx context.Context, t *Transaction) error
	ListTransactions(ctx context.Context, userID string, role Role) ([]TransactionView, error)
	Stats(ctx context.Context, userID string) (*Stats, error)
}
