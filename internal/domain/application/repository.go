package application

import (
	"context"

	offerdomain "timebank-go/internal/domain/offer"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	GetOffer(ctx context.Context, offerID string) (*offerdomain.Offer, error)
	GetApplication(ctx context.Context, applicationID string) (*Application, error)
	GetByOfferAndApplicant(ctx context.Context, offerID, applicantID string) (*Application, error)
	CreateApplication(ctx context.Context, a *Application) error
	// AcceptApplication and RejectApplication are conditional on the
	// application still being pending; false means it was already decided.
	AcceptApplication(ctx context.Context, applicationID string) (bool, error)
	RejectApplication(ctx context.Context, applicationID string) (bool, error)
	// RejectSiblings forces every other pending application on the offer to
	// rejected and returns how many were affected.
	RejectSiblings(ctx context.Context, offerID, exceptID string) (int64, error)
	// SetOfferStatus moves the offer to the target status only while its
	// current status is one of from.
	SetOfferStatus(ctx context.Context, offerID string, from []offerdomain.Status, to offerdomain.Status) (bool, error)
	ListByOffer(ctx context.Context, offerID string) ([]ApplicantView, error)
	ListByApplicant(ctx context.Context, applicantID string) ([]MineView, error)
}
