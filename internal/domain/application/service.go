package application

import (
	"context"
	"errors"
	"fmt"

	offerdomain "timebank-go/internal/domain/offer"
	"timebank-go/internal/events"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	bus  *events.Bus
}

func NewService(repo Repository, bus *events.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// Apply records a pending application by the actor on an open offer.
// Duplicate applications fail; the unique (offer, applicant) index backs
// the in-transaction check against races.
func (s *Service) Apply(ctx context.Context, actorID, offerID string) (*Application, error) {
	a := Application{
		ID:          uuid.NewString(),
		OfferID:     offerID,
		ApplicantID: actorID,
		Status:      StatusPending,
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		o, err := tx.GetOffer(ctx, offerID)
		if err != nil {
			return err
		}
		if o.OwnerID == actorID {
			return ErrOwnApplication
		}
		if !o.Status.Open() {
			return ErrOfferNotOpen
		}

		existing, err := tx.GetByOfferAndApplicant(ctx, offerID, actorID)
		if err != nil && !errors.Is(err, ErrApplicationNotFound) {
			return err
		}
		if existing != nil {
			return ErrAlreadyApplied
		}

		return tx.CreateApplication(ctx, &a)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.Event{Entity: events.EntityApplication, Type: events.TypeInsert, New: a})
	return &a, nil
}

// UpdateStatus decides a pending application. Acceptance cascades in one
// transaction: the application becomes accepted, every sibling pending
// application becomes rejected, and the offer becomes booked.
func (s *Service) UpdateStatus(ctx context.Context, actorID, applicationID string, status Status) (*Application, error) {
	if status != StatusAccepted && status != StatusRejected {
		return nil, fmt.Errorf("status must be accepted or rejected")
	}

	var old, updated Application
	var offerBooked bool
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		a, err := tx.GetApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		o, err := tx.GetOffer(ctx, a.OfferID)
		if err != nil {
			return err
		}
		if o.OwnerID != actorID {
			return ErrForbidden
		}
		if a.Status != StatusPending {
			return ErrApplicationDecided
		}
		old = *a

		if status == StatusRejected {
			ok, err := tx.RejectApplication(ctx, a.ID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrApplicationDecided
			}
			updated = *a
			updated.Status = StatusRejected
			return nil
		}

		ok, err := tx.AcceptApplication(ctx, a.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrApplicationDecided
		}
		if _, err := tx.RejectSiblings(ctx, a.OfferID, a.ID); err != nil {
			return err
		}
		booked, err := tx.SetOfferStatus(ctx, a.OfferID,
			[]offerdomain.Status{offerdomain.StatusAvailable, offerdomain.StatusPending},
			offerdomain.StatusBooked)
		if err != nil {
			return err
		}
		if !booked {
			return ErrOfferNotOpen
		}
		offerBooked = true
		updated = *a
		updated.Status = StatusAccepted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.Event{Entity: events.EntityApplication, Type: events.TypeUpdate, Old: old, New: updated})
	if offerBooked {
		s.publish(events.Event{Entity: events.EntityOffer, Type: events.TypeUpdate, New: map[string]any{
			"id": old.OfferID, "status": offerdomain.StatusBooked,
		}})
	}
	return &updated, nil
}

// ListByOffer returns the offer's applications with applicant profile info.
// Owner only.
func (s *Service) ListByOffer(ctx context.Context, actorID, offerID string) ([]ApplicantView, error) {
	o, err := s.repo.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if o.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return s.repo.ListByOffer(ctx, offerID)
}

func (s *Service) GetMine(ctx context.Context, actorID, offerID string) (*Application, error) {
	return s.repo.GetByOfferAndApplicant(ctx, offerID, actorID)
}

func (s *Service) ListMine(ctx context.Context, actorID string) ([]MineView, error) {
	return s.repo.ListByApplicant(ctx, actorID)
}

func (s *Service) publish(event events.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}
