package offer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"timebank-go/internal/events"
	"timebank-go/internal/readmodel"

	"github.com/google/uuid"
)

type Service struct {
	repo     Repository
	bus      *events.Bus
	cache    *readmodel.Cache
	cacheTTL time.Duration
}

func NewService(repo Repository, bus *events.Bus, cache *readmodel.Cache, cacheTTL time.Duration) *Service {
	return &Service{repo: repo, bus: bus, cache: cache, cacheTTL: cacheTTL}
}

// Create reserves the offer's credits from the owner's balance and inserts
// the offer in one transaction. The debit is a conditional update, so a
// concurrent spend cannot take the balance negative.
func (s *Service) Create(ctx context.Context, actorID string, input CreateInput) (*Offer, error) {
	if err := validateCreate(&input); err != nil {
		return nil, err
	}

	o := Offer{
		ID:          uuid.NewString(),
		OwnerID:     actorID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		ServiceType: strings.TrimSpace(input.ServiceType),
		Hours:       input.Hours,
		Duration:    input.Duration,
		TimeCredits: input.TimeCredits,
		Date:        input.Date,
		Status:      StatusAvailable,
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		ok, err := tx.DebitBalance(ctx, actorID, o.TimeCredits)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientCredits
		}
		return tx.CreateOffer(ctx, &o)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.Event{Entity: events.EntityOffer, Type: events.TypeInsert, New: o})
	s.publish(events.Event{
		Entity: events.EntityTimeBalance,
		Type:   events.TypeUpdate,
		New:    events.BalanceChanged{UserID: actorID, Delta: -o.TimeCredits},
	})
	return &o, nil
}

func (s *Service) Get(ctx context.Context, offerID string) (*Offer, error) {
	return s.repo.GetOffer(ctx, offerID)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Offer, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) Update(ctx context.Context, actorID, offerID string, input UpdateInput) (*Offer, error) {
	var old, updated Offer
	var delta int
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		o, err := tx.GetOffer(ctx, offerID)
		if err != nil {
			return err
		}
		if o.OwnerID != actorID {
			return ErrForbidden
		}
		if !o.Status.Open() {
			return ErrOfferLocked
		}
		old = *o

		if err := applyUpdate(o, input); err != nil {
			return err
		}

		delta = o.TimeCredits - old.TimeCredits
		if delta > 0 {
			ok, err := tx.DebitBalance(ctx, actorID, delta)
			if err != nil {
				return err
			}
			if !ok {
				return ErrInsufficientCredits
			}
		} else if delta < 0 {
			if err := tx.CreditBalance(ctx, actorID, -delta); err != nil {
				return err
			}
		}

		o.UpdatedAt = time.Now().UTC()
		ok, err := tx.UpdateOffer(ctx, o)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
		updated = *o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.Event{Entity: events.EntityOffer, Type: events.TypeUpdate, Old: old, New: updated})
	if delta != 0 {
		s.publish(events.Event{
			Entity: events.EntityTimeBalance,
			Type:   events.TypeUpdate,
			New:    events.BalanceChanged{UserID: actorID, Delta: -delta},
		})
	}
	return &updated, nil
}

// Delete removes an offer that is not yet booked and refunds the reserved
// credits to the owner.
func (s *Service) Delete(ctx context.Context, actorID, offerID string) error {
	var old Offer
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		o, err := tx.GetOffer(ctx, offerID)
		if err != nil {
			return err
		}
		if o.OwnerID != actorID {
			return ErrForbidden
		}
		if !o.Status.Open() {
			return ErrOfferLocked
		}
		old = *o

		ok, err := tx.DeleteOffer(ctx, offerID, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOfferNotFound
		}
		return tx.CreditBalance(ctx, actorID, o.TimeCredits)
	})
	if err != nil {
		return err
	}

	s.publish(events.Event{Entity: events.EntityOffer, Type: events.TypeDelete, Old: old})
	s.publish(events.Event{
		Entity: events.EntityTimeBalance,
		Type:   events.TypeUpdate,
		New:    events.BalanceChanged{UserID: actorID, Delta: old.TimeCredits},
	})
	return nil
}

// Explore lists open offers for a viewer. Without a search the result is
// ranked by relevance against the viewer's declared services; with a search
// it is a plain title match. Results are served through the read-model cache.
func (s *Service) Explore(ctx context.Context, viewerID, search string) ([]ListedOffer, error) {
	search = strings.TrimSpace(search)
	key := readmodel.Key{
		Entity: events.EntityOffer,
		Query:  "explore:user=" + viewerID + ",q=" + strings.ToLower(search),
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if offers, ok := cached.([]ListedOffer); ok {
				return offers, nil
			}
		}
	}

	offers, err := s.repo.ListAvailable(ctx, search)
	if err != nil {
		return nil, err
	}

	if search == "" {
		services, err := s.repo.GetViewerServices(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		offers = Rank(offers, services)
	}

	if s.cache != nil {
		s.cache.Set(key, offers, s.cacheTTL)
	}
	return offers, nil
}

func (s *Service) publish(event events.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}

func validateCreate(input *CreateInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if strings.TrimSpace(input.ServiceType) == "" {
		return fmt.Errorf("service_type is required")
	}
	if input.TimeCredits <= 0 {
		return fmt.Errorf("time_credits must be positive")
	}
	if input.Hours <= 0 {
		input.Hours = 1
	}
	if input.Duration <= 0 {
		input.Duration = input.Hours
	}
	return nil
}

func applyUpdate(o *Offer, input UpdateInput) error {
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return fmt.Errorf("title is required")
		}
		o.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return fmt.Errorf("description is required")
		}
		o.Description = strings.TrimSpace(*input.Description)
	}
	if input.ServiceType != nil {
		if strings.TrimSpace(*input.ServiceType) == "" {
			return fmt.Errorf("service_type is required")
		}
		o.ServiceType = strings.TrimSpace(*input.ServiceType)
	}
	if input.Hours != nil {
		if *input.Hours <= 0 {
			return fmt.Errorf("hours must be positive")
		}
		o.Hours = *input.Hours
	}
	if input.Duration != nil {
		if *input.Duration <= 0 {
			return fmt.Errorf("duration must be positive")
		}
		o.Duration = *input.Duration
	}
	if input.TimeCredits != nil {
		if *input.TimeCredits <= 0 {
			return fmt.Errorf("time_credits must be positive")
		}
		o.TimeCredits = *input.TimeCredits
	}
	if input.Date != nil {
		o.Date = input.Date
	}
	if input.Status != nil && *input.Status != o.Status {
		// Owners may only park an offer as pending; booking and completion
		// go through the application and settlement flows.
		if *input.Status != StatusPending || !CanTransition(o.Status, *input.Status) {
			return ErrInvalidTransition
		}
		o.Status = *input.Status
	}
	return nil
}
