package settlement

import (
	"context"
	"fmt"
	"time"

	offerdomain "timebank-go/internal/domain/offer"
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

// Complete finalizes a booked offer in one transaction: the status moves to
// completed, the single accepted applicant is credited the offer's credits,
// and one transaction row is written. The status write is conditional on
// booked, so a second call is rejected rather than credited twice. The
// requester pays nothing here; their credits were reserved at creation.
func (s *Service) Complete(ctx context.Context, actorID, offerID string) (*Transaction, error) {
	var record Transaction
	var provider string
	var credits int
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		o, err := tx.GetOffer(ctx, offerID)
		if err != nil {
			return err
		}
		if o.OwnerID != actorID {
			return ErrForbidden
		}
		if o.Status == offerdomain.StatusCompleted {
			return ErrAlreadyCompleted
		}

		accepted, err := tx.AcceptedApplicants(ctx, offerID)
		if err != nil {
			return err
		}
		if len(accepted) != 1 {
			return ErrNoAcceptedApplicant
		}
		provider = accepted[0]
		credits = o.TimeCredits

		ok, err := tx.CompleteOffer(ctx, offerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOfferNotBooked
		}

		if err := tx.CreditBalance(ctx, provider, credits); err != nil {
			return err
		}

		record = Transaction{
			ID:          uuid.NewString(),
			OfferID:     offerID,
			Service:     DefaultServiceLabel,
			Hours:       credits,
			RequesterID: actorID,
			ProviderID:  provider,
		}
		return tx.CreateTransaction(ctx, &record)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.Event{Entity: events.EntityOffer, Type: events.TypeUpdate, New: map[string]any{
		"id": offerID, "status": offerdomain.StatusCompleted,
	}})
	s.publish(events.Event{
		Entity: events.EntityTimeBalance,
		Type:   events.TypeUpdate,
		New:    events.BalanceChanged{UserID: provider, Delta: credits},
	})
	s.publish(events.Event{Entity: events.EntityTransaction, Type: events.TypeInsert, New: record})
	return &record, nil
}

func (s *Service) GetBalance(ctx context.Context, userID string) (*TimeBalance, error) {
	key := readmodel.Key{Entity: events.EntityTimeBalance, Query: "user=" + userID}
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if balance, ok := cached.(TimeBalance); ok {
				copied := balance
				return &copied, nil
			}
		}
	}

	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, *balance, s.cacheTTL)
	}
	return balance, nil
}

func (s *Service) ListTransactions(ctx context.Context, userID string, role Role) ([]TransactionView, error) {
	switch role {
	case RoleProvider, RoleRequester:
	default:
		return nil, fmt.Errorf("role must be provider or requester")
	}
	return s.repo.ListTransactions(ctx, userID, role)
}

func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	return s.repo.Stats(ctx, userID)
}

func (s *Service) publish(event events.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}
