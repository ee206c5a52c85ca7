package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"timebank-go/internal/events"
)

const maxUsernameLen = 30

type Service struct {
	repo            Repository
	bus             *events.Bus
	startingBalance int
}

func NewService(repo Repository, bus *events.Bus, startingBalance int) *Service {
	return &Service{repo: repo, bus: bus, startingBalance: startingBalance}
}

func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

// Upsert is called by the auth middleware on every authenticated request.
// The first insert also seeds the user's time balance.
func (s *Service) Upsert(ctx context.Context, id, email, avatarURL string) error {
	var created bool
	var result Profile
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		existing, err := tx.GetProfile(ctx, id)
		if err != nil && !errors.Is(err, ErrProfileNotFound) {
			return err
		}

		if existing == nil {
			p := Profile{
				ID:        id,
				Email:     email,
				AvatarURL: avatarURL,
			}
			if err := tx.CreateProfile(ctx, &p); err != nil {
				return err
			}
			if _, err := tx.EnsureBalance(ctx, id, s.startingBalance); err != nil {
				return err
			}
			created = true
			result = p
			return nil
		}

		if existing.Email == email && (avatarURL == "" || existing.AvatarURL == avatarURL) {
			result = *existing
			return nil
		}

		existing.Email = email
		if avatarURL != "" {
			existing.AvatarURL = avatarURL
		}
		existing.UpdatedAt = time.Now().UTC()
		if err := tx.UpdateProfile(ctx, existing); err != nil {
			return err
		}
		result = *existing
		return nil
	})
	if err != nil {
		return err
	}

	if created {
		s.publish(events.Event{Entity: events.EntityProfile, Type: events.TypeInsert, New: result})
	}
	return nil
}

func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Profile, error) {
	username, err := normalizeUsername(input.Username)
	if err != nil {
		return nil, err
	}
	services := normalizeServices(input.Services)

	var old, updated Profile
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		p, err := tx.GetProfile(ctx, id)
		if err != nil {
			return err
		}
		old = *p

		if username != nil {
			// Username is set exactly once during onboarding.
			if p.Username != nil && *p.Username != *username {
				return ErrUsernameAlreadySet
			}
			p.Username = username
		}
		if input.Services != nil {
			p.Services = services
		}
		if input.AvatarURL != nil {
			p.AvatarURL = strings.TrimSpace(*input.AvatarURL)
		}
		p.UpdatedAt = time.Now().UTC()

		if err := tx.UpdateProfile(ctx, p); err != nil {
			return err
		}
		updated = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.Event{Entity: events.EntityProfile, Type: events.TypeUpdate, Old: old, New: updated})
	return &updated, nil
}

func (s *Service) publish(event events.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}

func normalizeUsername(value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	username := strings.TrimSpace(*value)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if len([]rune(username)) > maxUsernameLen {
		return nil, fmt.Errorf("username must be at most %d characters", maxUsernameLen)
	}
	return &username, nil
}

// normalizeServices trims and de-duplicates the tag set, keeping first
// occurrence order.
func normalizeServices(services []string) []string {
	if len(services) == 0 {
		return []string{}
	}

	seen := make(map[string]struct{}, len(services))
	result := make([]string, 0, len(services))
	for _, service := range services {
		value := strings.TrimSpace(service)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, value)
	}

	return result
}
