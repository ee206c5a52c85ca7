package profile

import (
	"context"
	"errors"

	profiledomain "timebank-go/internal/domain/profile"

	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(profiledomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetProfile(ctx context.Context, id string) (*profiledomain.Profile, error) {
	var p profiledomain.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profiledomain.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) CreateProfile(ctx context.Context, p *profiledomain.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, p *profiledomain.Profile) error {
	return r.db.WithContext(ctx).
		Model(&profiledomain.Profile{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"email":      p.Email,
			"username":   p.Username,
			"avatar_url": p.AvatarURL,
			"services":   p.Services,
			"updated_at": p.UpdatedAt,
		}).Error
}

func (r *PostgresRepository) EnsureBalance(ctx context.Context, userID string, starting int) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		"INSERT INTO time_balances (user_id, balance, updated_at) VALUES (?, ?, NOW()) ON CONFLICT (user_id) DO NOTHING",
		userID, starting,
	)
	return result.RowsAffected > 0, result.Error
}
