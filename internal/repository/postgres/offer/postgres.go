package offer

import (
	"context"
	"database/sql"
	"errors"
	"time"

	offerdomain "timebank-go/internal/domain/offer"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const unknownUser = "Unknown User"

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(offerdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreateOffer(ctx context.Context, o *offerdomain.Offer) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *PostgresRepository) GetOffer(ctx context.Context, offerID string) (*offerdomain.Offer, error) {
	var o offerdomain.Offer
	if err := r.db.WithContext(ctx).Where("id = ?", offerID).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, offerdomain.ErrOfferNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *PostgresRepository) UpdateOffer(ctx context.Context, o *offerdomain.Offer) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&offerdomain.Offer{}).
		Where("id = ? AND owner_id = ?", o.ID, o.OwnerID).
		Updates(map[string]interface{}{
			"title":        o.Title,
			"description":  o.Description,
			"service_type": o.ServiceType,
			"hours":        o.Hours,
			"duration":     o.Duration,
			"time_credits": o.TimeCredits,
			"date":         o.Date,
			"status":       o.Status,
			"updated_at":   o.UpdatedAt,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) DeleteOffer(ctx context.Context, offerID, ownerID string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&offerdomain.Offer{}, "id = ? AND owner_id = ?", offerID, ownerID)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]offerdomain.Offer, error) {
	var offers []offerdomain.Offer
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

type listedRow struct {
	ID             string
	OwnerID        string
	Title          string
	Description    string
	ServiceType    string
	Hours          int
	Duration       int
	TimeCredits    int
	Date           *time.Time
	Status         offerdomain.Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	OwnerUsername  *string
	OwnerAvatarURL *string
	AcceptedCount  int
}

func (r *PostgresRepository) ListAvailable(ctx context.Context, search string) ([]offerdomain.ListedOffer, error) {
	query := r.db.WithContext(ctx).
		Table("offers").
		Select(`offers.*,
			profiles.username AS owner_username,
			profiles.avatar_url AS owner_avatar_url,
			(SELECT COUNT(1) FROM offer_applications a
				WHERE a.offer_id = offers.id AND a.status = 'accepted') AS accepted_count`).
		Joins("LEFT JOIN profiles ON profiles.id = offers.owner_id").
		Where("offers.status = ?", offerdomain.StatusAvailable)
	if search != "" {
		query = query.Where("offers.title ILIKE ?", "%"+search+"%")
	}

	var rows []listedRow
	if err := query.Order("offers.created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	offers := make([]offerdomain.ListedOffer, 0, len(rows))
	for _, row := range rows {
		listed := offerdomain.ListedOffer{
			Offer: offerdomain.Offer{
				ID:          row.ID,
				OwnerID:     row.OwnerID,
				Title:       row.Title,
				Description: row.Description,
				ServiceType: row.ServiceType,
				Hours:       row.Hours,
				Duration:    row.Duration,
				TimeCredits: row.TimeCredits,
				Date:        row.Date,
				Status:      row.Status,
				CreatedAt:   row.CreatedAt,
				UpdatedAt:   row.UpdatedAt,
			},
			OwnerUsername: unknownUser,
			AcceptedCount: row.AcceptedCount,
		}
		if row.OwnerUsername != nil && *row.OwnerUsername != "" {
			listed.OwnerUsername = *row.OwnerUsername
		}
		if row.OwnerAvatarURL != nil {
			listed.OwnerAvatarURL = *row.OwnerAvatarURL
		}
		offers = append(offers, listed)
	}

	return offers, nil
}

func (r *PostgresRepository) GetViewerServices(ctx context.Context, userID string) ([]string, error) {
	var services pq.StringArray
	err := r.db.WithContext(ctx).
		Table("profiles").
		Select("services").
		Where("id = ?", userID).
		Row().Scan(&services)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// A viewer without a profile row has no declared interests.
			return nil, nil
		}
		return nil, err
	}
	return services, nil
}

func (r *PostgresRepository) DebitBalance(ctx context.Context, userID string, amount int) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		"UPDATE time_balances SET balance = balance - ?, updated_at = NOW() WHERE user_id = ? AND balance >= ?",
		amount, userID, amount,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) CreditBalance(ctx context.Context, userID string, amount int) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO time_balances (user_id, balance, updated_at) VALUES (?, ?, NOW())
		ON CONFLICT (user_id) DO UPDATE SET balance = time_balances.balance + EXCLUDED.balance, updated_at = NOW()`,
		userID, amount,
	).Error
}
