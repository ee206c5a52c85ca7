package application

import (
	"context"
	"errors"
	"time"

	applicationdomain "timebank-go/internal/domain/application"
	offerdomain "timebank-go/internal/domain/offer"

	"gorm.io/gorm"
)

const unknownUser = "Unknown User"

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(applicationdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
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

func (r *PostgresRepository) GetApplication(ctx context.Context, applicationID string) (*applicationdomain.Application, error) {
	var a applicationdomain.Application
	if err := r.db.WithContext(ctx).Where("id = ?", applicationID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, applicationdomain.ErrApplicationNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PostgresRepository) GetByOfferAndApplicant(ctx context.Context, offerID, applicantID string) (*applicationdomain.Application, error) {
	var a applicationdomain.Application
	if err := r.db.WithContext(ctx).
		Where("offer_id = ? AND applicant_id = ?", offerID, applicantID).
		First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, applicationdomain.ErrApplicationNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PostgresRepository) CreateApplication(ctx context.Context, a *applicationdomain.Application) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *PostgresRepository) AcceptApplication(ctx context.Context, applicationID string) (bool, error) {
	return r.setStatus(ctx, applicationID, applicationdomain.StatusAccepted)
}

func (r *PostgresRepository) RejectApplication(ctx context.Context, applicationID string) (bool, error) {
	return r.setStatus(ctx, applicationID, applicationdomain.StatusRejected)
}

func (r *PostgresRepository) setStatus(ctx context.Context, applicationID string, status applicationdomain.Status) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&applicationdomain.Application{}).
		Where("id = ? AND status = ?", applicationID, applicationdomain.StatusPending).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) RejectSiblings(ctx context.Context, offerID, exceptID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&applicationdomain.Application{}).
		Where("offer_id = ? AND id <> ? AND status = ?", offerID, exceptID, applicationdomain.StatusPending).
		Updates(map[string]interface{}{
			"status":     applicationdomain.StatusRejected,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func (r *PostgresRepository) SetOfferStatus(ctx context.Context, offerID string, from []offerdomain.Status, to offerdomain.Status) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&offerdomain.Offer{}).
		Where("id = ? AND status IN ?", offerID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

type applicantRow struct {
	ID                 string
	OfferID            string
	ApplicantID        string
	Status             applicationdomain.Status
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ApplicantUsername  *string
	ApplicantAvatarURL *string
}

func (r *PostgresRepository) ListByOffer(ctx context.Context, offerID string) ([]applicationdomain.ApplicantView, error) {
	var rows []applicantRow
	if err := r.db.WithContext(ctx).
		Table("offer_applications").
		Select(`offer_applications.*,
			profiles.username AS applicant_username,
			profiles.avatar_url AS applicant_avatar_url`).
		Joins("LEFT JOIN profiles ON profiles.id = offer_applications.applicant_id").
		Where("offer_applications.offer_id = ?", offerID).
		Order("offer_applications.created_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	views := make([]applicationdomain.ApplicantView, 0, len(rows))
	for _, row := range rows {
		view := applicationdomain.ApplicantView{
			Application: applicationdomain.Application{
				ID:          row.ID,
				OfferID:     row.OfferID,
				ApplicantID: row.ApplicantID,
				Status:      row.Status,
				CreatedAt:   row.CreatedAt,
				UpdatedAt:   row.UpdatedAt,
			},
			ApplicantUsername: unknownUser,
		}
		if row.ApplicantUsername != nil && *row.ApplicantUsername != "" {
			view.ApplicantUsername = *row.ApplicantUsername
		}
		if row.ApplicantAvatarURL != nil {
			view.ApplicantAvatarURL = *row.ApplicantAvatarURL
		}
		views = append(views, view)
	}

	return views, nil
}

type mineRow struct {
	ID               string
	OfferID          string
	ApplicantID      string
	Status           applicationdomain.Status
	CreatedAt        time.Time
	UpdatedAt        time.Time
	OfferTitle       string
	OfferStatus      offerdomain.Status
	OfferTimeCredits int
	OwnerID          string
	OwnerUsername    *string
}

func (r *PostgresRepository) ListByApplicant(ctx context.Context, applicantID string) ([]applicationdomain.MineView, error) {
	var rows []mineRow
	if err := r.db.WithContext(ctx).
		Table("offer_applications").
		Select(`offer_applications.*,
			offers.title AS offer_title,
			offers.status AS offer_status,
			offers.time_credits AS offer_time_credits,
			offers.owner_id AS owner_id,
			profiles.username AS owner_username`).
		Joins("JOIN offers ON offers.id = offer_applications.offer_id").
		Joins("LEFT JOIN profiles ON profiles.id = offers.owner_id").
		Where("offer_applications.applicant_id = ?", applicantID).
		Order("offer_applications.created_at desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	views := make([]applicationdomain.MineView, 0, len(rows))
	for _, row := range rows {
		view := applicationdomain.MineView{
			Application: applicationdomain.Application{
				ID:          row.ID,
				OfferID:     row.OfferID,
				ApplicantID: row.ApplicantID,
				Status:      row.Status,
				CreatedAt:   row.CreatedAt,
				UpdatedAt:   row.UpdatedAt,
			},
			OfferTitle:       row.OfferTitle,
			OfferStatus:      row.OfferStatus,
			OfferTimeCredits: row.OfferTimeCredits,
			OwnerID:          row.OwnerID,
			OwnerUsername:    unknownUser,
		}
		if row.OwnerUsername != nil && *row.OwnerUsername != "" {
			view.OwnerUsername = *row.OwnerUsername
		}
		views = append(views, view)
	}

	return views, nil
}
