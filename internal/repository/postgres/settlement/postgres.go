package settlement

import (
	"context"
	"errors"
	"time"

	offerdomain "timebank-go/internal/domain/offer"
	settlementdomain "timebank-go/internal/domain/settlement"

	"gorm.io/gorm"
)

const unknownUser = "Unknown User"

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(settlementdomain.Repository) error) error {
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

func (r *PostgresRepository) AcceptedApplicants(ctx context.Context, offerID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Table("offer_applications").
		Where("offer_id = ? AND status = ?", offerID, "accepted").
		Pluck("applicant_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PostgresRepository) CompleteOffer(ctx context.Context, offerID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&offerdomain.Offer{}).
		Where("id = ? AND status = ?", offerID, offerdomain.StatusBooked).
		Updates(map[string]interface{}{
			"status":     offerdomain.StatusCompleted,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) CreditBalance(ctx context.Context, userID string, amount int) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO time_balances (user_id, balance, updated_at) VALUES (?, ?, NOW())
		ON CONFLICT (user_id) DO UPDATE SET balance = time_balances.balance + EXCLUDED.balance, updated_at = NOW()`,
		userID, amount,
	).Error
}

func (r *PostgresRepository) GetBalance(ctx context.Context, userID string) (*settlementdomain.TimeBalance, error) {
	var balance settlementdomain.TimeBalance
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, settlementdomain.ErrBalanceNotFound
		}
		return nil, err
	}
	return &balance, nil
}

func (r *PostgresRepository) CreateTransaction(ctx context.Context, t *settlementdomain.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

type transactionRow struct {
	ID                   string
	OfferID              string
	Service              string
	Hours                int
	RequesterID          string
	ProviderID           string
	CreatedAt            time.Time
	OfferTitle           *string
	OfferServiceType     *string
	CounterpartyUsername *string
}

func (r *PostgresRepository) ListTransactions(ctx context.Context, userID string, role settlementdomain.Role) ([]settlementdomain.TransactionView, error) {
	own := "transactions.provider_id"
	counterparty := "transactions.requester_id"
	if role == settlementdomain.RoleRequester {
		own = "transactions.requester_id"
		counterparty = "transactions.provider_id"
	}

	var rows []transactionRow
	if err := r.db.WithContext(ctx).
		Table("transactions").
		Select(`transactions.*,
			offers.title AS offer_title,
			offers.service_type AS offer_service_type,
			profiles.username AS counterparty_username`).
		Joins("LEFT JOIN offers ON offers.id = transactions.offer_id").
		Joins("LEFT JOIN profiles ON profiles.id = "+counterparty).
		Where(own+" = ?", userID).
		Order("transactions.created_at desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	views := make([]settlementdomain.TransactionView, 0, len(rows))
	for _, row := range rows {
		view := settlementdomain.TransactionView{
			Transaction: settlementdomain.Transaction{
				ID:          row.ID,
				OfferID:     row.OfferID,
				Service:     row.Service,
				Hours:       row.Hours,
				RequesterID: row.RequesterID,
				ProviderID:  row.ProviderID,
				CreatedAt:   row.CreatedAt,
			},
			CounterpartyUsername: unknownUser,
		}
		if row.OfferTitle != nil {
			view.OfferTitle = *row.OfferTitle
		}
		if row.OfferServiceType != nil {
			view.OfferServiceType = *row.OfferServiceType
		}
		if row.CounterpartyUsername != nil && *row.CounterpartyUsername != "" {
			view.CounterpartyUsername = *row.CounterpartyUsername
		}
		views = append(views, view)
	}

	return views, nil
}

func (r *PostgresRepository) Stats(ctx context.Context, userID string) (*settlementdomain.Stats, error) {
	var stats settlementdomain.Stats

	given, err := r.sumHours(ctx, "provider_id", userID)
	if err != nil {
		return nil, err
	}
	stats.HoursGiven = given

	received, err := r.sumHours(ctx, "requester_id", userID)
	if err != nil {
		return nil, err
	}
	stats.HoursReceived = received

	var open int64
	if err := r.db.WithContext(ctx).
		Model(&offerdomain.Offer{}).
		Where("owner_id = ? AND status IN ?", userID, []offerdomain.Status{offerdomain.StatusAvailable, offerdomain.StatusPending, offerdomain.StatusBooked}).
		Count(&open).Error; err != nil {
		return nil, err
	}
	stats.OpenOffers = int(open)

	return &stats, nil
}

func (r *PostgresRepository) sumHours(ctx context.Context, column, userID string) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Table("transactions").
		Select("COALESCE(SUM(hours), 0)").
		Where(column+" = ?", userID).
		Row().Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}
