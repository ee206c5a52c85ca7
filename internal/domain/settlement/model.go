package settlement

import "time"

// DefaultServiceLabel is recorded on settlement transactions.
const DefaultServiceLabel = "Time Exchange"

type TimeBalance struct {
	UserID    string    `gorm:"type:uuid;primaryKey"`
	Balance   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (TimeBalance) TableName() string {
	return "time_balances"
}

// Transaction is the immutable record of one completed credit transfer.
// Rows are append-only; there is exactly one per completed offer.
type Transaction struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	OfferID     string    `gorm:"type:uuid;not null;uniqueIndex"`
	Service     string    `gorm:"not null"`
	Hours       int       `gorm:"not null"`
	RequesterID string    `gorm:"type:uuid;index;not null"`
	ProviderID  string    `gorm:"type:uuid;index;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

type Role string

const (
	RoleProvider  Role = "provider"
	RoleRequester Role = "requester"
)

// TransactionView joins a transaction with offer details and the
// counterparty's username for the completed-offers history.
type TransactionView struct {
	Transaction
	OfferTitle           string
	OfferServiceType     string
	CounterpartyUsername string
}

// Stats backs the home quick-stats view.
type Stats struct {
	HoursGiven    int
	HoursReceived int
	OpenOffers    int
}
