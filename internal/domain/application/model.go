package application

import (
	"time"

	offerdomain "timebank-go/internal/domain/offer"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

type Application struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	OfferID     string    `gorm:"type:uuid;index;not null;uniqueIndex:uq_offer_applicant"`
	ApplicantID string    `gorm:"type:uuid;index;not null;uniqueIndex:uq_offer_applicant"`
	Status      Status    `gorm:"not null;default:'pending'"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Application) TableName() string {
	return "offer_applications"
}

// ApplicantView is an application with the applicant's public profile
// fields, as shown to the offer owner.
type ApplicantView struct {
	Application
	ApplicantUsername  string
	ApplicantAvatarURL string
}

// MineView is an application with a summary of the offer it targets, as
// shown to the applicant.
type MineView struct {
	Application
	OfferTitle       string
	OfferStatus      offerdomain.Status
	OfferTimeCredits int
	OwnerID          string
	OwnerUsername    string
}
