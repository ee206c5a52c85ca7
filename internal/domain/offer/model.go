package offer

import "time"

type Status string

const (
	StatusAvailable Status = "available"
	StatusPending   Status = "pending"
	StatusBooked    Status = "booked"
	StatusCompleted Status = "completed"
)

// CanTransition reports whether an offer status may move from one state to
// another. Transitions are forward-only; completed is terminal.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusAvailable:
		return to == StatusPending || to == StatusBooked
	case StatusPending:
		return to == StatusBooked
	case StatusBooked:
		return to == StatusCompleted
	default:
		return false
	}
}

// Open reports whether the offer still takes applications.
func (s Status) Open() bool {
	return s == StatusAvailable || s == StatusPending
}

type Offer struct {
	ID          string     `gorm:"type:uuid;primaryKey"`
	OwnerID     string     `gorm:"type:uuid;index;not null"`
	Title       string     `gorm:"not null"`
	Description string     `gorm:"not null"`
	ServiceType string     `gorm:"not null"`
	Hours       int        `gorm:"not null;default:1"`
	Duration    int        `gorm:"not null;default:1"`
	TimeCredits int        `gorm:"not null"`
	Date        *time.Time `gorm:"type:date"`
	Status      Status     `gorm:"not null;default:'available'"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

// ListedOffer is the explore read model: an open offer with its owner's
// public profile fields and the number of accepted applicants.
type ListedOffer struct {
	Offer
	OwnerUsername  string
	OwnerAvatarURL string
	AcceptedCount  int
	RelevanceScore int
}

type CreateInput struct {
	Title       string
	Description string
	ServiceType string
	Hours       int
	Duration    int
	TimeCredits int
	Date        *time.Time
}

type UpdateInput struct {
	Title       *string
	Description *string
	ServiceType *string
	Hours       *int
	Duration    *int
	TimeCredits *int
	Date        *time.Time
	Status      *Status
}
