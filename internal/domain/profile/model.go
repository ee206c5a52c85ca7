package profile

import (
	"time"

	"github.com/lib/pq"
)

type Profile struct {
	ID        string         `gorm:"type:uuid;primaryKey"`
	Email     string         `gorm:"not null;default:''"`
	Username  *string        `gorm:"type:text"`
	AvatarURL string         `gorm:"not null;default:''"`
	Services  pq.StringArray `gorm:"type:text[]"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

type UpdateInput struct {
	Username  *string
	Services  []string
	AvatarURL *string
}
