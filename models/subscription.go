package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubscriptionTrialing  = "trialing"
	SubscriptionActive    = "active"
	SubscriptionPastDue   = "past_due"
	SubscriptionCancelled = "cancelled"
)

type Subscription struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"salonId"`
	Plan             string    `gorm:"type:varchar(40);not null" json:"plan"`
	Status           string    `gorm:"type:varchar(20);not null" json:"status"`
	CurrentPeriodEnd time.Time `json:"currentPeriodEnd"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

func (s *Subscription) ActiveAt(now time.Time) bool {
	if s.Status != SubscriptionActive && s.Status != SubscriptionTrialing {
		return false
	}
	return now.Before(s.CurrentPeriodEnd)
}
