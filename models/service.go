package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ServiceActive   = "active"
	ServiceInactive = "inactive"
)

type ServiceCategory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID   uuid.UUID `gorm:"type:uuid;index;not null" json:"salonId"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *ServiceCategory) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

type Service struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID     uuid.UUID        `gorm:"type:uuid;index;not null" json:"salonId"`
	CategoryID  *uuid.UUID       `gorm:"type:uuid;index" json:"categoryId,omitempty"`
	Category    *ServiceCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Name        string           `gorm:"not null" json:"name"`
	Description string           `json:"description,omitempty"`
	Duration    int              `gorm:"not null" json:"duration"` // minutes
	Price       decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"price"`
	Status      string           `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

func (s *Service) Bookable() bool {
	return s.Status == ServiceActive
}
