package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Customer struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID         uuid.UUID  `gorm:"type:uuid;index;not null;uniqueIndex:idx_customer_salon_phone,priority:1" json:"salonId"`
	CreatedByUserID *uuid.UUID `gorm:"type:uuid;index" json:"createdByUserId,omitempty"`

	FirstName   string     `gorm:"not null" json:"firstName"`
	LastName    string     `json:"lastName"`
	Phone       string     `gorm:"not null;uniqueIndex:idx_customer_salon_phone,priority:2" json:"phone"`
	Email       string     `json:"email,omitempty"`
	Address     string     `json:"address,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`

	TotalVisits int             `gorm:"default:0" json:"totalVisits"`
	TotalSpent  decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"totalSpent"`
	LastVisit   *time.Time      `json:"lastVisit,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

func (c *Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
