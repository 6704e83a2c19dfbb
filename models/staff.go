package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StaffActive   = "active"
	StaffInactive = "inactive"
	StaffOnLeave  = "on_leave"
)

type Staff struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID         uuid.UUID                   `gorm:"type:uuid;index;not null" json:"salonId"`
	FirstName       string                      `gorm:"not null" json:"firstName"`
	LastName        string                      `json:"lastName"`
	Phone           string                      `json:"phone,omitempty"`
	Email           string                      `json:"email,omitempty"`
	RoleLabel       string                      `json:"role"`
	Specializations datatypes.JSONSlice[string] `json:"specializations"`
	HireDate        *time.Time                  `json:"hireDate,omitempty"`
	Salary          *decimal.Decimal            `gorm:"type:decimal(10,2)" json:"salary,omitempty"`
	CommissionRate  *decimal.Decimal            `gorm:"type:decimal(5,2)" json:"commissionRate,omitempty"`
	Status          string                      `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Staff) TableName() string {
	return "staff"
}

func (s *Staff) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}
