package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no_show"
)

func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Appointment dates are stored as YYYY-MM-DD and times as HH:MM in the salon's
// local clock.
type Appointment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_appointment_salon_date,priority:1" json:"salonId"`
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"customerId"`
	ServiceID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"serviceId"`
	StaffID    *uuid.UUID `gorm:"type:uuid;index" json:"staffId,omitempty"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Service  *Service  `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Staff    *Staff    `gorm:"foreignKey:StaffID" json:"staff,omitempty"`

	Date            string            `gorm:"type:varchar(10);not null;index:idx_appointment_salon_date,priority:2" json:"date"`
	StartTime       string            `gorm:"type:varchar(5);not null" json:"startTime"`
	EndTime         string            `gorm:"type:varchar(5);not null" json:"endTime"`
	DurationMinutes int               `gorm:"not null" json:"durationMinutes"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`

	BillingGenerated bool       `gorm:"not null;default:false" json:"billingGenerated"`
	SaleID           *uuid.UUID `gorm:"type:uuid" json:"saleId,omitempty"`

	CheckedInAt    *time.Time `json:"checkedInAt,omitempty"`
	AutoCompleteAt *time.Time `gorm:"index" json:"autoCompleteAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CancelledAt    *time.Time `json:"cancelledAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
