package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReminderLog struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"salonId"`
	CustomerID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"customerId"`
	TemplateID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"templateId"`
	AppointmentID *uuid.UUID `gorm:"type:uuid;index" json:"appointmentId,omitempty"`
	Type          string     `gorm:"type:varchar(20)" json:"type"`
	Message       string     `gorm:"type:text" json:"message"`
	Status        string     `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage  string     `gorm:"type:text" json:"errorMessage,omitempty"`
	Channel       string     `gorm:"type:varchar(20)" json:"channel"` // whatsapp, sms
	SentAt        time.Time  `json:"sentAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}
