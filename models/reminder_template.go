package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReminderBirthday    = "birthday"
	ReminderAppointment = "appointment"
)

type ReminderTemplate struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_template_salon_type,priority:1;not null" json:"salonId"`
	Type      string    `gorm:"type:varchar(20);uniqueIndex:idx_template_salon_type,priority:2;not null" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *ReminderTemplate) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// DefaultReminderTemplates are created for every new salon.
func DefaultReminderTemplates(salonID uuid.UUID) []ReminderTemplate {
	return []ReminderTemplate{
		{
			SalonID:  salonID,
			Type:     ReminderBirthday,
			Message:  "Hi [CustomerName], [SalonName] wishes you a very happy birthday! Enjoy 20% off on your next visit this month.",
			IsActive: true,
		},
		{
			SalonID:  salonID,
			Type:     ReminderAppointment,
			Message:  "Hi [CustomerName], this is a reminder of your [ServiceName] appointment at [SalonName] on [Date] at [Time].",
			IsActive: true,
		},
	}
}
