package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleAdmin        = "admin"
	RoleReceptionist = "receptionist"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Name         string     `gorm:"not null" json:"name"`
	Phone        string     `json:"phone,omitempty"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	IsActive     bool       `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// SalonProfile is the tenant record; its ID is the salon id every other row
// is scoped by.
type SalonProfile struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"ownerId"`
	Name         string         `gorm:"not null" json:"name"`
	Address      string         `json:"address,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	WorkingHours datatypes.JSON `json:"workingHours,omitempty"`

	BirthdayReminders    bool `gorm:"default:true" json:"birthdayReminders"`
	AppointmentReminders bool `gorm:"default:true" json:"appointmentReminders"`
	WhatsAppEnabled      bool `gorm:"default:false" json:"whatsAppEnabled"`
	SMSEnabled           bool `gorm:"default:false" json:"smsEnabled"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *SalonProfile) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// UserRole assigns a staff login to a salon.
type UserRole struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	SalonID   uuid.UUID `gorm:"type:uuid;index;not null" json:"salonId"`
	Role      string    `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *UserRole) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}
