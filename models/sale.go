package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentUPI
}

type PaymentStatus string

const (
	// PaymentPending marks a held transaction.
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

var ErrSaleItemTarget = errors.New("sale item must reference exactly one of service or product")

type Sale struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID         uuid.UUID  `gorm:"type:uuid;index;not null" json:"salonId"`
	SaleNumber      string     `gorm:"uniqueIndex;not null" json:"saleNumber"`
	CustomerID      *uuid.UUID `gorm:"type:uuid;index" json:"customerId,omitempty"`
	AppointmentID   *uuid.UUID `gorm:"type:uuid;index" json:"appointmentId,omitempty"`
	CreatedByUserID *uuid.UUID `gorm:"type:uuid" json:"createdByUserId,omitempty"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	Subtotal      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Discount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount"`
	Tax           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"tax"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(10);not null" json:"paymentMethod"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null;index" json:"paymentStatus"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`

	Items []SaleItem `gorm:"foreignKey:SaleID" json:"items"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SaleID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"saleId"`
	ServiceID *uuid.UUID      `gorm:"type:uuid;index" json:"serviceId,omitempty"`
	ProductID *uuid.UUID      `gorm:"type:uuid;index" json:"productId,omitempty"`
	Name      string          `gorm:"not null" json:"name"`
	Quantity  int             `gorm:"not null;check:quantity >= 1" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	LineTotal decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"lineTotal"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (i *SaleItem) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

func (i *SaleItem) BeforeSave(tx *gorm.DB) error {
	if (i.ServiceID == nil) == (i.ProductID == nil) {
		return ErrSaleItemTarget
	}
	return nil
}
