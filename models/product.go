package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ProductActive   = "active"
	ProductInactive = "inactive"
)

type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID       uuid.UUID       `gorm:"type:uuid;index;not null" json:"salonId"`
	Name          string          `gorm:"not null" json:"name"`
	Category      string          `json:"category,omitempty"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"costPrice"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"sellingPrice"`
	StockQuantity int             `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stockQuantity"`
	MinStockLevel int             `gorm:"not null;default:0" json:"minStockLevel"`
	Status        string          `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

func (p *Product) LowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}
