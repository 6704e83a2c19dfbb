package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSaleItemReferencesOneTarget(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name    string
		item    SaleItem
		wantErr bool
	}{
		{"service", SaleItem{ServiceID: &id}, false},
		{"product", SaleItem{ProductID: &id}, false},
		{"neither", SaleItem{}, true},
		{"both", SaleItem{ServiceID: &id, ProductID: &id}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.BeforeSave(nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSaleItemTarget)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAppointmentStatus(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusNoShow.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusConfirmed.Valid())
	assert.False(t, AppointmentStatus("done").Valid())
}

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, PaymentUPI.Valid())
	assert.False(t, PaymentMethod("cheque").Valid())
}

func TestSubscriptionActiveAt(t *testing.T) {
	now := time.Date(2030, 3, 1, 12, 0, 0, 0, time.UTC)
	sub := Subscription{Status: SubscriptionTrialing, CurrentPeriodEnd: now.Add(time.Hour)}
	assert.True(t, sub.ActiveAt(now))

	sub.CurrentPeriodEnd = now
	assert.False(t, sub.ActiveAt(now), "period end is exclusive")

	sub = Subscription{Status: SubscriptionPastDue, CurrentPeriodEnd: now.AddDate(0, 1, 0)}
	assert.False(t, sub.ActiveAt(now))
}

func TestCustomerFullName(t *testing.T) {
	assert.Equal(t, "Asha Rao", (&Customer{FirstName: "Asha", LastName: "Rao"}).FullName())
	assert.Equal(t, "Asha", (&Customer{FirstName: "Asha"}).FullName())
}

func TestProductLowStock(t *testing.T) {
	assert.True(t, (&Product{StockQuantity: 2, MinStockLevel: 2}).LowStock())
	assert.False(t, (&Product{StockQuantity: 3, MinStockLevel: 2}).LowStock())
}

func TestDefaultReminderTemplates(t *testing.T) {
	salonID := uuid.New()
	templates := DefaultReminderTemplates(salonID)
	assert.Len(t, templates, 2)
	for _, tmpl := range templates {
		assert.Equal(t, salonID, tmpl.SalonID)
		assert.True(t, tmpl.IsActive)
		assert.Contains(t, tmpl.Message, "[CustomerName]")
	}
}
