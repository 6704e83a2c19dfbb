// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"salonpos-backend/models"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory sqlite database with the full schema. A
// single connection keeps the memory database alive for the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

// Salon creates an owner, their salon profile and an active subscription.
func Salon(t testing.TB, db *gorm.DB) (*models.User, *models.SalonProfile) {
	t.Helper()

	owner := &models.User{
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Name:         "Owner",
		IsActive:     true,
	}
	require.NoError(t, db.Create(owner).Error)

	salon := &models.SalonProfile{
		OwnerID:              owner.ID,
		Name:                 "Glow Studio",
		BirthdayReminders:    true,
		AppointmentReminders: true,
		SMSEnabled:           true,
	}
	require.NoError(t, db.Create(salon).Error)

	sub := &models.Subscription{
		SalonID:          salon.ID,
		Plan:             "pro",
		Status:           models.SubscriptionActive,
		CurrentPeriodEnd: time.Now().AddDate(0, 1, 0),
	}
	require.NoError(t, db.Create(sub).Error)
	return owner, salon
}

func Customer(t testing.TB, db *gorm.DB, salonID uuid.UUID, phone string) *models.Customer {
	t.Helper()
	c := &models.Customer{
		SalonID:    salonID,
		FirstName:  "Asha",
		LastName:   "Rao",
		Phone:      phone,
		TotalSpent: decimal.Zero,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func Service(t testing.TB, db *gorm.DB, salonID uuid.UUID, name string, minutes int, price string) *models.Service {
	t.Helper()
	s := &models.Service{
		SalonID:  salonID,
		Name:     name,
		Duration: minutes,
		Price:    decimal.RequireFromString(price),
		Status:   models.ServiceActive,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

func Product(t testing.TB, db *gorm.DB, salonID uuid.UUID, name string, stock int, price string) *models.Product {
	t.Helper()
	p := &models.Product{
		SalonID:       salonID,
		Name:          name,
		SellingPrice:  decimal.RequireFromString(price),
		StockQuantity: stock,
		MinStockLevel: 2,
		Status:        models.ProductActive,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Appointment inserts a row directly, bypassing booking rules.
func Appointment(t testing.TB, db *gorm.DB, salonID uuid.UUID, customer *models.Customer, service *models.Service, date, start, end string, status models.AppointmentStatus) *models.Appointment {
	t.Helper()
	a := &models.Appointment{
		SalonID:         salonID,
		CustomerID:      customer.ID,
		ServiceID:       service.ID,
		Date:            date,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: service.Duration,
		Status:          status,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}
