package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonpos-backend/models"
)

func TestGrowthPercentage(t *testing.T) {
	d := decimal.RequireFromString
	tests := []struct {
		name              string
		current, previous string
		want              float64
	}{
		{"flat", "100", "100", 0},
		{"growth", "150", "100", 50},
		{"decline", "75", "100", -25},
		{"from zero", "10", "0", 100},
		{"both zero", "0", "0", 0},
		{"rounded", "1", "3", -66.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, GrowthPercentage(d(tt.current), d(tt.previous)), 0.001)
		})
	}
}

func TestQuarterStart(t *testing.T) {
	for month, want := range map[time.Month]time.Month{
		time.January: time.January, time.March: time.January,
		time.April: time.April, time.June: time.April,
		time.August: time.July, time.December: time.October,
	} {
		got := quarterStart(time.Date(2030, month, 17, 15, 0, 0, 0, time.UTC))
		assert.Equal(t, time.Date(2030, want, 1, 0, 0, 0, 0, time.UTC), got, month.String())
	}
}

func TestUpcomingBirthdays(t *testing.T) {
	today := time.Date(2030, 12, 28, 18, 0, 0, 0, time.UTC)
	dob := func(m time.Month, d int) *time.Time {
		t := time.Date(1990, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	customers := []models.Customer{
		{ID: uuid.New(), FirstName: "Later", DateOfBirth: dob(time.January, 2)},
		{ID: uuid.New(), FirstName: "Today", DateOfBirth: dob(time.December, 28)},
		{ID: uuid.New(), FirstName: "Passed", DateOfBirth: dob(time.December, 20)},
		{ID: uuid.New(), FirstName: "Unknown"},
	}

	got := upcomingBirthdays(customers, today, 7)

	require.Len(t, got, 2)
	assert.Equal(t, "Today", got[0].Name)
	assert.Equal(t, 0, got[0].InDays)
	assert.Equal(t, "Later", got[1].Name)
	assert.Equal(t, "2031-01-02", got[1].Date)
	assert.Equal(t, 5, got[1].InDays)
}

func TestRevenueCountsCompletedSalesOnly(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.salon.ID, f.owner.ID, f.scenarioCart("0"))
	require.NoError(t, err)
	_, err = f.svc.Hold(ctx, f.salon.ID, f.owner.ID, f.scenarioCart("0"))
	require.NoError(t, err)

	reports := NewReportService(f.db)
	now := time.Now()
	revenue, err := reports.Revenue(ctx, f.salon.ID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assertMoney(t, "900", revenue)

	revenue, err = reports.Revenue(ctx, uuid.New(), now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, revenue.IsZero())
}

func TestDashboard(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	_, err := f.svc.Hold(ctx, f.salon.ID, f.owner.ID, f.scenarioCart("0"))
	require.NoError(t, err)

	overview, err := NewReportService(f.db).Dashboard(ctx, f.salon.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, overview.TotalCustomers)
	assert.Equal(t, 1, overview.HeldSales)
	assert.True(t, overview.TodayRevenue.IsZero())

	_, err = NewReportService(f.db).Dashboard(ctx, uuid.Nil)
	assert.ErrorIs(t, err, ErrNoSalonContext)
}
