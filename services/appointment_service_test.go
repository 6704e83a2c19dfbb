package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"salonpos-backend/models"
	"salonpos-backend/testutil"
)

const bookingDate = "2030-05-14"

type recordingScheduler struct {
	mu        sync.Mutex
	scheduled map[uuid.UUID]time.Time
	cancelled []uuid.UUID
}

func newRecordingScheduler() *recordingScheduler {
	return &recordingScheduler{scheduled: map[uuid.UUID]time.Time{}}
}

func (r *recordingScheduler) Schedule(id uuid.UUID, due time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled[id] = due
}

func (r *recordingScheduler) Cancel(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scheduled, id)
	r.cancelled = append(r.cancelled, id)
}

type appointmentFixture struct {
	db       *gorm.DB
	svc      *AppointmentService
	salon    *models.SalonProfile
	customer *models.Customer
	service  *models.Service
}

func newAppointmentFixture(t *testing.T) *appointmentFixture {
	db := testutil.NewDB(t)
	_, salon := testutil.Salon(t, db)
	return &appointmentFixture{
		db:       db,
		svc:      NewAppointmentService(db, NewSettlementService(db, nil)),
		salon:    salon,
		customer: testutil.Customer(t, db, salon.ID, "+919876543210"),
		service:  testutil.Service(t, db, salon.ID, "Haircut", 45, "500"),
	}
}

func (f *appointmentFixture) book(t *testing.T, start string) (*models.Appointment, error) {
	t.Helper()
	return f.svc.Book(context.Background(), f.salon.ID, BookAppointmentInput{
		CustomerID: f.customer.ID,
		ServiceID:  f.service.ID,
		Date:       bookingDate,
		StartTime:  start,
	})
}

func countSales(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Sale{}).Count(&n).Error)
	return n
}

func TestBookDerivesEndTime(t *testing.T) {
	f := newAppointmentFixture(t)

	appt, err := f.book(t, "09:00")

	require.NoError(t, err)
	assert.Equal(t, "09:00", appt.StartTime)
	assert.Equal(t, "09:45", appt.EndTime)
	assert.Equal(t, 45, appt.DurationMinutes)
	assert.Equal(t, models.StatusScheduled, appt.Status)
	assert.False(t, appt.BillingGenerated)
}

func TestBookRejectsOverlap(t *testing.T) {
	f := newAppointmentFixture(t)
	_, err := f.book(t, "10:00")
	require.NoError(t, err)

	_, err = f.book(t, "10:15")
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	_, err = f.book(t, "10:45")
	assert.NoError(t, err, "touching the previous end is allowed")
}

func TestBookIgnoresCancelledAppointments(t *testing.T) {
	f := newAppointmentFixture(t)
	testutil.Appointment(t, f.db, f.salon.ID, f.customer, f.service, bookingDate, "10:00", "10:45", models.StatusCancelled)

	_, err := f.book(t, "10:00")
	assert.NoError(t, err)
}

func TestBookRejectsPastClosing(t *testing.T) {
	f := newAppointmentFixture(t)

	_, err := f.book(t, "19:30")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestBookValidation(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, uuid.Nil, BookAppointmentInput{
		CustomerID: f.customer.ID, ServiceID: f.service.ID, Date: bookingDate, StartTime: "09:00",
	})
	assert.ErrorIs(t, err, ErrNoSalonContext)

	_, err = f.svc.Book(ctx, f.salon.ID, BookAppointmentInput{
		CustomerID: f.customer.ID, ServiceID: f.service.ID, Date: "14/05/2030", StartTime: "09:00",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Book(ctx, f.salon.ID, BookAppointmentInput{
		CustomerID: uuid.New(), ServiceID: f.service.ID, Date: bookingDate, StartTime: "09:00",
	})
	assert.ErrorIs(t, err, ErrNotFound)

	inactive := testutil.Service(t, f.db, f.salon.ID, "Retired perm", 60, "900")
	require.NoError(t, f.db.Model(inactive).Update("status", models.ServiceInactive).Error)
	_, err = f.svc.Book(ctx, f.salon.ID, BookAppointmentInput{
		CustomerID: f.customer.ID, ServiceID: inactive.ID, Date: bookingDate, StartTime: "09:00",
	})
	assert.ErrorIs(t, err, ErrInactiveService)
}

func TestBookIsTenantScoped(t *testing.T) {
	f := newAppointmentFixture(t)
	_, other := testutil.Salon(t, f.db)

	_, err := f.svc.Book(context.Background(), other.ID, BookAppointmentInput{
		CustomerID: f.customer.ID, ServiceID: f.service.ID, Date: bookingDate, StartTime: "09:00",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAvailability(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	testutil.Appointment(t, f.db, f.salon.ID, f.customer, f.service, bookingDate, "10:00", "10:45", models.StatusScheduled)

	slots, err := f.svc.Availability(ctx, f.salon.ID, bookingDate, 30)
	require.NoError(t, err)
	require.Len(t, slots, 22)

	available := map[string]bool{}
	for _, s := range slots {
		available[s.Start] = s.Available
	}
	assert.True(t, available["09:30"])
	assert.False(t, available["10:00"])
	assert.False(t, available["10:30"])
	assert.True(t, available["11:00"])

	_, err = f.svc.Availability(ctx, f.salon.ID, bookingDate, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.Availability(ctx, f.salon.ID, "tomorrow", 30)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompleteGeneratesBillingOnce(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	appt, err := f.book(t, "09:00")
	require.NoError(t, err)

	done, err := f.svc.UpdateStatus(ctx, f.salon.ID, appt.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.True(t, done.BillingGenerated)
	require.NotNil(t, done.SaleID)
	assert.NotNil(t, done.CompletedAt)

	var sale models.Sale
	require.NoError(t, f.db.Preload("Items").First(&sale, "id = ?", *done.SaleID).Error)
	assert.Equal(t, models.PaymentPending, sale.PaymentStatus)
	assert.Equal(t, appt.ID, *sale.AppointmentID)
	assert.True(t, sale.Total.Equal(f.service.Price), sale.Total.String())
	require.Len(t, sale.Items, 1)
	assert.Equal(t, f.service.ID, *sale.Items[0].ServiceID)

	again, err := f.svc.UpdateStatus(ctx, f.salon.ID, appt.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, *done.SaleID, *again.SaleID)
	assert.Equal(t, int64(1), countSales(t, f.db))
}

func TestTransitionsFollowStateMachine(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, "09:00")
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.salon.ID, appt.ID, models.StatusConfirmed)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.salon.ID, appt.ID, models.StatusScheduled)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	cancelled, err := f.svc.UpdateStatus(ctx, f.salon.ID, appt.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.NotNil(t, cancelled.CancelledAt)

	for _, next := range []models.AppointmentStatus{models.StatusInProgress, models.StatusCompleted, models.StatusConfirmed} {
		_, err = f.svc.UpdateStatus(ctx, f.salon.ID, appt.ID, next)
		assert.ErrorIs(t, err, ErrInvalidTransition, string(next))
	}
	assert.Equal(t, int64(0), countSales(t, f.db))

	_, err = f.svc.UpdateStatus(ctx, f.salon.ID, appt.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.StatusScheduled, models.StatusInProgress))
	assert.True(t, CanTransition(models.StatusInProgress, models.StatusNoShow))
	assert.False(t, CanTransition(models.StatusCompleted, models.StatusCancelled))
	assert.False(t, CanTransition(models.StatusNoShow, models.StatusScheduled))
	assert.False(t, CanTransition(models.StatusCancelled, models.StatusConfirmed))
	assert.False(t, CanTransition(models.StatusInProgress, models.StatusScheduled))
}

func TestCheckInSchedulesAutoComplete(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	sched := newRecordingScheduler()
	f.svc.SetScheduler(sched)
	now := time.Date(2030, 5, 14, 9, 2, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	appt, err := f.book(t, "09:00")
	require.NoError(t, err)

	checkedIn, err := f.svc.CheckIn(ctx, f.salon.ID, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, checkedIn.Status)
	require.NotNil(t, checkedIn.AutoCompleteAt)

	due, ok := sched.scheduled[appt.ID]
	require.True(t, ok)
	assert.True(t, due.Equal(now.Add(45*time.Minute)), due.String())

	pending, err := f.svc.PendingAutoCompletions(ctx)
	require.NoError(t, err)
	assert.Contains(t, pending, appt.ID)

	_, err = f.svc.UpdateStatus(ctx, f.salon.ID, appt.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.NotContains(t, sched.scheduled, appt.ID)
	assert.Contains(t, sched.cancelled, appt.ID)

	pending, err = f.svc.PendingAutoCompletions(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAutoCompleteOnlyFromInProgress(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, "09:00")
	require.NoError(t, err)

	changed, err := f.svc.AutoComplete(ctx, appt.ID)
	require.NoError(t, err)
	assert.False(t, changed, "scheduled appointments are not auto-completed")

	_, err = f.svc.CheckIn(ctx, f.salon.ID, appt.ID)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.salon.ID, appt.ID, models.StatusNoShow)
	require.NoError(t, err)

	changed, err = f.svc.AutoComplete(ctx, appt.ID)
	require.NoError(t, err)
	assert.False(t, changed, "manual intervention wins")

	second, err := f.book(t, "11:00")
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, f.salon.ID, second.ID)
	require.NoError(t, err)

	changed, err = f.svc.AutoComplete(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := f.svc.Get(ctx, f.salon.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Nil(t, got.AutoCompleteAt)
	assert.False(t, got.BillingGenerated)
}

func TestRescheduleKeepsBookedDuration(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, "09:00")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(f.service).Update("duration", 90).Error)

	moved, err := f.svc.Reschedule(ctx, f.salon.ID, appt.ID, RescheduleInput{Date: bookingDate, StartTime: "09:30"})
	require.NoError(t, err)
	assert.Equal(t, "09:30", moved.StartTime)
	assert.Equal(t, "10:15", moved.EndTime)

	other, err := f.book(t, "11:00")
	require.NoError(t, err)
	_, err = f.svc.Reschedule(ctx, f.salon.ID, other.ID, RescheduleInput{Date: bookingDate, StartTime: "10:00"})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	_, err = f.svc.CheckIn(ctx, f.salon.ID, other.ID)
	require.NoError(t, err)
	_, err = f.svc.Reschedule(ctx, f.salon.ID, other.ID, RescheduleInput{Date: bookingDate, StartTime: "15:00"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPendingBilling(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()

	served := testutil.Appointment(t, f.db, f.salon.ID, f.customer, f.service, bookingDate, "09:00", "09:45", models.StatusInProgress)
	testutil.Appointment(t, f.db, f.salon.ID, f.customer, f.service, bookingDate, "11:00", "11:45", models.StatusScheduled)

	pending, err := f.svc.PendingBilling(ctx, f.salon.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, served.ID, pending[0].ID)
}
