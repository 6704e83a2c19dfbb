package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonpos-backend/models"
	"salonpos-backend/services"
)

const testDate = "2030-05-14"

func (f *apiFixture) book(t *testing.T, start string) models.Appointment {
	t.Helper()
	w := f.do(t, http.MethodPost, "/appointments", services.BookAppointmentInput{
		CustomerID: f.customer.ID,
		ServiceID:  f.service.ID,
		Date:       testDate,
		StartTime:  start,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Appointment](t, w)
}

func TestCreateAppointment(t *testing.T) {
	f := newAPIFixture(t)

	appt := f.book(t, "10:00")
	assert.Equal(t, "10:45", appt.EndTime)
	assert.Equal(t, models.StatusScheduled, appt.Status)

	w := f.do(t, http.MethodPost, "/appointments", services.BookAppointmentInput{
		CustomerID: f.customer.ID,
		ServiceID:  f.service.ID,
		Date:       testDate,
		StartTime:  "10:30",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/appointments", services.BookAppointmentInput{
		CustomerID: f.customer.ID,
		ServiceID:  f.service.ID,
		Date:       "14/05/2030",
		StartTime:  "10:30",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/appointments", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	list := decode[[]models.Appointment](t, f.do(t, http.MethodGet, "/appointments?date="+testDate, nil))
	require.Len(t, list, 1)
	assert.Equal(t, appt.ID, list[0].ID)
}

func TestGetAvailability(t *testing.T) {
	f := newAPIFixture(t)
	f.book(t, "10:00")

	w := f.do(t, http.MethodGet, "/appointments/availability?date="+testDate+"&duration=30", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Date     string          `json:"date"`
		Duration int             `json:"duration"`
		Slots    []services.Slot `json:"slots"`
	}](t, w)
	assert.Equal(t, testDate, body.Date)
	assert.Equal(t, 30, body.Duration)
	require.Len(t, body.Slots, 22)

	available := map[string]bool{}
	for _, s := range body.Slots {
		available[s.Start] = s.Available
	}
	assert.True(t, available["09:30"])
	assert.False(t, available["10:00"])
	assert.False(t, available["10:30"])
	assert.True(t, available["11:00"])

	w = f.do(t, http.MethodGet, "/appointments/availability?date="+testDate+"&duration=half", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAppointmentLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	appt := f.book(t, "11:00")
	base := "/appointments/" + appt.ID.String()

	w := f.do(t, http.MethodPost, base+"/check-in", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusInProgress, decode[models.Appointment](t, w).Status)

	pending := decode[[]models.Appointment](t, f.do(t, http.MethodGet, "/appointments/pending-billing", nil))
	require.Len(t, pending, 1)

	w = f.do(t, http.MethodPatch, base+"/status", UpdateStatusInput{Status: models.StatusCompleted})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[models.Appointment](t, w)
	assert.True(t, done.BillingGenerated)
	require.NotNil(t, done.SaleID)

	w = f.do(t, http.MethodPatch, base+"/status", UpdateStatusInput{Status: models.StatusScheduled})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPatch, base+"/status", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/sales/"+done.SaleID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PaymentPending, decode[models.Sale](t, w).PaymentStatus)
}

func TestRescheduleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	first := f.book(t, "10:00")
	f.book(t, "12:00")

	w := f.do(t, http.MethodPut, "/appointments/"+first.ID.String()+"/reschedule", services.RescheduleInput{
		Date: testDate, StartTime: "11:30",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPut, "/appointments/"+first.ID.String()+"/reschedule", services.RescheduleInput{
		Date: testDate, StartTime: "15:00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved := decode[models.Appointment](t, w)
	assert.Equal(t, "15:00", moved.StartTime)
	assert.Equal(t, "15:45", moved.EndTime)
}
