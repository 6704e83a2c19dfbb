package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salonpos-backend/models"
	"salonpos-backend/utils"
)

// AutoCompleteScheduler receives the deferred in_progress -> completed
// transitions created by check-in.
type AutoCompleteScheduler interface {
	Schedule(id uuid.UUID, due time.Time)
	Cancel(id uuid.UUID)
}

var allowedTransitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusScheduled: {
		models.StatusConfirmed, models.StatusInProgress, models.StatusCompleted,
		models.StatusCancelled, models.StatusNoShow,
	},
	models.StatusConfirmed: {
		models.StatusInProgress, models.StatusCompleted, models.StatusCancelled, models.StatusNoShow,
	},
	models.StatusInProgress: {
		models.StatusCompleted, models.StatusCancelled, models.StatusNoShow,
	},
}

// CanTransition reports whether from may move to to. Terminal states never
// move.
func CanTransition(from, to models.AppointmentStatus) bool {
	if from.Terminal() {
		return false
	}
	return slices.Contains(allowedTransitions[from], to)
}

type BookAppointmentInput struct {
	CustomerID uuid.UUID  `json:"customerId" validate:"uuid_required"`
	ServiceID  uuid.UUID  `json:"serviceId" validate:"uuid_required"`
	StaffID    *uuid.UUID `json:"staffId"`
	Date       string     `json:"date" validate:"required,isodate"`
	StartTime  string     `json:"startTime" validate:"required,clock"`
	Notes      string     `json:"notes" validate:"max=2000"`
}

type RescheduleInput struct {
	Date      string `json:"date" validate:"required,isodate"`
	StartTime string `json:"startTime" validate:"required,clock"`
}

type AppointmentFilter struct {
	Date       string
	Status     models.AppointmentStatus
	CustomerID *uuid.UUID
	StaffID    *uuid.UUID
}

type AppointmentService struct {
	db         *gorm.DB
	settlement *SettlementService
	scheduler  AutoCompleteScheduler
	now        func() time.Time
}

func NewAppointmentService(db *gorm.DB, settlement *SettlementService) *AppointmentService {
	return &AppointmentService{
		db:         db,
		settlement: settlement,
		now:        time.Now,
	}
}

func (s *AppointmentService) SetScheduler(scheduler AutoCompleteScheduler) {
	s.scheduler = scheduler
}

func (s *AppointmentService) Book(ctx context.Context, salonID uuid.UUID, input BookAppointmentInput) (*models.Appointment, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	start, _ := utils.ParseClock(input.StartTime)

	var appointment models.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.Where("salon_id = ? AND id = ?", salonID, input.CustomerID).First(&customer).Error; err != nil {
			return wrapLookup(err, "customer")
		}

		var service models.Service
		if err := tx.Where("salon_id = ? AND id = ?", salonID, input.ServiceID).First(&service).Error; err != nil {
			return wrapLookup(err, "service")
		}
		if !service.Bookable() {
			return ErrInactiveService
		}

		if input.StaffID != nil {
			var staff models.Staff
			if err := tx.Where("salon_id = ? AND id = ?", salonID, *input.StaffID).First(&staff).Error; err != nil {
				return wrapLookup(err, "staff")
			}
			if staff.Status == models.StaffInactive {
				return fmt.Errorf("%w: staff member is inactive", ErrInvalidInput)
			}
		}

		slot := Interval{Start: start, End: start + service.Duration}
		if err := s.ensureSlotFree(tx, salonID, input.Date, slot, uuid.Nil); err != nil {
			return err
		}

		appointment = models.Appointment{
			SalonID:         salonID,
			CustomerID:      customer.ID,
			ServiceID:       service.ID,
			StaffID:         input.StaffID,
			Date:            input.Date,
			StartTime:       utils.FormatClock(slot.Start),
			EndTime:         utils.FormatClock(slot.End),
			DurationMinutes: service.Duration,
			Status:          models.StatusScheduled,
			Notes:           input.Notes,
		}
		return tx.Create(&appointment).Error
	})
	if err != nil {
		return nil, TranslateDBError(err)
	}

	slog.Info("appointment booked", "salon", salonID, "appointment", appointment.ID,
		"date", appointment.Date, "start", appointment.StartTime, "end", appointment.EndTime)
	return &appointment, nil
}

// ensureSlotFree re-validates a booking interval against business hours and
// the salon's other live appointments on that date. On Postgres the salon row
// is locked first so concurrent bookings for one salon serialize.
func (s *AppointmentService) ensureSlotFree(tx *gorm.DB, salonID uuid.UUID, date string, slot Interval, exclude uuid.UUID) error {
	if tx.Dialector.Name() == "postgres" {
		var profile models.SalonProfile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", salonID).Limit(1).Find(&profile).Error; err != nil {
			return err
		}
	}

	var existing []models.Appointment
	q := tx.Where("salon_id = ? AND date = ? AND status <> ?", salonID, date, models.StatusCancelled)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Find(&existing).Error; err != nil {
		return err
	}

	if !slotFree(slot, OccupiedIntervals(existing)) {
		return fmt.Errorf("%w: %s %s-%s", ErrSlotUnavailable, date,
			utils.FormatClock(slot.Start), utils.FormatClock(slot.End))
	}
	return nil
}

func (s *AppointmentService) Get(ctx context.Context, salonID, id uuid.UUID) (*models.Appointment, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	var appointment models.Appointment
	err := s.db.WithContext(ctx).
		Preload("Customer").Preload("Service").Preload("Staff").
		Where("salon_id = ? AND id = ?", salonID, id).
		First(&appointment).Error
	if err != nil {
		return nil, wrapLookup(err, "appointment")
	}
	return &appointment, nil
}

func (s *AppointmentService) List(ctx context.Context, salonID uuid.UUID, filter AppointmentFilter) ([]models.Appointment, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).
		Preload("Customer").Preload("Service").Preload("Staff").
		Where("salon_id = ?", salonID)
	if filter.Date != "" {
		q = q.Where("date = ?", filter.Date)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.StaffID != nil {
		q = q.Where("staff_id = ?", *filter.StaffID)
	}

	var appointments []models.Appointment
	if err := q.Order("date ASC, start_time ASC").Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// PendingBilling lists appointments that were served but never billed.
func (s *AppointmentService) PendingBilling(ctx context.Context, salonID uuid.UUID) ([]models.Appointment, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	var appointments []models.Appointment
	err := s.db.WithContext(ctx).
		Preload("Customer").Preload("Service").
		Where("salon_id = ? AND billing_generated = ? AND status IN ?", salonID, false,
			[]models.AppointmentStatus{models.StatusInProgress, models.StatusCompleted}).
		Order("date DESC, start_time DESC").
		Find(&appointments).Error
	return appointments, err
}

func (s *AppointmentService) Availability(ctx context.Context, salonID uuid.UUID, date string, durationMinutes int) ([]Slot, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	if _, err := utils.ParseDate(date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if durationMinutes < 1 || durationMinutes > 1440 {
		return nil, fmt.Errorf("%w: duration must be between 1 and 1440 minutes", ErrInvalidInput)
	}

	var existing []models.Appointment
	if err := s.db.WithContext(ctx).
		Where("salon_id = ? AND date = ?", salonID, date).
		Find(&existing).Error; err != nil {
		return nil, err
	}
	return slices.Collect(Slots(durationMinutes, OccupiedIntervals(existing))), nil
}

func (s *AppointmentService) CheckIn(ctx context.Context, salonID, id uuid.UUID) (*models.Appointment, error) {
	return s.UpdateStatus(ctx, salonID, id, models.StatusInProgress)
}

// UpdateStatus applies one state-machine transition. Completing an appointment
// that has no billing yet creates its pending sale in the same transaction;
// repeating a completion is a no-op.
func (s *AppointmentService) UpdateStatus(ctx context.Context, salonID, id uuid.UUID, target models.AppointmentStatus) (*models.Appointment, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, target)
	}

	var appointment models.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("salon_id = ? AND id = ?", salonID, id).First(&appointment).Error; err != nil {
			return wrapLookup(err, "appointment")
		}

		current := appointment.Status
		if current == target {
			if target == models.StatusCompleted && !appointment.BillingGenerated {
				return s.generateBilling(tx, &appointment)
			}
			return nil
		}
		if !CanTransition(current, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
		}

		now := s.now()
		updates := map[string]interface{}{"status": target}
		switch target {
		case models.StatusInProgress:
			due := now.Add(time.Duration(appointment.DurationMinutes) * time.Minute)
			updates["checked_in_at"] = now
			updates["auto_complete_at"] = due
		case models.StatusCompleted:
			updates["completed_at"] = now
			updates["auto_complete_at"] = nil
		case models.StatusCancelled:
			updates["cancelled_at"] = now
			updates["auto_complete_at"] = nil
		case models.StatusNoShow:
			updates["auto_complete_at"] = nil
		}

		res := tx.Model(&models.Appointment{}).
			Where("id = ? AND status = ?", appointment.ID, current).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: appointment changed concurrently", ErrInvalidTransition)
		}
		if err := tx.First(&appointment, "id = ?", appointment.ID).Error; err != nil {
			return err
		}

		if target == models.StatusCompleted && !appointment.BillingGenerated {
			return s.generateBilling(tx, &appointment)
		}
		return nil
	})
	if err != nil {
		return nil, TranslateDBError(err)
	}

	s.afterTransition(&appointment)
	return &appointment, nil
}

func (s *AppointmentService) generateBilling(tx *gorm.DB, appointment *models.Appointment) error {
	if s.settlement == nil {
		return errors.New("settlement service not configured")
	}
	sale, err := s.settlement.generateAppointmentBilling(tx, appointment)
	if err != nil {
		return err
	}
	if sale != nil {
		appointment.BillingGenerated = true
		appointment.SaleID = &sale.ID
	}
	return nil
}

func (s *AppointmentService) afterTransition(appointment *models.Appointment) {
	if s.scheduler == nil {
		return
	}
	switch appointment.Status {
	case models.StatusInProgress:
		if appointment.AutoCompleteAt != nil {
			s.scheduler.Schedule(appointment.ID, *appointment.AutoCompleteAt)
		}
	default:
		s.scheduler.Cancel(appointment.ID)
	}
}

// Reschedule moves a not-yet-started appointment. The end time is derived from
// the duration captured at booking, not from the service's current duration.
func (s *AppointmentService) Reschedule(ctx context.Context, salonID, id uuid.UUID, input RescheduleInput) (*models.Appointment, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	start, _ := utils.ParseClock(input.StartTime)

	var appointment models.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("salon_id = ? AND id = ?", salonID, id).First(&appointment).Error; err != nil {
			return wrapLookup(err, "appointment")
		}
		if appointment.Status != models.StatusScheduled && appointment.Status != models.StatusConfirmed {
			return fmt.Errorf("%w: cannot reschedule a %s appointment", ErrInvalidTransition, appointment.Status)
		}

		slot := Interval{Start: start, End: start + appointment.DurationMinutes}
		if err := s.ensureSlotFree(tx, salonID, input.Date, slot, appointment.ID); err != nil {
			return err
		}

		res := tx.Model(&models.Appointment{}).
			Where("id = ? AND status = ?", appointment.ID, appointment.Status).
			Updates(map[string]interface{}{
				"date":       input.Date,
				"start_time": utils.FormatClock(slot.Start),
				"end_time":   utils.FormatClock(slot.End),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: appointment changed concurrently", ErrInvalidTransition)
		}
		return tx.First(&appointment, "id = ?", appointment.ID).Error
	})
	if err != nil {
		return nil, TranslateDBError(err)
	}
	return &appointment, nil
}

// AutoComplete finishes an appointment only if it is still in progress. It
// reports whether the row changed.
func (s *AppointmentService) AutoComplete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, models.StatusInProgress).
		Updates(map[string]interface{}{
			"status":           models.StatusCompleted,
			"completed_at":     s.now(),
			"auto_complete_at": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// OverdueInProgress returns appointments whose auto-completion time has passed
// without the transition having run.
func (s *AppointmentService) OverdueInProgress(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("status = ? AND auto_complete_at IS NOT NULL AND auto_complete_at <= ?", models.StatusInProgress, now).
		Pluck("id", &ids).Error
	return ids, err
}

// PendingAutoCompletions returns future due times, used to re-arm timers
// after a restart.
func (s *AppointmentService) PendingAutoCompletions(ctx context.Context) (map[uuid.UUID]time.Time, error) {
	var rows []models.Appointment
	err := s.db.WithContext(ctx).
		Select("id", "auto_complete_at").
		Where("status = ? AND auto_complete_at IS NOT NULL", models.StatusInProgress).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]time.Time, len(rows))
	for _, r := range rows {
		out[r.ID] = *r.AutoCompleteAt
	}
	return out, nil
}

func wrapLookup(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
