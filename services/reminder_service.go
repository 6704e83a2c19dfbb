// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"

	"salonpos-backend/config"
	"salonpos-backend/models"
	"salonpos-backend/utils"
)

const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

// MessageSender delivers one text message and returns the provider id.
type MessageSender interface {
	Send(ctx context.Context, channel, to, body string) (string, error)
}

type TwilioSender struct {
	client         *twilio.RestClient
	phoneNumber    string
	whatsAppNumber string
}

func NewTwilioSender(cfg config.TwilioConfig) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		phoneNumber:    cfg.PhoneNumber,
		whatsAppNumber: cfg.WhatsAppNumber,
	}
}

func (t *TwilioSender) Send(_ context.Context, channel, to, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetBody(body)
	if channel == ChannelWhatsApp {
		params.SetTo("whatsapp:" + to)
		params.SetFrom("whatsapp:" + t.whatsAppNumber)
	} else {
		params.SetTo(to)
		params.SetFrom(t.phoneNumber)
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

type ReminderService struct {
	db     *gorm.DB
	sender MessageSender
	now    func() time.Time
}

func NewReminderService(db *gorm.DB, sender MessageSender) *ReminderService {
	return &ReminderService{db: db, sender: sender, now: time.Now}
}

// Register adds the daily reminder job to c using a standard 5-field spec.
func (s *ReminderService) Register(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.SendDailyReminders(ctx)
	})
	if err == nil {
		slog.Info("reminder job registered", "schedule", spec)
	}
	return err
}

type ReminderReport struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

func (r *ReminderReport) add(o ReminderReport) {
	r.Sent += o.Sent
	r.Failed += o.Failed
	r.Skipped += o.Skipped
}

func (s *ReminderService) SendDailyReminders(ctx context.Context) ReminderReport {
	slog.Info("starting daily reminder processing")

	var salons []models.SalonProfile
	if err := s.db.WithContext(ctx).Find(&salons).Error; err != nil {
		slog.Error("failed to fetch salons", "error", err)
		return ReminderReport{}
	}

	var total ReminderReport
	for _, salon := range salons {
		total.add(s.ProcessSalonReminders(ctx, salon))
	}
	slog.Info("daily reminder processing completed", "sent", total.Sent, "failed", total.Failed, "skipped", total.Skipped)
	return total
}

// ProcessSalonReminders sends today's birthday greetings and reminders for
// tomorrow's live appointments.
func (s *ReminderService) ProcessSalonReminders(ctx context.Context, salon models.SalonProfile) ReminderReport {
	var report ReminderReport
	if !salon.WhatsAppEnabled && !salon.SMSEnabled {
		return report
	}
	today := s.now()

	if salon.BirthdayReminders {
		customers, err := s.birthdayCustomers(ctx, salon.ID, today)
		if err != nil {
			slog.Error("failed to load birthday customers", "salon", salon.ID, "error", err)
		} else {
			for _, c := range customers {
				report.add(s.deliver(ctx, salon, models.ReminderBirthday, c, nil))
			}
		}
	}

	if salon.AppointmentReminders {
		tomorrow := today.AddDate(0, 0, 1).Format(utils.DateLayout)
		var appointments []models.Appointment
		err := s.db.WithContext(ctx).Preload("Customer").Preload("Service").
			Where("salon_id = ? AND date = ? AND status IN ?", salon.ID, tomorrow,
				[]models.AppointmentStatus{models.StatusScheduled, models.StatusConfirmed}).
			Find(&appointments).Error
		if err != nil {
			slog.Error("failed to load appointments for reminders", "salon", salon.ID, "error", err)
		} else {
			for i := range appointments {
				appt := &appointments[i]
				if appt.Customer == nil {
					continue
				}
				report.add(s.deliver(ctx, salon, models.ReminderAppointment, *appt.Customer, appt))
			}
		}
	}
	return report
}

// birthdayCustomers filters in Go so the query stays portable across
// dialects.
func (s *ReminderService) birthdayCustomers(ctx context.Context, salonID uuid.UUID, day time.Time) ([]models.Customer, error) {
	var candidates []models.Customer
	if err := s.db.WithContext(ctx).
		Where("salon_id = ? AND date_of_birth IS NOT NULL", salonID).
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	out := candidates[:0]
	for _, c := range candidates {
		if c.DateOfBirth.Month() == day.Month() && c.DateOfBirth.Day() == day.Day() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *ReminderService) alreadySent(ctx context.Context, salonID uuid.UUID, kind string, customerID uuid.UUID, appt *models.Appointment) bool {
	q := s.db.WithContext(ctx).Model(&models.ReminderLog{}).
		Where("salon_id = ? AND type = ? AND status = ?", salonID, kind, "sent")
	if appt != nil {
		q = q.Where("appointment_id = ?", appt.ID)
	} else {
		start := utils.BeginningOfDay(s.now())
		q = q.Where("customer_id = ? AND sent_at >= ?", customerID, start)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		slog.Warn("reminder dedupe check failed", "salon", salonID, "error", err)
		return false
	}
	return count > 0
}

func (s *ReminderService) deliver(ctx context.Context, salon models.SalonProfile, kind string, customer models.Customer, appt *models.Appointment) ReminderReport {
	if s.alreadySent(ctx, salon.ID, kind, customer.ID, appt) {
		return ReminderReport{Skipped: 1}
	}

	var template models.ReminderTemplate
	if err := s.db.WithContext(ctx).
		Where("salon_id = ? AND type = ? AND is_active = ?", salon.ID, kind, true).
		First(&template).Error; err != nil {
		slog.Warn("no active reminder template", "salon", salon.ID, "type", kind)
		return ReminderReport{Skipped: 1}
	}

	channel := ChannelSMS
	if salon.WhatsAppEnabled && strings.HasPrefix(customer.Phone, "+") {
		channel = ChannelWhatsApp
	} else if !salon.SMSEnabled {
		return ReminderReport{Skipped: 1}
	}

	message := RenderReminder(template.Message, salon, customer, appt)
	status, errorMsg := "sent", ""
	sid, err := s.sender.Send(ctx, channel, customer.Phone, message)
	if err != nil {
		slog.Error("failed to send reminder", "salon", salon.ID, "customer", customer.ID, "channel", channel, "error", err)
		status, errorMsg = "failed", err.Error()
	} else {
		slog.Info("reminder sent", "salon", salon.ID, "customer", customer.ID, "channel", channel, "sid", sid)
	}

	entry := models.ReminderLog{
		SalonID:      salon.ID,
		CustomerID:   customer.ID,
		TemplateID:   template.ID,
		Type:         kind,
		Message:      message,
		Status:       status,
		ErrorMessage: errorMsg,
		Channel:      channel,
		SentAt:       s.now(),
	}
	if appt != nil {
		entry.AppointmentID = &appt.ID
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		slog.Error("failed to log reminder", "customer", customer.ID, "error", err)
	}

	if err != nil {
		return ReminderReport{Failed: 1}
	}
	return ReminderReport{Sent: 1}
}

// RenderReminder fills the template placeholders.
func RenderReminder(message string, salon models.SalonProfile, customer models.Customer, appt *models.Appointment) string {
	pairs := []string{
		"[CustomerName]", customer.FullName(),
		"[SalonName]", salon.Name,
	}
	if appt != nil {
		serviceName := ""
		if appt.Service != nil {
			serviceName = appt.Service.Name
		}
		timeLabel := appt.StartTime
		if m, err := utils.ParseClock(appt.StartTime); err == nil {
			timeLabel = utils.ClockLabel(m)
		}
		pairs = append(pairs,
			"[ServiceName]", serviceName,
			"[Date]", appt.Date,
			"[Time]", timeLabel,
		)
	}
	return strings.NewReplacer(pairs...).Replace(message)
}

// SendTest delivers a one-off message so owners can check their Twilio setup.
func (s *ReminderService) SendTest(ctx context.Context, channel, to, body string) (string, error) {
	if channel != ChannelSMS && channel != ChannelWhatsApp {
		return "", fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, channel)
	}
	if !utils.ValidatePhone(to) {
		return "", fmt.Errorf("%w: invalid phone number", ErrInvalidInput)
	}
	return s.sender.Send(ctx, channel, to, body)
}
