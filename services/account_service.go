package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"salonpos-backend/models"
	"salonpos-backend/utils"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

var defaultWorkingHours = datatypes.JSON(`{
	"monday":    {"open": "09:00", "close": "20:00", "closed": false},
	"tuesday":   {"open": "09:00", "close": "20:00", "closed": false},
	"wednesday": {"open": "09:00", "close": "20:00", "closed": false},
	"thursday":  {"open": "09:00", "close": "20:00", "closed": false},
	"friday":    {"open": "09:00", "close": "20:00", "closed": false},
	"saturday":  {"open": "09:00", "close": "20:00", "closed": false},
	"sunday":    {"open": "09:00", "close": "20:00", "closed": true}
}`)

type RegisterInput struct {
	Email        string         `json:"email" validate:"required,email"`
	Phone        string         `json:"phone"`
	Name         string         `json:"name" validate:"required,max=120"`
	Password     string         `json:"password" validate:"required,min=8"`
	SalonName    string         `json:"salonName" validate:"required,max=120"`
	SalonAddress string         `json:"salonAddress"`
	WorkingHours datatypes.JSON `json:"workingHours"`
}

type MemberInput struct {
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Name     string `json:"name" validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin receptionist"`
}

type Member struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Phone  string    `json:"phone,omitempty"`
	Role   string    `json:"role"`
}

type AccountService struct {
	db        *gorm.DB
	trialDays int
	now       func() time.Time
}

func NewAccountService(db *gorm.DB, trialDays int) *AccountService {
	return &AccountService{db: db, trialDays: trialDays, now: time.Now}
}

func (s *AccountService) newUser(tx *gorm.DB, email, phone, name, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if phone != "" && !utils.ValidatePhone(phone) {
		return nil, fmt.Errorf("%w: invalid phone number format", ErrInvalidInput)
	}

	var count int64
	q := tx.Model(&models.User{}).Where("email = ?", email)
	if phone != "" {
		q = q.Or("phone = ?", phone)
	}
	if err := q.Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: email or phone already registered", ErrConflict)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        email,
		Phone:        phone,
		Name:         name,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := tx.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Register opens a salon: the owner login, the salon profile, a trial
// subscription and the default reminder templates.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*models.User, *models.SalonProfile, error) {
	if err := validateStruct(input); err != nil {
		return nil, nil, err
	}

	var (
		user    *models.User
		profile *models.SalonProfile
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = s.newUser(tx, input.Email, input.Phone, input.Name, input.Password)
		if err != nil {
			return err
		}

		hours := input.WorkingHours
		if len(hours) == 0 {
			hours = defaultWorkingHours
		}
		profile = &models.SalonProfile{
			OwnerID:      user.ID,
			Name:         input.SalonName,
			Address:      input.SalonAddress,
			Phone:        input.Phone,
			WorkingHours: hours,
		}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}

		sub := models.Subscription{
			SalonID:          profile.ID,
			Plan:             "trial",
			Status:           models.SubscriptionTrialing,
			CurrentPeriodEnd: s.now().AddDate(0, 0, s.trialDays),
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}

		templates := models.DefaultReminderTemplates(profile.ID)
		return tx.Create(&templates).Error
	})
	if err != nil {
		return nil, nil, TranslateDBError(err)
	}

	slog.Info("salon registered", "salon", profile.ID, "owner", user.ID)
	return user, profile, nil
}

// Authenticate checks a login by email or phone and stamps the last login.
func (s *AccountService) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? OR phone = ?", strings.ToLower(identifier), identifier).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive || !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		slog.Warn("failed to record last login", "user", user.ID, "error", err)
	}
	user.LastLogin = &now
	return &user, nil
}

// AddMember creates a login for a staff member of the salon.
func (s *AccountService) AddMember(ctx context.Context, salonID uuid.UUID, input MemberInput) (*Member, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = s.newUser(tx, input.Email, input.Phone, input.Name, input.Password)
		if err != nil {
			return err
		}
		return tx.Create(&models.UserRole{UserID: user.ID, SalonID: salonID, Role: input.Role}).Error
	})
	if err != nil {
		return nil, TranslateDBError(err)
	}
	return &Member{UserID: user.ID, Email: user.Email, Name: user.Name, Phone: user.Phone, Role: input.Role}, nil
}

func (s *AccountService) Members(ctx context.Context, salonID uuid.UUID) ([]Member, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	var members []Member
	err := s.db.WithContext(ctx).Table("user_roles").
		Select("users.id AS user_id, users.email, users.name, users.phone, user_roles.role").
		Joins("JOIN users ON users.id = user_roles.user_id AND users.deleted_at IS NULL").
		Where("user_roles.salon_id = ?", salonID).
		Order("users.name").
		Scan(&members).Error
	return members, err
}

// RemoveMember revokes a staff login's access to the salon.
func (s *AccountService) RemoveMember(ctx context.Context, salonID, userID uuid.UUID) error {
	if err := requireSalon(salonID); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("salon_id = ? AND user_id = ?", salonID, userID).Delete(&models.UserRole{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: member", ErrNotFound)
	}
	return nil
}

func (s *AccountService) Subscription(ctx context.Context, salonID uuid.UUID) (*models.Subscription, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	var sub models.Subscription
	if err := s.db.WithContext(ctx).Where("salon_id = ?", salonID).First(&sub).Error; err != nil {
		return nil, wrapLookup(err, "subscription")
	}
	return &sub, nil
}
