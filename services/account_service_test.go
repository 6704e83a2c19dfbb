package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"salonpos-backend/models"
	"salonpos-backend/testutil"
	"salonpos-backend/utils"
)

func init() {
	utils.BcryptCost = bcrypt.MinCost
}

func registerInput() RegisterInput {
	return RegisterInput{
		Email:     "Owner@GlowStudio.in",
		Phone:     "+919876543210",
		Name:      "Kavya",
		Password:  "s3cret-pass",
		SalonName: "Glow Studio",
	}
}

func TestRegisterOpensSalon(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAccountService(db, 14)
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	user, profile, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	assert.Equal(t, "owner@glowstudio.in", user.Email)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.Equal(t, user.ID, profile.OwnerID)
	assert.JSONEq(t, string(defaultWorkingHours), string(profile.WorkingHours))

	sub, err := svc.Subscription(context.Background(), profile.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionTrialing, sub.Status)
	assert.True(t, sub.CurrentPeriodEnd.Equal(now.AddDate(0, 0, 14)))

	var templates []models.ReminderTemplate
	require.NoError(t, db.Where("salon_id = ?", profile.ID).Find(&templates).Error)
	assert.Len(t, templates, 2)

	salonID, role, err := utils.ResolveSalon(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, salonID)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestRegisterRejects(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAccountService(db, 14)
	_, _, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	dup := registerInput()
	dup.Phone = ""
	_, _, err = svc.Register(context.Background(), dup)
	assert.ErrorIs(t, err, ErrConflict)

	bad := registerInput()
	bad.Email = "other@glowstudio.in"
	bad.Phone = "call me"
	_, _, err = svc.Register(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidInput)

	short := registerInput()
	short.Email = "third@glowstudio.in"
	short.Phone = ""
	short.Password = "123"
	_, _, err = svc.Register(context.Background(), short)
	assert.ErrorIs(t, err, ErrInvalidInput)

	var count int64
	require.NoError(t, db.Model(&models.SalonProfile{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAuthenticate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAccountService(db, 14)
	ctx := context.Background()
	_, _, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, " OWNER@glowstudio.in ", "s3cret-pass")
	require.NoError(t, err)
	assert.NotNil(t, user.LastLogin)

	_, err = svc.Authenticate(ctx, "+919876543210", "s3cret-pass")
	assert.NoError(t, err, "phone works as a login")

	_, err = svc.Authenticate(ctx, "owner@glowstudio.in", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@glowstudio.in", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMembers(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAccountService(db, 14)
	ctx := context.Background()
	_, salon := testutil.Salon(t, db)

	member, err := svc.AddMember(ctx, salon.ID, MemberInput{
		Email:    "front@glowstudio.in",
		Name:     "Ravi",
		Password: "desk-pass-1",
		Role:     models.RoleReceptionist,
	})
	require.NoError(t, err)

	salonID, role, err := utils.ResolveSalon(db, member.UserID)
	require.NoError(t, err)
	assert.Equal(t, salon.ID, salonID)
	assert.Equal(t, models.RoleReceptionist, role)

	members, err := svc.Members(ctx, salon.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Ravi", members[0].Name)
	assert.Equal(t, member.UserID, members[0].UserID)

	_, err = svc.AddMember(ctx, salon.ID, MemberInput{
		Email: "x@glowstudio.in", Name: "X", Password: "long-enough", Role: "owner",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	other := uuid.New()
	assert.ErrorIs(t, svc.RemoveMember(ctx, other, member.UserID), ErrNotFound)
	require.NoError(t, svc.RemoveMember(ctx, salon.ID, member.UserID))
	assert.ErrorIs(t, svc.RemoveMember(ctx, salon.ID, member.UserID), ErrNotFound)

	members, err = svc.Members(ctx, salon.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
}
