package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"salonpos-backend/models"
	"salonpos-backend/testutil"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	BcryptCost = bcrypt.MinCost
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("other", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	id := uuid.New()
	token, err := GenerateToken(id, testSecret, time.Hour)
	require.NoError(t, err)

	got, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseToken(token, "another-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GenerateToken(id, testSecret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = GenerateToken(id, "", time.Hour)
	assert.Error(t, err)
}

type authFixture struct {
	router *gin.Engine
	owner  *models.User
	staff  *models.User
	salon  *models.SalonProfile
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := testutil.NewDB(t)
	owner, salon := testutil.Salon(t, db)

	staff := &models.User{Email: "desk@example.com", PasswordHash: "x", Name: "Desk", IsActive: true}
	require.NoError(t, db.Create(staff).Error)
	require.NoError(t, db.Create(&models.UserRole{UserID: staff.ID, SalonID: salon.ID, Role: models.RoleReceptionist}).Error)

	r := gin.New()
	r.Use(AuthMiddleware(db, testSecret), RequireActiveSubscription(db))
	r.GET("/whoami", func(c *gin.Context) {
		salonID, _ := SalonIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"salonId": salonID, "role": c.GetString(ContextRole)})
	})
	r.GET("/admin", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return &authFixture{router: r, owner: owner, staff: staff, salon: salon}
}

func tokenFor(t *testing.T, id uuid.UUID) string {
	t.Helper()
	token, err := GenerateToken(id, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func serve(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	f := newAuthFixture(t)

	w := serve(f.router, "/whoami", tokenFor(t, f.owner.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), f.salon.ID.String())
	assert.Contains(t, w.Body.String(), `"role":"admin"`)

	w = serve(f.router, "/whoami", tokenFor(t, f.staff.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"receptionist"`)

	assert.Equal(t, http.StatusUnauthorized, serve(f.router, "/whoami", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(f.router, "/whoami", "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(f.router, "/whoami", tokenFor(t, uuid.New())).Code)
}

func TestRequireRole(t *testing.T) {
	f := newAuthFixture(t)

	assert.Equal(t, http.StatusNoContent, serve(f.router, "/admin", tokenFor(t, f.owner.ID)).Code)
	assert.Equal(t, http.StatusForbidden, serve(f.router, "/admin", tokenFor(t, f.staff.ID)).Code)
}

func TestRequireActiveSubscription(t *testing.T) {
	db := testutil.NewDB(t)
	owner, salon := testutil.Salon(t, db)
	require.NoError(t, db.Model(&models.Subscription{}).
		Where("salon_id = ?", salon.ID).
		Update("current_period_end", time.Now().Add(-time.Hour)).Error)

	r := gin.New()
	r.Use(AuthMiddleware(db, testSecret), RequireActiveSubscription(db))
	r.GET("/whoami", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusPaymentRequired, serve(r, "/whoami", tokenFor(t, owner.ID)).Code)
}
