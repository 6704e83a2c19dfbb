package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"salonpos-backend/models"
	"salonpos-backend/services"
	"salonpos-backend/utils"
)

type RegisterInput struct {
	Email        string         `json:"email" binding:"required,email"`
	Phone        string         `json:"phone" binding:"required"`
	Name         string         `json:"name" binding:"required"`
	Password     string         `json:"password" binding:"required,min=8"`
	SalonName    string         `json:"salonName" binding:"required"`
	SalonAddress string         `json:"salonAddress"`
	WorkingHours datatypes.JSON `json:"workingHours"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // email or phone
	Password   string `json:"password" binding:"required"`
}

type AuthController struct {
	DB       *gorm.DB
	Accounts *services.AccountService
	Secret   string
	TokenTTL time.Duration
}

func (ac *AuthController) issueToken(c *gin.Context, user *models.User) (string, bool) {
	token, err := utils.GenerateToken(user.ID, ac.Secret, ac.TokenTTL)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return "", false
	}
	c.SetCookie("token", token, int(ac.TokenTTL.Seconds()), "/", "", true, true)
	return token, true
}

func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	user, profile, err := ac.Accounts.Register(c.Request.Context(), services.RegisterInput{
		Email:        input.Email,
		Phone:        input.Phone,
		Name:         input.Name,
		Password:     input.Password,
		SalonName:    input.SalonName,
		SalonAddress: input.SalonAddress,
		WorkingHours: input.WorkingHours,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, ok := ac.issueToken(c, user)
	if !ok {
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user": gin.H{
			"id":        user.ID,
			"email":     user.Email,
			"phone":     user.Phone,
			"salonId":   profile.ID,
			"salonName": profile.Name,
			"role":      models.RoleAdmin,
		},
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	user, err := ac.Accounts.Authenticate(c.Request.Context(), input.Identifier, input.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, ok := ac.issueToken(c, user)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"phone": user.Phone,
			"name":  user.Name,
		},
	})
}

func (ac *AuthController) Me(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}

	var user models.User
	if err := ac.DB.First(&user, "id = ?", userFromContext(c)).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}
	var profile models.SalonProfile
	if err := ac.DB.First(&profile, "id = ?", salonID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Salon not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":        user.ID,
			"email":     user.Email,
			"name":      user.Name,
			"salonId":   profile.ID,
			"salonName": profile.Name,
			"role":      c.GetString(utils.ContextRole),
		},
	})
}

func (ac *AuthController) GetSubscription(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	sub, err := ac.Accounts.Subscription(c.Request.Context(), salonID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subscription": sub,
		"active":       sub.ActiveAt(time.Now()),
	})
}

func (ac *AuthController) GetMembers(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	members, err := ac.Accounts.Members(c.Request.Context(), salonID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (ac *AuthController) AddMember(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	var input services.MemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	member, err := ac.Accounts.AddMember(c.Request.Context(), salonID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (ac *AuthController) RemoveMember(c *gin.Context) {
	salonID, ok := salonFromContext(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "user")
	if !ok {
		return
	}
	if err := ac.Accounts.RemoveMember(c.Request.Context(), salonID, userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}
