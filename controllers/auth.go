// controllers/auth.go
package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"motoshop-backend/config"
	"motoshop-backend/models"
	"motoshop-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email         string `json:"email" binding:"required,email"`
	Phone         string `json:"phone" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Password      string `json:"password" binding:"required,min=8"`
	VehicleNumber string `json:"vehicleNumber"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // email or phone
	Password   string `json:"password" binding:"required"`
}

type AuthController struct {
	db           *gorm.DB
	jwt          config.JWTConfig
	secureCookie bool
	logger       *zap.Logger
}

func NewAuthController(db *gorm.DB, jwt config.JWTConfig, secureCookie bool, logger *zap.Logger) *AuthController {
	return &AuthController{db: db, jwt: jwt, secureCookie: secureCookie, logger: logger}
}

// Register creates a customer account and logs it in.
func (a *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	phone := utils.NormalizePhone(input.Phone)

	var existing models.User
	err := a.db.WithContext(c.Request.Context()).
		Where("email = ? OR phone = ?", email, phone).First(&existing).Error
	if err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		a.logger.Error("register lookup failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	user := models.User{
		Email:         email,
		Phone:         phone,
		Name:          strings.TrimSpace(input.Name),
		Password:      input.Password, // hashed in BeforeCreate
		VehicleNumber: strings.ToUpper(strings.TrimSpace(input.VehicleNumber)),
		Role:          models.RoleCustomer,
		IsActive:      true,
	}
	if err := a.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		a.logger.Error("create user failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, ok := a.issueToken(c, &user)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    user,
	})
}

func (a *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	identifier := strings.TrimSpace(input.Identifier)
	var user models.User
	err := a.db.WithContext(c.Request.Context()).
		Where("email = ? OR phone = ?", strings.ToLower(identifier), utils.NormalizePhone(identifier)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			a.logger.Error("login lookup failed", zap.Error(err))
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}
	if !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !user.IsActive {
		utils.RespondWithError(c, http.StatusForbidden, "Account is disabled")
		return
	}

	now := time.Now()
	if err := a.db.WithContext(c.Request.Context()).Model(&user).Update("last_login", &now).Error; err != nil {
		a.logger.Warn("last login not recorded", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	token, ok := a.issueToken(c, &user)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

func (a *AuthController) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var user models.User
	if err := a.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// issueToken signs a JWT and sets it as the auth cookie.
func (a *AuthController) issueToken(c *gin.Context, user *models.User) (string, bool) {
	expiry := time.Duration(a.jwt.ExpiryHours) * time.Hour
	token, err := utils.GenerateToken(a.jwt.Secret, expiry, user.ID, user.Role)
	if err != nil {
		a.logger.Error("token signing failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return "", false
	}
	c.SetCookie(utils.TokenCookie, token, a.jwt.ExpiryHours*3600, "/", "", a.secureCookie, true)
	return token, true
}
