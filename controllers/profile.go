// controllers/profile.go
package controllers

import (
	"net/http"
	"strings"

	"motoshop-backend/models"
	"motoshop-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UpdateProfileInput struct {
	Name          *string `json:"name"`
	Phone         *string `json:"phone"`
	VehicleNumber *string `json:"vehicleNumber"`
	Password      *string `json:"password" binding:"omitempty,min=8"`
}

type ProfileController struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewProfileController(db *gorm.DB, logger *zap.Logger) *ProfileController {
	return &ProfileController{db: db, logger: logger}
}

func (pc *ProfileController) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var user models.User
	if err := pc.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var user models.User
	if err := pc.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	updates := map[string]interface{}{}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		if !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		updates["phone"] = utils.NormalizePhone(*input.Phone)
	}
	if input.VehicleNumber != nil {
		updates["vehicle_number"] = strings.ToUpper(strings.TrimSpace(*input.VehicleNumber))
	}
	if input.Password != nil {
		hashed, err := utils.HashPassword(*input.Password)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
			return
		}
		updates["password"] = hashed
	}

	if len(updates) > 0 {
		if err := pc.db.WithContext(c.Request.Context()).Model(&user).Updates(updates).Error; err != nil {
			pc.logger.Error("update profile failed", zap.Uint("user_id", userID), zap.Error(err))
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}
