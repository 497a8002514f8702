// controllers/alert.go
package controllers

import (
	"net/http"

	"motoshop-backend/models"
	"motoshop-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AlertController serves a customer's own alerts.
type AlertController struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewAlertController(db *gorm.DB, logger *zap.Logger) *AlertController {
	return &AlertController{db: db, logger: logger}
}

// GetAlerts lists the caller's alerts newest first; ?unread=true hides read ones.
func (ac *AlertController) GetAlerts(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	query := ac.db.WithContext(c.Request.Context()).Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	alerts := []models.CustomerAlert{}
	if err := query.Order("created_at DESC, id DESC").Limit(100).Find(&alerts).Error; err != nil {
		ac.logger.Error("list alerts failed", zap.Uint("user_id", userID), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve alerts")
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (ac *AlertController) MarkAlertRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := utils.ParseID(c, "id")
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid alert ID format")
		return
	}

	res := ac.db.WithContext(c.Request.Context()).Model(&models.CustomerAlert{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		ac.logger.Error("mark alert read failed", zap.Uint("alert_id", id), zap.Error(res.Error))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update alert")
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Alert not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert marked as read"})
}
