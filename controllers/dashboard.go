// controllers/dashboard.go
package controllers

import (
	"net/http"
	"time"

	"motoshop-backend/models"
	"motoshop-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DashboardOverview struct {
	TotalCustomers   int64                          `json:"totalCustomers"`
	TotalProducts    int64                          `json:"totalProducts"`
	JobCardsByStatus map[models.JobCardStatus]int64 `json:"jobCardsByStatus"`
	MonthlyRevenue   decimal.Decimal                `json:"monthlyRevenue"`
	RecentJobCards   []RecentJobCard                `json:"recentJobCards"`
}

type RecentJobCard struct {
	ID          uint                 `json:"id"`
	Customer    string               `json:"customer"`
	Description string               `json:"description"`
	Status      models.JobCardStatus `json:"status"`
	TotalCost   decimal.Decimal      `json:"totalCost"`
	CreatedAt   time.Time            `json:"createdAt"`
}

type DashboardController struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewDashboardController(db *gorm.DB, logger *zap.Logger) *DashboardController {
	return &DashboardController{db: db, logger: logger, now: time.Now}
}

// GetDashboardOverview summarizes the shop. Monthly revenue sums completed
// job cards created since the first of the current month.
func (dc *DashboardController) GetDashboardOverview(c *gin.Context) {
	db := dc.db.WithContext(c.Request.Context())
	overview := DashboardOverview{
		JobCardsByStatus: map[models.JobCardStatus]int64{
			models.JobCardPending:    0,
			models.JobCardInProgress: 0,
			models.JobCardCompleted:  0,
			models.JobCardCancelled:  0,
		},
		RecentJobCards: []RecentJobCard{},
	}

	if err := db.Model(&models.User{}).Where("role = ?", models.RoleCustomer).
		Count(&overview.TotalCustomers).Error; err != nil {
		dc.fail(c, err)
		return
	}
	if err := db.Model(&models.Product{}).Where("is_active = ?", true).
		Count(&overview.TotalProducts).Error; err != nil {
		dc.fail(c, err)
		return
	}

	var counts []struct {
		Status models.JobCardStatus
		Count  int64
	}
	if err := db.Model(&models.JobCard{}).Select("status, COUNT(*) AS count").
		Group("status").Scan(&counts).Error; err != nil {
		dc.fail(c, err)
		return
	}
	for _, row := range counts {
		overview.JobCardsByStatus[row.Status] = row.Count
	}

	var revenue struct{ Revenue decimal.Decimal }
	if err := db.Model(&models.JobCard{}).
		Select("COALESCE(SUM(total_cost), 0) AS revenue").
		Where("status = ? AND created_at >= ?", models.JobCardCompleted, utils.BeginningOfMonth(dc.now())).
		Scan(&revenue).Error; err != nil {
		dc.fail(c, err)
		return
	}
	overview.MonthlyRevenue = revenue.Revenue

	var recent []models.JobCard
	if err := db.Preload("Customer").Order("created_at DESC, id DESC").Limit(5).
		Find(&recent).Error; err != nil {
		dc.fail(c, err)
		return
	}
	for _, card := range recent {
		name := card.ManualCustomer.Name
		if card.Customer != nil {
			name = card.Customer.Name
		}
		overview.RecentJobCards = append(overview.RecentJobCards, RecentJobCard{
			ID:          card.ID,
			Customer:    name,
			Description: utils.Truncate(card.JobDescription, 50),
			Status:      card.Status,
			TotalCost:   card.TotalCost,
			CreatedAt:   card.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, overview)
}

func (dc *DashboardController) fail(c *gin.Context, err error) {
	dc.logger.Error("dashboard query failed", zap.Error(err))
	utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load dashboard")
}
