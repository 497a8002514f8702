// controllers/report.go
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

const reportTopLimit = 5

// AnalyticsSummary is revenue from completed job cards with period-over-period growth.
type AnalyticsSummary struct {
	CurrentMonthRevenue   decimal.Decimal   `json:"currentMonthRevenue"`
	MonthGrowth           float64           `json:"monthGrowth"`
	CurrentQuarterRevenue decimal.Decimal   `json:"currentQuarterRevenue"`
	QuarterGrowth         float64           `json:"quarterGrowth"`
	CurrentYearRevenue    decimal.Decimal   `json:"currentYearRevenue"`
	YearGrowth            float64           `json:"yearGrowth"`
	TopProducts           []ProductSummary  `json:"topProducts"`
	TopCustomers          []CustomerSummary `json:"topCustomers"`
	QuickStats            QuickStatistics   `json:"quickStats"`
}

type ProductSummary struct {
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type CustomerSummary struct {
	Name   string          `json:"name"`
	Visits int64           `json:"visits"`
	Spent  decimal.Decimal `json:"spent"`
}

type QuickStatistics struct {
	TotalJobCards     int64           `json:"totalJobCards"`
	CompletedJobCards int64           `json:"completedJobCards"`
	AvgJobValue       decimal.Decimal `json:"avgJobValue"`
}

// ReportController handles revenue reporting
type ReportController struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewReportController(db *gorm.DB, logger *zap.Logger) *ReportController {
	return &ReportController{db: db, logger: logger, now: time.Now}
}

func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	db := rc.db.WithContext(c.Request.Context())
	now := rc.now()

	month := utils.BeginningOfMonth(now)
	quarter := quarterStart(now)
	year := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	type period struct {
		start, end time.Time
		out        *decimal.Decimal
	}
	var summary AnalyticsSummary
	var lastMonth, lastQuarter, lastYear decimal.Decimal
	periods := []period{
		{month, month.AddDate(0, 1, 0), &summary.CurrentMonthRevenue},
		{month.AddDate(0, -1, 0), month, &lastMonth},
		{quarter, quarter.AddDate(0, 3, 0), &summary.CurrentQuarterRevenue},
		{quarter.AddDate(0, -3, 0), quarter, &lastQuarter},
		{year, year.AddDate(1, 0, 0), &summary.CurrentYearRevenue},
		{year.AddDate(-1, 0, 0), year, &lastYear},
	}
	for _, p := range periods {
		revenue, err := rc.getRevenue(db, p.start, p.end)
		if err != nil {
			rc.fail(c, "revenue", err)
			return
		}
		*p.out = revenue
	}

	summary.MonthGrowth = growthPercentage(summary.CurrentMonthRevenue, lastMonth)
	summary.QuarterGrowth = growthPercentage(summary.CurrentQuarterRevenue, lastQuarter)
	summary.YearGrowth = growthPercentage(summary.CurrentYearRevenue, lastYear)

	var err error
	if summary.TopProducts, err = rc.getTopProducts(db, month, month.AddDate(0, 1, 0)); err != nil {
		rc.fail(c, "top products", err)
		return
	}
	if summary.TopCustomers, err = rc.getTopCustomers(db, month, month.AddDate(0, 1, 0)); err != nil {
		rc.fail(c, "top customers", err)
		return
	}
	if summary.QuickStats, err = rc.getQuickStatistics(db); err != nil {
		rc.fail(c, "quick statistics", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (rc *ReportController) getRevenue(db *gorm.DB, start, end time.Time) (decimal.Decimal, error) {
	var row struct{ Revenue decimal.Decimal }
	err := db.Model(&models.JobCard{}).
		Select("COALESCE(SUM(total_cost), 0) AS revenue").
		Where("status = ? AND created_at >= ? AND created_at < ?", models.JobCardCompleted, start, end).
		Scan(&row).Error
	return row.Revenue, err
}

func (rc *ReportController) getTopProducts(db *gorm.DB, start, end time.Time) ([]ProductSummary, error) {
	products := []ProductSummary{}
	err := db.Table("job_card_items").
		Select("job_card_items.product_name AS name, SUM(job_card_items.quantity) AS quantity, SUM(job_card_items.subtotal) AS revenue").
		Joins("JOIN service_job_cards ON service_job_cards.id = job_card_items.job_card_id").
		Where("service_job_cards.status = ? AND service_job_cards.created_at >= ? AND service_job_cards.created_at < ?",
			models.JobCardCompleted, start, end).
		Group("job_card_items.product_name").
		Order("revenue DESC").
		Limit(reportTopLimit).
		Scan(&products).Error
	return products, err
}

func (rc *ReportController) getTopCustomers(db *gorm.DB, start, end time.Time) ([]CustomerSummary, error) {
	customers := []CustomerSummary{}
	err := db.Table("service_job_cards").
		Select("users.name AS name, COUNT(service_job_cards.id) AS visits, SUM(service_job_cards.total_cost) AS spent").
		Joins("JOIN users ON users.id = service_job_cards.user_id").
		Where("service_job_cards.status = ? AND service_job_cards.created_at >= ? AND service_job_cards.created_at < ?",
			models.JobCardCompleted, start, end).
		Group("users.id, users.name").
		Order("spent DESC").
		Limit(reportTopLimit).
		Scan(&customers).Error
	return customers, err
}

func (rc *ReportController) getQuickStatistics(db *gorm.DB) (QuickStatistics, error) {
	var stats QuickStatistics
	if err := db.Model(&models.JobCard{}).Count(&stats.TotalJobCards).Error; err != nil {
		return stats, err
	}

	var row struct {
		Completed int64
		Revenue   decimal.Decimal
	}
	err := db.Model(&models.JobCard{}).
		Select("COUNT(*) AS completed, COALESCE(SUM(total_cost), 0) AS revenue").
		Where("status = ?", models.JobCardCompleted).
		Scan(&row).Error
	if err != nil {
		return stats, err
	}
	stats.CompletedJobCards = row.Completed
	stats.AvgJobValue = decimal.Zero
	if row.Completed > 0 {
		stats.AvgJobValue = row.Revenue.Div(decimal.NewFromInt(row.Completed)).Round(2)
	}
	return stats, nil
}

func (rc *ReportController) fail(c *gin.Context, what string, err error) {
	rc.logger.Error("report query failed", zap.String("query", what), zap.Error(err))
	utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get "+what)
}

func quarterStart(date time.Time) time.Time {
	startMonth := time.Month((int(date.Month())-1)/3*3 + 1)
	return time.Date(date.Year(), startMonth, 1, 0, 0, 0, 0, date.Location())
}

// growthPercentage is 100 when there was nothing to grow from.
func growthPercentage(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsZero() {
			return 0
		}
		return 100
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
