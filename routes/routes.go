// routes/routes.go
package routes

import (
	"net/http"
	"time"

	"motoshop-backend/config"
	"motoshop-backend/controllers"
	"motoshop-backend/models"
	"motoshop-backend/services"
	"motoshop-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var defaultOrigins = []string{"http://localhost:3000"}

// Dependencies are the shared objects the handlers are built from.
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	JobCards *services.JobCardService
	Logger   *zap.Logger
}

func SetupRouter(d Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	origins := d.Config.CORS.AllowOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", config.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", config.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(config.PerformanceLogger(d.Logger))

	authMiddleware := utils.AuthMiddleware(d.Config.JWT.Secret)

	authController := controllers.NewAuthController(d.DB, d.Config.JWT, d.Config.Env == "production", d.Logger)
	customerController := controllers.NewCustomerController(d.DB, d.Logger)
	productController := controllers.NewProductController(d.DB, d.Logger)
	jobCardController := controllers.NewJobCardController(d.JobCards)
	alertController := controllers.NewAlertController(d.DB, d.Logger)
	profileController := controllers.NewProfileController(d.DB, d.Logger)
	dashboardController := controllers.NewDashboardController(d.DB, d.Logger)
	reportController := controllers.NewReportController(d.DB, d.Logger)

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)

		auth.GET("/me", authMiddleware, authController.Me)
	}

	api := r.Group("/api")
	api.Use(authMiddleware)
	{
		// Customer portal
		me := api.Group("/me")
		{
			me.GET("/profile", profileController.GetProfile)
			me.PUT("/profile", profileController.UpdateProfile)
			me.GET("/job-cards", utils.RequireRole(models.RoleCustomer), jobCardController.MyJobCards)
			me.GET("/alerts", alertController.GetAlerts)
			me.POST("/alerts/:id/read", alertController.MarkAlertRead)
		}

		admin := api.Group("/admin")
		admin.Use(utils.RequireRole(models.RoleAdmin))
		{
			products := admin.Group("/products")
			{
				products.POST("", productController.CreateProduct)
				products.GET("", productController.GetProducts)
				products.GET("/:id", productController.GetProduct)
				products.PUT("/:id", productController.UpdateProduct)
				products.DELETE("/:id", productController.DeleteProduct)
			}

			customers := admin.Group("/customers")
			{
				customers.POST("", customerController.CreateCustomer)
				customers.GET("", customerController.GetCustomers)
				customers.GET("/:id", customerController.GetCustomer)
				customers.PUT("/:id", customerController.UpdateCustomer)
			}

			jobCards := admin.Group("/job-cards")
			{
				jobCards.POST("", jobCardController.CreateJobCard)
				jobCards.GET("", jobCardController.GetJobCards)
				jobCards.GET("/export", jobCardController.ExportJobCards)
				jobCards.GET("/:id", jobCardController.GetJobCard)
				jobCards.PUT("/:id", jobCardController.UpdateJobCard)
				jobCards.DELETE("/:id", jobCardController.DeleteJobCard)
				jobCards.PATCH("/:id/status", jobCardController.UpdateJobCardStatus)
			}

			admin.GET("/dashboard", dashboardController.GetDashboardOverview)
			admin.GET("/reports", reportController.GetReportAnalytics)
		}
	}

	return r
}
