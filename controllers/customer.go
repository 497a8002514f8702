// controllers/customer.go
package controllers

import (
	"errors"
	"net/http"
	"strings"

	"motoshop-backend/models"
	"motoshop-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateCustomerInput defines the expected JSON structure for creating a customer
type CreateCustomerInput struct {
	Name          string `json:"name" binding:"required"`
	Phone         string `json:"phone" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	VehicleNumber string `json:"vehicleNumber"`
	// Password is optional; customers without one use a random password
	// until they reset it.
	Password string `json:"password" binding:"omitempty,min=8"`
}

// UpdateCustomerInput defines the expected JSON structure for updating a customer
type UpdateCustomerInput struct {
	Name          *string `json:"name"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" binding:"omitempty,email"`
	VehicleNumber *string `json:"vehicleNumber"`
	IsActive      *bool   `json:"isActive"`
}

// CustomerController manages customer accounts for admins.
type CustomerController struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewCustomerController(db *gorm.DB, logger *zap.Logger) *CustomerController {
	return &CustomerController{db: db, logger: logger}
}

func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var input CreateCustomerInput
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

	if ok := cc.ensureUnique(c, 0, email, phone); !ok {
		return
	}

	password := input.Password
	if password == "" {
		random, err := utils.GenerateRandomString(16)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create customer")
			return
		}
		password = random
	}

	customer := models.User{
		Email:         email,
		Phone:         phone,
		Name:          strings.TrimSpace(input.Name),
		Password:      password,
		VehicleNumber: strings.ToUpper(strings.TrimSpace(input.VehicleNumber)),
		Role:          models.RoleCustomer,
		IsActive:      true,
	}
	if err := cc.db.WithContext(c.Request.Context()).Create(&customer).Error; err != nil {
		cc.logger.Error("create customer failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create customer")
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// GetCustomers lists customers, optionally filtered by ?q= on name, phone,
// email or vehicle number.
func (cc *CustomerController) GetCustomers(c *gin.Context) {
	query := cc.db.WithContext(c.Request.Context()).Where("role = ?", models.RoleCustomer)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ? OR LOWER(vehicle_number) LIKE ?",
			like, like, like, like)
	}

	customers := []models.User{}
	if err := query.Order("name").Find(&customers).Error; err != nil {
		cc.logger.Error("list customers failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (cc *CustomerController) GetCustomer(c *gin.Context) {
	customer, ok := cc.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (cc *CustomerController) UpdateCustomer(c *gin.Context) {
	customer, ok := cc.load(c)
	if !ok {
		return
	}

	var input UpdateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	email, phone := customer.Email, customer.Phone
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		if !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		phone = utils.NormalizePhone(*input.Phone)
		updates["phone"] = phone
	}
	if input.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*input.Email))
		updates["email"] = email
	}
	if input.VehicleNumber != nil {
		updates["vehicle_number"] = strings.ToUpper(strings.TrimSpace(*input.VehicleNumber))
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, customer)
		return
	}
	if ok := cc.ensureUnique(c, customer.ID, email, phone); !ok {
		return
	}

	if err := cc.db.WithContext(c.Request.Context()).Model(customer).Updates(updates).Error; err != nil {
		cc.logger.Error("update customer failed", zap.Uint("user_id", customer.ID), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update customer")
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (cc *CustomerController) load(c *gin.Context) (*models.User, bool) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID format")
		return nil, false
	}

	var customer models.User
	err := cc.db.WithContext(c.Request.Context()).
		Where("id = ? AND role = ?", id, models.RoleCustomer).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		} else {
			cc.logger.Error("load customer failed", zap.Uint("user_id", id), zap.Error(err))
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &customer, true
}

// ensureUnique rejects an email or phone already used by another account.
func (cc *CustomerController) ensureUnique(c *gin.Context, selfID uint, email, phone string) bool {
	var existing models.User
	err := cc.db.WithContext(c.Request.Context()).
		Where("(email = ? OR phone = ?) AND id <> ?", email, phone, selfID).
		First(&existing).Error
	if err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Customer with this email or phone already exists")
		return false
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		cc.logger.Error("customer uniqueness check failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return false
	}
	return true
}
