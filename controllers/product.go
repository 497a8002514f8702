// controllers/product.go
package controllers

import (
	"errors"
	"net/http"
	"strings"

	"motoshop-backend/models"
	"motoshop-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateProductInput defines the expected JSON structure for creating a product
type CreateProductInput struct {
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity" binding:"min=0"`
}

// UpdateProductInput defines the expected JSON structure for updating a product
type UpdateProductInput struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int             `json:"stockQuantity" binding:"omitempty,min=0"`
	IsActive      *bool            `json:"isActive"`
}

// ProductController manages the parts and accessories catalog. Price changes
// never touch existing job cards; their items keep the price they were
// written with.
type ProductController struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewProductController(db *gorm.DB, logger *zap.Logger) *ProductController {
	return &ProductController{db: db, logger: logger}
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Price.IsNegative() {
		utils.RespondWithError(c, http.StatusBadRequest, "Price must not be negative")
		return
	}

	product := models.Product{
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		Price:         input.Price.Round(2),
		StockQuantity: input.StockQuantity,
		IsActive:      true,
	}
	if err := pc.db.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
		pc.logger.Error("create product failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts lists the catalog. ?q= matches name or description,
// ?active=true hides deactivated products.
func (pc *ProductController) GetProducts(c *gin.Context) {
	query := pc.db.WithContext(c.Request.Context())
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	products := []models.Product{}
	if err := query.Order("name").Find(&products).Error; err != nil {
		pc.logger.Error("list products failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (pc *ProductController) GetProduct(c *gin.Context) {
	product, ok := pc.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, product)
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	product, ok := pc.load(c)
	if !ok {
		return
	}

	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			utils.RespondWithError(c, http.StatusBadRequest, "Price must not be negative")
			return
		}
		updates["price"] = input.Price.Round(2)
	}
	if input.StockQuantity != nil {
		updates["stock_quantity"] = *input.StockQuantity
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := pc.db.WithContext(c.Request.Context()).Model(product).Updates(updates).Error; err != nil {
			pc.logger.Error("update product failed", zap.Uint("product_id", product.ID), zap.Error(err))
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update product")
			return
		}
	}
	if err := pc.db.WithContext(c.Request.Context()).First(product, product.ID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to reload product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct deactivates the product. Job card items keep their snapshot.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	product, ok := pc.load(c)
	if !ok {
		return
	}
	if err := pc.db.WithContext(c.Request.Context()).Model(product).Update("is_active", false).Error; err != nil {
		pc.logger.Error("deactivate product failed", zap.Uint("product_id", product.ID), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deactivated"})
}

func (pc *ProductController) load(c *gin.Context) (*models.Product, bool) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return nil, false
	}

	var product models.Product
	if err := pc.db.WithContext(c.Request.Context()).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			pc.logger.Error("load product failed", zap.Uint("product_id", id), zap.Error(err))
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &product, true
}
