// services/pricing.go
package services

import (
	"context"
	"errors"
	"fmt"

	"motoshop-backend/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceSnapshot is the catalog state copied into a line item.
type PriceSnapshot struct {
	ProductID uint
	Name      string
	UnitPrice decimal.Decimal
}

// PriceResolver reads current catalog prices. It never writes.
type PriceResolver struct{}

// Resolve returns the product's current price, or an error wrapping
// ErrNotFound when the product does not exist.
func (PriceResolver) Resolve(ctx context.Context, db *gorm.DB, productID uint) (PriceSnapshot, error) {
	var product models.Product
	err := db.WithContext(ctx).
		Select("id", "name", "price").
		First(&product, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PriceSnapshot{}, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return PriceSnapshot{}, fmt.Errorf("lookup product %d: %w", productID, err)
	}
	return PriceSnapshot{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
	}, nil
}
