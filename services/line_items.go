// services/line_items.go
package services

import (
	"context"
	"errors"

	"motoshop-backend/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ItemSelection is one product/quantity pair submitted with a job card.
type ItemSelection struct {
	ProductID uint
	Quantity  int
}

// LineItemBuilder turns selections into priced line items.
type LineItemBuilder struct {
	resolver PriceResolver
	// strict fails the build on unknown products instead of skipping them.
	strict bool
	logger *zap.Logger
}

func NewLineItemBuilder(strict bool, logger *zap.Logger) *LineItemBuilder {
	return &LineItemBuilder{strict: strict, logger: logger}
}

// normalizeSelections drops zero quantities and merges repeated products,
// keeping first-seen order.
func normalizeSelections(selections []ItemSelection) ([]ItemSelection, error) {
	var out []ItemSelection
	index := make(map[uint]int, len(selections))
	for _, sel := range selections {
		if sel.Quantity < 0 {
			return nil, validationErrorf("quantity for product %d must not be negative", sel.ProductID)
		}
		if sel.Quantity == 0 {
			continue
		}
		if sel.ProductID == 0 {
			return nil, validationErrorf("product id is required for every item")
		}
		if i, ok := index[sel.ProductID]; ok {
			out[i].Quantity += sel.Quantity
			continue
		}
		index[sel.ProductID] = len(out)
		out = append(out, sel)
	}
	return out, nil
}

// Build prices every selection against db and returns the items with their total.
// The total is always exactly the sum of the returned subtotals.
func (b *LineItemBuilder) Build(ctx context.Context, db *gorm.DB, selections []ItemSelection) ([]models.JobCardItem, decimal.Decimal, error) {
	normalized, err := normalizeSelections(selections)
	if err != nil {
		return nil, decimal.Zero, err
	}

	items := make([]models.JobCardItem, 0, len(normalized))
	total := decimal.Zero
	for _, sel := range normalized {
		snap, err := b.resolver.Resolve(ctx, db, sel.ProductID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				return nil, decimal.Zero, err
			}
			if b.strict {
				return nil, decimal.Zero, validationErrorf("product %d does not exist", sel.ProductID)
			}
			b.logger.Warn("skipping unknown product in job card selection",
				zap.Uint("product_id", sel.ProductID),
				zap.Int("quantity", sel.Quantity))
			continue
		}

		subtotal := snap.UnitPrice.Mul(decimal.NewFromInt(int64(sel.Quantity)))
		total = total.Add(subtotal)
		items = append(items, models.JobCardItem{
			ProductID:   snap.ProductID,
			ProductName: snap.Name,
			Quantity:    sel.Quantity,
			UnitPrice:   snap.UnitPrice,
			Subtotal:    subtotal,
		})
	}
	return items, total, nil
}
