package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"grocerybooks/internal/models"
)

// UnitPrice is total/quantity for one line item, or the total when the
// quantity is zero
func UnitPrice(item models.LineItem) decimal.Decimal {
	if item.Quantity.IsZero() {
		return item.TotalPrice
	}
	return item.TotalPrice.DivRound(item.Quantity, 2)
}

// ApplyStats sets the aggregates of p from its complete price history.
// The last price belongs to the latest purchase; equal timestamps go to the
// entry inserted later.
func ApplyStats(p *models.Product, entries []models.PriceHistoryEntry) {
	p.PurchaseCount = len(entries)
	if len(entries) == 0 {
		p.AvgUnitPrice = decimal.Zero
		p.LastUnitPrice = decimal.Zero
		return
	}

	sum := decimal.Zero
	last := entries[0]
	for _, e := range entries {
		sum = sum.Add(e.UnitPrice)
		if !e.PurchasedAt.Before(last.PurchasedAt) {
			last = e
		}
	}
	p.AvgUnitPrice = sum.DivRound(decimal.NewFromInt(int64(len(entries))), 4)
	p.LastUnitPrice = last.UnitPrice
}

// Recompute reloads the product's price history, applies the aggregates and
// stores the product
func Recompute(ctx context.Context, repo Repository, p *models.Product) error {
	entries, err := repo.PriceHistory(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("load price history for product %d: %w", p.ID, err)
	}
	ApplyStats(p, entries)
	if err := repo.UpdateProduct(ctx, p); err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, err)
	}
	return nil
}
