package catalog

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"grocerybooks/internal/logger"
	"grocerybooks/internal/models"
	"grocerybooks/internal/naming"
)

// Resolver maps each line item of a receipt to a product, records the line
// item and its price history entry, and refreshes the product's aggregates
type Resolver struct {
	brands *naming.BrandExtractor
}

// NewResolver uses the given brand table, or the built-in one when nil
func NewResolver(brands *naming.BrandExtractor) *Resolver {
	if brands == nil {
		brands = naming.DefaultBrandExtractor()
	}
	return &Resolver{brands: brands}
}

// Resolution summarizes what resolving one receipt changed
type Resolution struct {
	ProductsCreated int
	ProductIDs      []int64 // per line item, in receipt order
}

// Resolve runs on a receipt that is already stored (receipt.ID set). It must
// be called inside the receipt's transaction: a failure on any item leaves
// nothing behind once the transaction rolls back.
func (r *Resolver) Resolve(ctx context.Context, repo Repository, receipt *models.Receipt) (*Resolution, error) {
	if receipt.ID == 0 {
		return nil, fmt.Errorf("resolve receipt %s: receipt not stored", receipt.ReceiptNumber)
	}
	log := logger.FromContext(ctx)
	res := &Resolution{ProductIDs: make([]int64, 0, len(receipt.Items))}

	for i := range receipt.Items {
		item := &receipt.Items[i]
		product, created, err := r.resolveItem(ctx, repo, receipt, item)
		if err != nil {
			return nil, fmt.Errorf("resolve item %d (%s): %w", item.Position, item.RawName, err)
		}
		if created {
			res.ProductsCreated++
			log.Debug("product_created",
				"product_id", product.ID,
				"key", product.NormalizedKey,
				"brand", product.Brand,
			)
		}
		res.ProductIDs = append(res.ProductIDs, product.ID)
	}
	return res, nil
}

func (r *Resolver) resolveItem(ctx context.Context, repo Repository, receipt *models.Receipt, item *models.LineItem) (*models.Product, bool, error) {
	key := naming.Normalize(item.RawName)
	item.NormalizedName = key
	rawName := strings.TrimSpace(item.RawName)

	product, err := repo.ProductByKey(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("lookup product: %w", err)
	}

	created := false
	if product == nil {
		brand, _ := r.brands.Extract(rawName)
		product = &models.Product{
			NormalizedKey: key,
			DisplayName:   rawName,
			Brand:         brand,
		}
		id, err := repo.CreateProduct(ctx, product)
		if err != nil {
			return nil, false, fmt.Errorf("create product: %w", err)
		}
		product.ID = id
		created = true
	} else {
		// A recorded brand is never replaced
		if !product.HasBrand() {
			if brand, ok := r.brands.Extract(rawName); ok {
				product.Brand = brand
			}
		}
		if utf8.RuneCountInString(rawName) < utf8.RuneCountInString(product.DisplayName) {
			product.DisplayName = rawName
		}
	}

	item.ReceiptID = receipt.ID
	item.ProductID = product.ID
	itemID, err := repo.CreateLineItem(ctx, item)
	if err != nil {
		return nil, false, fmt.Errorf("create line item: %w", err)
	}
	item.ID = itemID

	entry := &models.PriceHistoryEntry{
		ProductID:   product.ID,
		LineItemID:  itemID,
		PurchasedAt: receipt.PurchasedAt,
		StoreID:     receipt.StoreID,
		UnitPrice:   UnitPrice(*item),
		Quantity:    item.Quantity,
		Unit:        item.Unit,
	}
	if entry.ID, err = repo.AddPriceHistory(ctx, entry); err != nil {
		return nil, false, fmt.Errorf("add price history: %w", err)
	}

	if err := Recompute(ctx, repo, product); err != nil {
		return nil, false, err
	}
	return product, created, nil
}

// RemoveReceipt deletes a stored receipt and brings the products it touched
// back in line with their remaining history. Products left without any
// purchase are deleted. Returns the number of deleted products.
func RemoveReceipt(ctx context.Context, repo Repository, receiptID int64) (int, error) {
	items, err := repo.LineItemsByReceipt(ctx, receiptID)
	if err != nil {
		return 0, fmt.Errorf("load line items: %w", err)
	}
	if err := repo.DeleteReceipt(ctx, receiptID); err != nil {
		return 0, fmt.Errorf("delete receipt %d: %w", receiptID, err)
	}

	seen := make(map[int64]bool)
	removed := 0
	for _, item := range items {
		if item.ProductID == 0 || seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true

		product, err := repo.GetProduct(ctx, item.ProductID)
		if err != nil {
			return removed, fmt.Errorf("get product %d: %w", item.ProductID, err)
		}
		entries, err := repo.PriceHistory(ctx, product.ID)
		if err != nil {
			return removed, fmt.Errorf("load price history for product %d: %w", product.ID, err)
		}
		if len(entries) == 0 {
			if err := repo.DeleteProduct(ctx, product.ID); err != nil {
				return removed, fmt.Errorf("delete product %d: %w", product.ID, err)
			}
			removed++
			continue
		}
		ApplyStats(product, entries)
		if err := repo.UpdateProduct(ctx, product); err != nil {
			return removed, fmt.Errorf("update product %d: %w", product.ID, err)
		}
	}
	return removed, nil
}
