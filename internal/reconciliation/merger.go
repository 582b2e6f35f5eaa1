// Package reconciliation consolidates products that ended up sharing one
// normalized key, typically after two imports raced on the same new article.
package reconciliation

import (
	"context"
	"fmt"
	"sort"
	"unicode/utf8"

	"grocerybooks/internal/catalog"
	"grocerybooks/internal/logger"
	"grocerybooks/internal/models"
	"grocerybooks/internal/naming"
)

// Merger runs the duplicate consolidation pass
type Merger struct {
	db catalog.TxRunner
}

func NewMerger(db catalog.TxRunner) *Merger {
	return &Merger{db: db}
}

// GroupError records a key group whose merge was rolled back
type GroupError struct {
	Key string
	Err error
}

func (e GroupError) Error() string {
	return fmt.Sprintf("merge %q: %v", e.Key, e.Err)
}

// MergeReport summarizes one pass
type MergeReport struct {
	Groups   int // key groups with more than one product
	Removed  int // products folded into a survivor
	Failed   []GroupError
	Survivor map[string]int64
}

// Run groups all products by key and merges each multi-member group in its
// own transaction. A failing group is reported and skipped; groups already
// committed stay committed. The returned error is only for failures to list
// products at all.
func (m *Merger) Run(ctx context.Context) (*MergeReport, error) {
	log := logger.FromContext(ctx)

	var products []models.Product
	err := m.db.InTx(ctx, func(repo catalog.Repository) error {
		var err error
		products, err = repo.ListProducts(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	groups := GroupByKey(products)
	keys := make([]string, 0, len(groups))
	for key, ids := range groups {
		if len(ids) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	report := &MergeReport{Survivor: make(map[string]int64)}
	for _, key := range keys {
		report.Groups++
		var survivorID int64
		var removed int
		err := m.db.InTx(ctx, func(repo catalog.Repository) error {
			var err error
			survivorID, removed, err = mergeGroup(ctx, repo, key, groups[key])
			return err
		})
		if err != nil {
			log.Error("product_merge_failed", "key", key, "products", groups[key], "error", err.Error())
			report.Failed = append(report.Failed, GroupError{Key: key, Err: err})
			continue
		}
		report.Removed += removed
		report.Survivor[key] = survivorID
		log.Info("products_merged", "key", key, "survivor_id", survivorID, "removed", removed)
	}
	return report, nil
}

// GroupByKey maps each normalized key to the ids of the products carrying it
func GroupByKey(products []models.Product) map[string][]int64 {
	groups := make(map[string][]int64)
	for _, p := range products {
		key := naming.Normalize(p.NormalizedKey)
		groups[key] = append(groups[key], p.ID)
	}
	return groups
}

// PickSurvivor returns the product with the highest purchase count, the
// lowest id winning ties, followed by the others in id order
func PickSurvivor(products []models.Product) (models.Product, []models.Product) {
	sorted := append([]models.Product(nil), products...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].PurchaseCount != sorted[j].PurchaseCount {
			return sorted[i].PurchaseCount > sorted[j].PurchaseCount
		}
		return sorted[i].ID < sorted[j].ID
	})
	losers := sorted[1:]
	sort.Slice(losers, func(i, j int) bool { return losers[i].ID < losers[j].ID })
	return sorted[0], losers
}

func mergeGroup(ctx context.Context, repo catalog.Repository, key string, ids []int64) (int64, int, error) {
	products := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p, err := repo.GetProduct(ctx, id)
		if err != nil {
			return 0, 0, fmt.Errorf("get product %d: %w", id, err)
		}
		products = append(products, *p)
	}

	survivor, losers := PickSurvivor(products)
	for _, loser := range losers {
		if err := repo.ReassignProduct(ctx, loser.ID, survivor.ID); err != nil {
			return 0, 0, fmt.Errorf("reassign product %d to %d: %w", loser.ID, survivor.ID, err)
		}
		if err := repo.DeleteProduct(ctx, loser.ID); err != nil {
			return 0, 0, fmt.Errorf("delete product %d: %w", loser.ID, err)
		}
		if !survivor.HasBrand() && loser.HasBrand() {
			survivor.Brand = loser.Brand
		}
		if utf8.RuneCountInString(loser.DisplayName) < utf8.RuneCountInString(survivor.DisplayName) {
			survivor.DisplayName = loser.DisplayName
		}
	}

	survivor.NormalizedKey = key
	if err := catalog.Recompute(ctx, repo, &survivor); err != nil {
		return 0, 0, err
	}
	return survivor.ID, len(losers), nil
}
