package database

import (
	"context"
	"database/sql"
	"fmt"

	"grocerybooks/internal/catalog"
	"grocerybooks/internal/models"
)

const productColumns = `id, normalized_key, display_name, brand, purchase_count, avg_unit_price, last_unit_price, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.NormalizedKey, &p.DisplayName, &p.Brand, &p.PurchaseCount,
		&p.AvgUnitPrice, &p.LastUnitPrice, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (t *Tx) ProductByKey(ctx context.Context, key string) (*models.Product, error) {
	p, err := scanProduct(t.tx.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE normalized_key = ?
		ORDER BY id
		LIMIT 1
	`, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (t *Tx) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := scanProduct(t.tx.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (t *Tx) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (t *Tx) CreateProduct(ctx context.Context, p *models.Product) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO products (normalized_key, display_name, brand, purchase_count, avg_unit_price, last_unit_price)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.NormalizedKey, p.DisplayName, p.Brand, p.PurchaseCount, p.AvgUnitPrice, p.LastUnitPrice)
	return insertID(res, err, "product")
}

func (t *Tx) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products
		SET normalized_key = ?, display_name = ?, brand = ?, purchase_count = ?,
		    avg_unit_price = ?, last_unit_price = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, p.NormalizedKey, p.DisplayName, p.Brand, p.PurchaseCount, p.AvgUnitPrice, p.LastUnitPrice, p.ID)
	return mustAffect(res, err, "update product")
}

// DeleteProduct fails while line items still reference the product
func (t *Tx) DeleteProduct(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return mustAffect(res, err, "delete product")
}

func (t *Tx) AddPriceHistory(ctx context.Context, e *models.PriceHistoryEntry) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO price_history (product_id, line_item_id, purchased_at, store_id, unit_price, quantity, unit)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ProductID, e.LineItemID, e.PurchasedAt, nullID(e.StoreID), e.UnitPrice, e.Quantity, e.Unit)
	return insertID(res, err, "price history")
}

func (t *Tx) PriceHistory(ctx context.Context, productID int64) ([]models.PriceHistoryEntry, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, product_id, line_item_id, purchased_at, store_id, unit_price, quantity, unit
		FROM price_history
		WHERE product_id = ?
		ORDER BY id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	var entries []models.PriceHistoryEntry
	for rows.Next() {
		var e models.PriceHistoryEntry
		var storeID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.ProductID, &e.LineItemID, &e.PurchasedAt, &storeID,
			&e.UnitPrice, &e.Quantity, &e.Unit); err != nil {
			return nil, fmt.Errorf("scan price history: %w", err)
		}
		e.StoreID = storeID.Int64
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (t *Tx) ReassignProduct(ctx context.Context, fromID, toID int64) error {
	if _, err := t.GetProduct(ctx, toID); err != nil {
		return fmt.Errorf("reassign to product %d: %w", toID, err)
	}
	if _, err := t.tx.ExecContext(ctx, `UPDATE line_items SET product_id = ? WHERE product_id = ?`, toID, fromID); err != nil {
		return fmt.Errorf("reassign line items: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, `UPDATE price_history SET product_id = ? WHERE product_id = ?`, toID, fromID); err != nil {
		return fmt.Errorf("reassign price history: %w", err)
	}
	return nil
}
