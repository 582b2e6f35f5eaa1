package database

import (
	"context"
	"database/sql"
	"fmt"

	"grocerybooks/internal/models"
)

func (t *Tx) StoreByCode(ctx context.Context, code string) (*models.Store, error) {
	var s models.Store
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, code, name, created_at
		FROM stores
		WHERE code = ?
	`, code).Scan(&s.ID, &s.Code, &s.Name, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	return &s, nil
}

func (t *Tx) CreateStore(ctx context.Context, s *models.Store) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO stores (code, name) VALUES (?, ?)
	`, s.Code, s.Name)
	return insertID(res, err, "store")
}

func (t *Tx) ReceiptByNumber(ctx context.Context, number string) (*models.Receipt, error) {
	var r models.Receipt
	var storeID sql.NullInt64
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, purchased_at, store_id, store_code, register_number, bon_number, receipt_number,
		       total, savings, points_earned, points_redeemed, created_at
		FROM receipts
		WHERE receipt_number = ?
	`, number).Scan(&r.ID, &r.PurchasedAt, &storeID, &r.StoreCode, &r.RegisterNumber, &r.BonNumber,
		&r.ReceiptNumber, &r.Total, &r.Savings, &r.PointsEarned, &r.PointsRedeemed, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query receipt: %w", err)
	}
	r.StoreID = storeID.Int64

	rows, err := t.tx.QueryContext(ctx, `
		SELECT category, rate, amount
		FROM receipt_tax_totals
		WHERE receipt_id = ?
		ORDER BY category
	`, r.ID)
	if err != nil {
		return nil, fmt.Errorf("query tax totals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tt models.TaxTotal
		if err := rows.Scan(&tt.Category, &tt.Rate, &tt.Amount); err != nil {
			return nil, fmt.Errorf("scan tax total: %w", err)
		}
		r.TaxTotals = append(r.TaxTotals, tt)
	}
	return &r, rows.Err()
}

func (t *Tx) CreateReceipt(ctx context.Context, r *models.Receipt) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO receipts (purchased_at, store_id, store_code, register_number, bon_number, receipt_number,
		                      total, savings, points_earned, points_redeemed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.PurchasedAt, nullID(r.StoreID), r.StoreCode, r.RegisterNumber, r.BonNumber, r.ReceiptNumber,
		r.Total, r.Savings, r.PointsEarned, r.PointsRedeemed)
	id, err := insertID(res, err, "receipt")
	if err != nil {
		return 0, err
	}

	for _, tt := range r.TaxTotals {
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO receipt_tax_totals (receipt_id, category, rate, amount) VALUES (?, ?, ?, ?)
		`, id, tt.Category, tt.Rate, tt.Amount)
		if err != nil {
			return 0, fmt.Errorf("insert tax total %s: %w", tt.Category, err)
		}
	}
	return id, nil
}

func (t *Tx) DeleteReceipt(ctx context.Context, id int64) error {
	if _, err := t.tx.ExecContext(ctx, `
		DELETE FROM price_history
		WHERE line_item_id IN (SELECT id FROM line_items WHERE receipt_id = ?)
	`, id); err != nil {
		return fmt.Errorf("delete price history: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM line_items WHERE receipt_id = ?`, id); err != nil {
		return fmt.Errorf("delete line items: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM receipt_tax_totals WHERE receipt_id = ?`, id); err != nil {
		return fmt.Errorf("delete tax totals: %w", err)
	}
	res, err := t.tx.ExecContext(ctx, `DELETE FROM receipts WHERE id = ?`, id)
	return mustAffect(res, err, "delete receipt")
}

func (t *Tx) CreateLineItem(ctx context.Context, item *models.LineItem) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO line_items (receipt_id, product_id, position, raw_name, normalized_name, quantity, unit,
		                        unit_price, total_price, discount, discount_label, tax_category,
		                        is_weight_based, is_multi_pack)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ReceiptID, item.ProductID, item.Position, item.RawName, item.NormalizedName, item.Quantity, item.Unit,
		item.UnitPrice, item.TotalPrice, item.Discount, item.DiscountLabel, item.TaxCategory,
		item.IsWeightBased, item.IsMultiPack)
	return insertID(res, err, "line item")
}

func (t *Tx) LineItemsByReceipt(ctx context.Context, receiptID int64) ([]models.LineItem, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, receipt_id, product_id, position, raw_name, normalized_name, quantity, unit,
		       unit_price, total_price, discount, discount_label, tax_category, is_weight_based, is_multi_pack
		FROM line_items
		WHERE receipt_id = ?
		ORDER BY position
	`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var li models.LineItem
		if err := rows.Scan(&li.ID, &li.ReceiptID, &li.ProductID, &li.Position, &li.RawName, &li.NormalizedName,
			&li.Quantity, &li.Unit, &li.UnitPrice, &li.TotalPrice, &li.Discount, &li.DiscountLabel,
			&li.TaxCategory, &li.IsWeightBased, &li.IsMultiPack); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, li)
	}
	return items, rows.Err()
}
