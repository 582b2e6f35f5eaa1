// Package catalog resolves purchased line items to stable product identities
// and keeps each product's price history and aggregate statistics.
package catalog

import (
	"context"
	"errors"

	"grocerybooks/internal/models"
)

var ErrNotFound = errors.New("not found")

// Repository is the persistence contract of the ingestion core. Lookups that
// find nothing return (nil, nil); Get* lookups return ErrNotFound instead.
type Repository interface {
	StoreByCode(ctx context.Context, code string) (*models.Store, error)
	CreateStore(ctx context.Context, s *models.Store) (int64, error)

	ReceiptByNumber(ctx context.Context, number string) (*models.Receipt, error)
	// CreateReceipt stores the header and tax totals; items are added separately
	CreateReceipt(ctx context.Context, r *models.Receipt) (int64, error)
	// DeleteReceipt removes the receipt with its line items and price history
	DeleteReceipt(ctx context.Context, id int64) error

	CreateLineItem(ctx context.Context, item *models.LineItem) (int64, error)
	LineItemsByReceipt(ctx context.Context, receiptID int64) ([]models.LineItem, error)

	// ProductByKey returns the lowest-id product with the key
	ProductByKey(ctx context.Context, key string) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) (int64, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	AddPriceHistory(ctx context.Context, e *models.PriceHistoryEntry) (int64, error)
	// PriceHistory returns a product's entries in insertion order
	PriceHistory(ctx context.Context, productID int64) ([]models.PriceHistoryEntry, error)
	// ReassignProduct moves line items and price history between products
	ReassignProduct(ctx context.Context, fromID, toID int64) error
}

// TxRunner runs fn inside one transaction: everything fn wrote is committed
// when it returns nil and discarded when it returns an error.
type TxRunner interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
}
