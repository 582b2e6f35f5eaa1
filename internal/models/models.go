package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unit values for LineItem.Unit and PriceHistoryEntry.Unit
const (
	UnitKilogram = "kg"
	UnitEach     = "each"
)

// Store is a shop location identified by its branch code
type Store struct {
	ID        int64
	Code      string // "Filiale" number printed on the receipt
	Name      string
	CreatedAt time.Time
}

// TaxTotal is one "<letter>: <rate>% MwSt ... = <amount>" summary line
type TaxTotal struct {
	Category string
	Rate     decimal.Decimal
	Amount   decimal.Decimal
}

// Receipt is one parsed purchase. It is never modified after ingestion.
type Receipt struct {
	ID             int64
	PurchasedAt    time.Time
	StoreID        int64 // 0 when the receipt carries no branch code
	StoreCode      string
	RegisterNumber string
	BonNumber      string
	ReceiptNumber  string
	Total          decimal.Decimal
	Savings        decimal.Decimal
	TaxTotals      []TaxTotal
	PointsEarned   int
	PointsRedeemed int // always non-negative
	Items          []LineItem
	CreatedAt      time.Time
}

// ItemsTotal sums the line totals minus attached discounts
func (r Receipt) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range r.Items {
		sum = sum.Add(item.NetPrice())
	}
	return sum
}

// LineItem is one purchased article line
type LineItem struct {
	ID             int64
	ReceiptID      int64
	ProductID      int64
	Position       int // 0-based, receipt order
	RawName        string
	NormalizedName string
	Quantity       decimal.Decimal
	Unit           string // "kg" or "each"
	UnitPrice      decimal.Decimal
	TotalPrice     decimal.Decimal
	Discount       decimal.Decimal // always >= 0
	DiscountLabel  string
	TaxCategory    string
	IsWeightBased  bool
	IsMultiPack    bool
}

// NetPrice returns the total price after the attached discount
func (li LineItem) NetPrice() decimal.Decimal {
	return li.TotalPrice.Sub(li.Discount)
}

// Product is the canonical identity for one grocery article across receipts
type Product struct {
	ID            int64
	NormalizedKey string
	DisplayName   string
	Brand         string // empty when no brand is known
	PurchaseCount int
	AvgUnitPrice  decimal.Decimal
	LastUnitPrice decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasBrand reports whether a brand has been recorded
func (p Product) HasBrand() bool {
	return p.Brand != ""
}

// PriceHistoryEntry is one immutable price observation, one per LineItem
type PriceHistoryEntry struct {
	ID          int64
	ProductID   int64
	LineItemID  int64
	PurchasedAt time.Time
	StoreID     int64
	UnitPrice   decimal.Decimal
	Quantity    decimal.Decimal
	Unit        string
}

type Job struct {
	ID          int64
	JobType     string
	Payload     string // JSON payload
	Status      string // pending, running, completed, failed
	Progress    int    // 0-100
	Result      string // JSON result or error message
	Attempts    int
	MaxAttempts int
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}
