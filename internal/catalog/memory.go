package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"grocerybooks/internal/models"
)

// MemoryRepository keeps everything in maps. InTx snapshots the state and
// restores it when fn fails, so it honours the same all-or-nothing contract
// as the SQLite store. Used for dry runs and tests.
type MemoryRepository struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time
}

type memState struct {
	nextID   int64
	stores   map[int64]models.Store
	receipts map[int64]models.Receipt
	items    map[int64]models.LineItem
	products map[int64]models.Product
	history  map[int64]models.PriceHistoryEntry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		state: &memState{
			stores:   make(map[int64]models.Store),
			receipts: make(map[int64]models.Receipt),
			items:    make(map[int64]models.LineItem),
			products: make(map[int64]models.Product),
			history:  make(map[int64]models.PriceHistoryEntry),
		},
		now: time.Now,
	}
}

func (m *MemoryRepository) InTx(ctx context.Context, fn func(repo Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(&memTx{st: m.state, now: m.now}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

// MemoryCounts is a row count per entity
type MemoryCounts struct {
	Stores       int
	Receipts     int
	LineItems    int
	Products     int
	PriceHistory int
}

func (m *MemoryRepository) Counts() MemoryCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MemoryCounts{
		Stores:       len(m.state.stores),
		Receipts:     len(m.state.receipts),
		LineItems:    len(m.state.items),
		Products:     len(m.state.products),
		PriceHistory: len(m.state.history),
	}
}

// Products returns all products ordered by id
func (m *MemoryRepository) Products() []models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedValues(m.state.products, func(p models.Product) int64 { return p.ID })
}

func (s *memState) clone() *memState {
	return &memState{
		nextID:   s.nextID,
		stores:   cloneMap(s.stores),
		receipts: cloneMap(s.receipts),
		items:    cloneMap(s.items),
		products: cloneMap(s.products),
		history:  cloneMap(s.history),
	}
}

func cloneMap[V any](in map[int64]V) map[int64]V {
	out := make(map[int64]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedValues[V any](in map[int64]V, id func(V) int64) []V {
	out := make([]V, 0, len(in))
	for _, v := range in {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}

// memTx implements Repository on the locked state
type memTx struct {
	st  *memState
	now func() time.Time
}

func (t *memTx) id() int64 {
	t.st.nextID++
	return t.st.nextID
}

func (t *memTx) StoreByCode(_ context.Context, code string) (*models.Store, error) {
	for _, s := range sortedValues(t.st.stores, func(s models.Store) int64 { return s.ID }) {
		if s.Code == code {
			return &s, nil
		}
	}
	return nil, nil
}

func (t *memTx) CreateStore(_ context.Context, s *models.Store) (int64, error) {
	for _, existing := range t.st.stores {
		if existing.Code == s.Code {
			return 0, fmt.Errorf("insert store: code %s already exists", s.Code)
		}
	}
	stored := *s
	stored.ID = t.id()
	stored.CreatedAt = t.now()
	t.st.stores[stored.ID] = stored
	return stored.ID, nil
}

func (t *memTx) ReceiptByNumber(_ context.Context, number string) (*models.Receipt, error) {
	for _, r := range t.st.receipts {
		if r.ReceiptNumber == number {
			return &r, nil
		}
	}
	return nil, nil
}

func (t *memTx) CreateReceipt(_ context.Context, r *models.Receipt) (int64, error) {
	for _, existing := range t.st.receipts {
		if existing.ReceiptNumber == r.ReceiptNumber {
			return 0, fmt.Errorf("insert receipt: number %s already exists", r.ReceiptNumber)
		}
	}
	stored := *r
	stored.ID = t.id()
	stored.Items = nil
	stored.TaxTotals = append([]models.TaxTotal(nil), r.TaxTotals...)
	stored.CreatedAt = t.now()
	t.st.receipts[stored.ID] = stored
	return stored.ID, nil
}

func (t *memTx) DeleteReceipt(_ context.Context, id int64) error {
	if _, ok := t.st.receipts[id]; !ok {
		return ErrNotFound
	}
	for itemID, item := range t.st.items {
		if item.ReceiptID != id {
			continue
		}
		for hid, e := range t.st.history {
			if e.LineItemID == itemID {
				delete(t.st.history, hid)
			}
		}
		delete(t.st.items, itemID)
	}
	delete(t.st.receipts, id)
	return nil
}

func (t *memTx) CreateLineItem(_ context.Context, item *models.LineItem) (int64, error) {
	if _, ok := t.st.receipts[item.ReceiptID]; !ok {
		return 0, fmt.Errorf("insert line item: receipt %d: %w", item.ReceiptID, ErrNotFound)
	}
	if _, ok := t.st.products[item.ProductID]; !ok {
		return 0, fmt.Errorf("insert line item: product %d: %w", item.ProductID, ErrNotFound)
	}
	stored := *item
	stored.ID = t.id()
	t.st.items[stored.ID] = stored
	return stored.ID, nil
}

func (t *memTx) LineItemsByReceipt(_ context.Context, receiptID int64) ([]models.LineItem, error) {
	var out []models.LineItem
	for _, item := range sortedValues(t.st.items, func(li models.LineItem) int64 { return li.ID }) {
		if item.ReceiptID == receiptID {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (t *memTx) ProductByKey(_ context.Context, key string) (*models.Product, error) {
	for _, p := range sortedValues(t.st.products, func(p models.Product) int64 { return p.ID }) {
		if p.NormalizedKey == key {
			return &p, nil
		}
	}
	return nil, nil
}

func (t *memTx) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	p, ok := t.st.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (t *memTx) ListProducts(_ context.Context) ([]models.Product, error) {
	return sortedValues(t.st.products, func(p models.Product) int64 { return p.ID }), nil
}

func (t *memTx) CreateProduct(_ context.Context, p *models.Product) (int64, error) {
	stored := *p
	stored.ID = t.id()
	stored.CreatedAt = t.now()
	stored.UpdatedAt = stored.CreatedAt
	t.st.products[stored.ID] = stored
	return stored.ID, nil
}

func (t *memTx) UpdateProduct(_ context.Context, p *models.Product) error {
	existing, ok := t.st.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	stored := *p
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = t.now()
	t.st.products[p.ID] = stored
	return nil
}

func (t *memTx) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := t.st.products[id]; !ok {
		return ErrNotFound
	}
	for _, item := range t.st.items {
		if item.ProductID == id {
			return fmt.Errorf("delete product %d: still referenced by line item %d", id, item.ID)
		}
	}
	delete(t.st.products, id)
	return nil
}

func (t *memTx) AddPriceHistory(_ context.Context, e *models.PriceHistoryEntry) (int64, error) {
	for _, existing := range t.st.history {
		if existing.LineItemID == e.LineItemID {
			return 0, fmt.Errorf("insert price history: line item %d already has an entry", e.LineItemID)
		}
	}
	stored := *e
	stored.ID = t.id()
	t.st.history[stored.ID] = stored
	return stored.ID, nil
}

func (t *memTx) PriceHistory(_ context.Context, productID int64) ([]models.PriceHistoryEntry, error) {
	var out []models.PriceHistoryEntry
	for _, e := range sortedValues(t.st.history, func(e models.PriceHistoryEntry) int64 { return e.ID }) {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (t *memTx) ReassignProduct(_ context.Context, fromID, toID int64) error {
	if _, ok := t.st.products[toID]; !ok {
		return fmt.Errorf("reassign to product %d: %w", toID, ErrNotFound)
	}
	for id, item := range t.st.items {
		if item.ProductID == fromID {
			item.ProductID = toID
			t.st.items[id] = item
		}
	}
	for id, e := range t.st.history {
		if e.ProductID == fromID {
			e.ProductID = toID
			t.st.history[id] = e
		}
	}
	return nil
}
