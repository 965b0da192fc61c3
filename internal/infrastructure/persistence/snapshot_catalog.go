package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/domain/checkout"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultSnapshot is served when no catalog snapshot is configured
const DefaultSnapshot = `[
	{"id": 1, "name": "Paracetamol", "price": 50, "description": "Pain reliever and a fever reducer."},
	{"id": 2, "name": "Ibuprofen", "price": 75, "description": "Nonsteroidal anti-inflammatory drug."},
	{"id": 3, "name": "Amoxicillin", "price": 150, "description": "Antibiotic used to treat bacterial infections."}
]`

type snapshotEntry struct {
	ID            json.RawMessage `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Manufacturer  string          `json:"manufacturedby"`
	StockQuantity int             `json:"stockquantity"`
	DrugType      string          `json:"drugtype"`
	ImageURL      string          `json:"imgurl"`
	Rating        float64         `json:"rating"`
}

// ParseSnapshot decodes a JSON array of medicines. Numeric and string ids are
// both accepted; duplicate ids are rejected.
func ParseSnapshot(raw string) ([]*catalog.Item, error) {
	var entries []snapshotEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("invalid catalog snapshot: %w", err)
	}

	seen := make(map[string]struct{}, len(entries))
	items := make([]*catalog.Item, 0, len(entries))
	for i, e := range entries {
		id, err := checkout.ParseID(e.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid catalog snapshot: entry %d has no usable id", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("invalid catalog snapshot: duplicate id %q", id)
		}
		seen[id] = struct{}{}

		item, err := catalog.NewItem(id, e.Name, e.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid catalog snapshot: entry %q: %w", id, err)
		}
		if err := item.Rate(e.Rating); err != nil {
			return nil, fmt.Errorf("invalid catalog snapshot: entry %q: %w", id, err)
		}
		if err := item.SetStock(e.StockQuantity); err != nil {
			return nil, fmt.Errorf("invalid catalog snapshot: entry %q: %w", id, err)
		}
		item.Description = e.Description
		item.Category = e.Category
		item.Manufacturer = e.Manufacturer
		item.DrugType = e.DrugType
		item.ImageURL = e.ImageURL
		items = append(items, item)
	}
	return items, nil
}

// SnapshotCatalog is an in-process catalog loaded once at start.
// It implements catalog.Repository and catalog.CategoryRepository.
type SnapshotCatalog struct {
	mu         sync.RWMutex
	items      map[string]*catalog.Item
	order      []string
	categories []*catalog.Category
	nextCatID  int64
}

// NewSnapshotCatalog parses raw, falling back to DefaultSnapshot when raw is blank
func NewSnapshotCatalog(raw string) (*SnapshotCatalog, error) {
	if strings.TrimSpace(raw) == "" {
		raw = DefaultSnapshot
	}
	items, err := ParseSnapshot(raw)
	if err != nil {
		return nil, err
	}

	c := &SnapshotCatalog{items: make(map[string]*catalog.Item, len(items))}
	names := map[string]struct{}{}
	for _, item := range items {
		c.items[item.ID] = item
		c.order = append(c.order, item.ID)
		if item.Category != "" {
			if _, ok := names[strings.ToLower(item.Category)]; !ok {
				names[strings.ToLower(item.Category)] = struct{}{}
				c.addCategory(item.Category)
			}
		}
	}
	return c, nil
}

// FindByIDs resolves ids, skipping unknown ones, in the order of ids
func (c *SnapshotCatalog) FindByIDs(_ context.Context, ids []string) ([]*catalog.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]*catalog.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := c.items[id]; ok {
			items = append(items, copyItem(item))
		}
	}
	return items, nil
}

// FindByID returns one item or shared.ErrNotFound
func (c *SnapshotCatalog) FindByID(_ context.Context, id string) (*catalog.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return copyItem(item), nil
}

// List applies filter to the whole snapshot
func (c *SnapshotCatalog) List(_ context.Context, filter catalog.Filter) ([]*catalog.Item, error) {
	return filter.Apply(c.all()), nil
}

// Save inserts or replaces an item
func (c *SnapshotCatalog) Save(_ context.Context, item *catalog.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[item.ID]; !ok {
		c.order = append(c.order, item.ID)
	}
	c.items[item.ID] = copyItem(item)
	return nil
}

// Delete removes an item or returns shared.ErrNotFound
func (c *SnapshotCatalog) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListCategories returns the categories seen in the snapshot plus any created since
func (c *SnapshotCatalog) ListCategories(_ context.Context) ([]*catalog.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*catalog.Category, len(c.categories))
	for i, cat := range c.categories {
		cp := *cat
		out[i] = &cp
	}
	return out, nil
}

// SaveCategory adds a category; names are unique ignoring case
func (c *SnapshotCatalog) SaveCategory(_ context.Context, category *catalog.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.categories {
		if strings.EqualFold(existing.Name, category.Name) {
			return shared.ErrAlreadyExists.WithMessage("Category already exists")
		}
	}
	category.ID = c.addCategory(category.Name).ID
	return nil
}

func (c *SnapshotCatalog) addCategory(name string) *catalog.Category {
	c.nextCatID++
	cat := &catalog.Category{ID: c.nextCatID, Name: name, CreatedAt: time.Now()}
	c.categories = append(c.categories, cat)
	return cat
}

func (c *SnapshotCatalog) all() []*catalog.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]*catalog.Item, 0, len(c.order))
	for _, id := range c.order {
		items = append(items, copyItem(c.items[id]))
	}
	return items
}

func copyItem(item *catalog.Item) *catalog.Item {
	cp := *item
	return &cp
}
