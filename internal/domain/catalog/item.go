package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Item is a purchasable medicine. The identifier is opaque and unique within the catalog.
type Item struct {
	ID            string          `gorm:"type:varchar(64);primaryKey"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:text"`
	Category      string          `gorm:"type:varchar(100);index"`
	Manufacturer  string          `gorm:"column:manufacturedby;type:varchar(200)"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	StockQuantity int             `gorm:"column:stockquantity;not null;default:0"`
	DrugType      string          `gorm:"column:drugtype;type:varchar(50)"`
	ImageURL      string          `gorm:"column:imgurl;type:text"`
	Rating        float64         `gorm:"not null;default:0"`
	VendorID      string          `gorm:"type:varchar(64);index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "products"
}

// NewItem creates a catalog item; an empty id gets a generated one
func NewItem(id, name string, price decimal.Decimal) (*Item, error) {
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	item := &Item{ID: id, CreatedAt: time.Now()}
	if err := item.Rename(name); err != nil {
		return nil, err
	}
	if err := item.Reprice(price); err != nil {
		return nil, err
	}
	item.UpdatedAt = item.CreatedAt
	return item, nil
}

// Rename sets the display name
func (i *Item) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.ErrInvalidInput.WithMessage("Product name is required")
	}
	if len(name) > 200 {
		return shared.ErrInvalidInput.WithMessage("Product name cannot exceed 200 characters")
	}
	i.Name = name
	return nil
}

// Reprice sets the unit price; prices are never negative
func (i *Item) Reprice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.ErrInvalidInput.WithMessage("Price cannot be negative")
	}
	i.Price = price.Round(2)
	return nil
}

// SetStock sets the quantity on hand
func (i *Item) SetStock(qty int) error {
	if qty < 0 {
		return shared.ErrInvalidInput.WithMessage("Stock quantity cannot be negative")
	}
	i.StockQuantity = qty
	return nil
}

// Rate sets the average rating, 0 to 5 stars
func (i *Item) Rate(rating float64) error {
	if rating < 0 || rating > 5 {
		return shared.ErrInvalidInput.WithMessage("Rating must be between 0 and 5")
	}
	i.Rating = rating
	return nil
}

// OwnedBy reports whether vendorID created the item. Items without an owner
// (seeded or snapshot items) are editable by any vendor.
func (i *Item) OwnedBy(vendorID string) bool {
	return i.VendorID == "" || i.VendorID == vendorID
}

// Index maps item ids to items
type Index map[string]*Item

// NewIndex builds an Index; later duplicates replace earlier ones
func NewIndex(items []*Item) Index {
	idx := make(Index, len(items))
	for _, it := range items {
		idx[it.ID] = it
	}
	return idx
}

// Lookup returns the item for id
func (x Index) Lookup(id string) (*Item, bool) {
	it, ok := x[id]
	return it, ok
}
