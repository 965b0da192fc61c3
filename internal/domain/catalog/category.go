package catalog

import (
	"strings"
	"time"

	"github.com/medico/backend/internal/domain/shared"
)

// Category groups items for filtering; names are unique
type Category struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(100);not null;uniqueIndex"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory validates and creates a category
func NewCategory(name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Category name is required")
	}
	if len(name) > 100 {
		return nil, shared.ErrInvalidInput.WithMessage("Category name cannot exceed 100 characters")
	}
	return &Category{Name: name, CreatedAt: time.Now()}, nil
}

// DefaultCategories seeds an empty catalog
var DefaultCategories = []string{
	"Pain Relief",
	"Antibiotics",
	"Vitamins & Supplements",
	"Cold & Flu",
	"Digestive Health",
	"First Aid",
}
