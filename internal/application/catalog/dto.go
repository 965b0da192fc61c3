package catalog

import (
	"io"
	"time"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to list a new medicine
type CreateProductRequest struct {
	ID            string           `json:"id" binding:"omitempty,max=64"`
	Name          string           `json:"name" binding:"required,min=1,max=200"`
	Description   string           `json:"description" binding:"max=2000"`
	Category      string           `json:"category" binding:"max=100"`
	Manufacturer  string           `json:"manufacturedby" binding:"max=200"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	StockQuantity *int             `json:"stockquantity" binding:"omitempty,min=0"`
	DrugType      string           `json:"drugtype" binding:"max=50"`
	ImageURL      string           `json:"imgurl" binding:"omitempty,url"`
	Rating        *float64         `json:"rating" binding:"omitempty,min=0,max=5"`
}

// UpdateProductRequest represents a partial update; nil fields are left unchanged
type UpdateProductRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description   *string          `json:"description" binding:"omitempty,max=2000"`
	Category      *string          `json:"category" binding:"omitempty,max=100"`
	Manufacturer  *string          `json:"manufacturedby" binding:"omitempty,max=200"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int             `json:"stockquantity" binding:"omitempty,min=0"`
	DrugType      *string          `json:"drugtype" binding:"omitempty,max=50"`
	Rating        *float64         `json:"rating" binding:"omitempty,min=0,max=5"`
}

// ProductResponse is a medicine as served to the storefront. Prices are plain JSON numbers.
type ProductResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category,omitempty"`
	Manufacturer  string    `json:"manufacturedby,omitempty"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stockquantity"`
	DrugType      string    `json:"drugtype,omitempty"`
	ImageURL      string    `json:"imgurl,omitempty"`
	Rating        float64   `json:"rating"`
	VendorID      string    `json:"vendor_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToProductResponse converts a domain item
func ToProductResponse(item *catalog.Item) ProductResponse {
	return ProductResponse{
		ID:            item.ID,
		Name:          item.Name,
		Description:   item.Description,
		Category:      item.Category,
		Manufacturer:  item.Manufacturer,
		Price:         item.Price.InexactFloat64(),
		StockQuantity: item.StockQuantity,
		DrugType:      item.DrugType,
		ImageURL:      item.ImageURL,
		Rating:        item.Rating,
		VendorID:      item.VendorID,
		CreatedAt:     item.CreatedAt,
	}
}

// ToProductResponses converts a slice of domain items
func ToProductResponses(items []*catalog.Item) []ProductResponse {
	out := make([]ProductResponse, len(items))
	for i, it := range items {
		out[i] = ToProductResponse(it)
	}
	return out
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UploadImageRequest carries one product image upload
type UploadImageRequest struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
