package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/medico/backend/internal/infrastructure/logger"
	"github.com/medico/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrNotOwner is returned when a vendor edits another vendor's product
var ErrNotOwner = shared.ErrForbidden.WithMessage("You can only modify your own products")

// ErrProductNotFound is returned for unknown product ids
var ErrProductNotFound = shared.ErrNotFound.WithMessage("Medicine not found")

// ProductService handles catalog browsing and vendor product management
type ProductService struct {
	productRepo  catalog.Repository
	categoryRepo catalog.CategoryRepository
	storage      ObjectStorageService
	logger       *zap.Logger
}

// NewProductService creates a new ProductService. storage may be nil, which disables image upload.
func NewProductService(
	productRepo catalog.Repository,
	categoryRepo catalog.CategoryRepository,
	storage ObjectStorageService,
	log *zap.Logger,
) *ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		storage:      storage,
		logger:       log.Named("catalog"),
	}
}

// List returns the products matching filter
func (s *ProductService) List(ctx context.Context, filter catalog.Filter) ([]ProductResponse, error) {
	items, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(items), nil
}

// Count returns the number of listed products
func (s *ProductService) Count(ctx context.Context) (int64, error) {
	items, err := s.productRepo.List(ctx, catalog.Filter{})
	if err != nil {
		return 0, err
	}
	return int64(len(items)), nil
}

// GetByID returns one product
func (s *ProductService) GetByID(ctx context.Context, id string) (*ProductResponse, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(item)
	return &resp, nil
}

// Create lists a new product owned by vendorID
func (s *ProductService) Create(ctx context.Context, vendorID string, req CreateProductRequest) (*ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "create")
	defer span.End()

	if req.ID != "" {
		if _, err := s.productRepo.FindByID(ctx, req.ID); err == nil {
			return nil, shared.ErrAlreadyExists.WithMessage("Medicine with this id already exists")
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	if req.Price == nil {
		return nil, shared.ErrInvalidInput.WithMessage("Price is required")
	}
	item, err := catalog.NewItem(req.ID, req.Name, *req.Price)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, req.Category); err != nil {
		return nil, err
	}

	item.Description = strings.TrimSpace(req.Description)
	item.Category = strings.TrimSpace(req.Category)
	item.Manufacturer = strings.TrimSpace(req.Manufacturer)
	item.DrugType = strings.TrimSpace(req.DrugType)
	item.ImageURL = req.ImageURL
	item.VendorID = vendorID
	if req.StockQuantity != nil {
		if err := item.SetStock(*req.StockQuantity); err != nil {
			return nil, err
		}
	}
	if req.Rating != nil {
		if err := item.Rate(*req.Rating); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, item); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Medicine listed",
		zap.String("medicine_id", item.ID),
		zap.String("vendor_id", vendorID),
	)
	resp := ToProductResponse(item)
	return &resp, nil
}

// Update applies the non-nil fields of req
func (s *ProductService) Update(ctx context.Context, vendorID, id string, req UpdateProductRequest) (*ProductResponse, error) {
	item, err := s.owned(ctx, vendorID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := item.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Price != nil {
		if err := item.Reprice(*req.Price); err != nil {
			return nil, err
		}
	}
	if req.Category != nil {
		if err := s.checkCategory(ctx, *req.Category); err != nil {
			return nil, err
		}
		item.Category = strings.TrimSpace(*req.Category)
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Manufacturer != nil {
		item.Manufacturer = strings.TrimSpace(*req.Manufacturer)
	}
	if req.DrugType != nil {
		item.DrugType = strings.TrimSpace(*req.DrugType)
	}
	if req.StockQuantity != nil {
		if err := item.SetStock(*req.StockQuantity); err != nil {
			return nil, err
		}
	}
	if req.Rating != nil {
		if err := item.Rate(*req.Rating); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	resp := ToProductResponse(item)
	return &resp, nil
}

// Delete removes a product
func (s *ProductService) Delete(ctx context.Context, vendorID, id string) error {
	if _, err := s.owned(ctx, vendorID, id); err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Enrich(ctx, s.logger).Info("Medicine delisted", zap.String("medicine_id", id))
	return nil
}

func (s *ProductService) find(ctx context.Context, id string) (*catalog.Item, error) {
	item, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *ProductService) owned(ctx context.Context, vendorID, id string) (*catalog.Item, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.OwnedBy(vendorID) {
		return nil, ErrNotOwner
	}
	return item, nil
}

// checkCategory accepts an empty name or one that matches an existing category
func (s *ProductService) checkCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || s.categoryRepo == nil {
		return nil
	}
	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return nil
		}
	}
	return shared.ErrInvalidInput.WithMessage("Category not found")
}
