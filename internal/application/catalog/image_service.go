package catalog

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/medico/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// MaxImageSize is the largest accepted product image in bytes
const MaxImageSize = 5 << 20

// AllowedImageTypes whitelists product image content types. SVG is excluded because it can carry script.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ErrUploadFailed is the UploadError surfaced to clients
var ErrUploadFailed = shared.NewDomainError("UPLOAD_FAILED", "Upload failed")

// ObjectStorageService stores public product images
type ObjectStorageService interface {
	// Upload stores size bytes read from body under storageKey
	Upload(ctx context.Context, storageKey string, body io.Reader, size int64, contentType string) error
	// PublicURL is the address browsers fetch storageKey from
	PublicURL(storageKey string) string
	DeleteObject(ctx context.Context, storageKey string) error
}

// UploadImage stores an image for product id and records its public URL on the product
func (s *ProductService) UploadImage(ctx context.Context, vendorID, id string, req UploadImageRequest) (*ProductResponse, error) {
	if s.storage == nil {
		return nil, ErrUploadFailed.WithMessage("Upload failed: storage is not configured")
	}
	ext, ok := AllowedImageTypes[strings.ToLower(req.ContentType)]
	if !ok {
		return nil, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("Content type %q is not allowed", req.ContentType))
	}
	if req.Size <= 0 || req.Size > MaxImageSize {
		return nil, shared.ErrInvalidInput.WithMessage("Image must be between 1 byte and 5 MB")
	}

	item, err := s.owned(ctx, vendorID, id)
	if err != nil {
		return nil, err
	}

	key := ImageKey(item.ID, req.Filename, ext)
	log := logger.Enrich(ctx, s.logger)
	if err := s.storage.Upload(ctx, key, req.Body, req.Size, req.ContentType); err != nil {
		log.Error("Failed to upload product image", zap.String("storage_key", key), zap.Error(err))
		return nil, ErrUploadFailed.Wrap(err)
	}

	previous := item.ImageURL
	item.ImageURL = s.storage.PublicURL(key)
	item.UpdatedAt = time.Now()
	if err := s.productRepo.Save(ctx, item); err != nil {
		if delErr := s.storage.DeleteObject(ctx, key); delErr != nil {
			log.Warn("Failed to remove orphaned image", zap.String("storage_key", key), zap.Error(delErr))
		}
		return nil, err
	}

	log.Info("Product image uploaded",
		zap.String("medicine_id", item.ID),
		zap.String("storage_key", key),
		zap.String("previous_url", previous),
	)
	resp := ToProductResponse(item)
	return &resp, nil
}

// ImageKey builds a unique storage key: products/{id}/{uuid}-{sanitized name}{ext}
func ImageKey(productID, filename, ext string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = sanitize(base)
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("products/%s/%s-%s%s", sanitize(productID), uuid.NewString(), base, ext)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}
	if b.Len() > 64 {
		return b.String()[:64]
	}
	return b.String()
}
