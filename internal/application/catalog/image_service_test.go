package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medico/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func imageRequest(contentType string, size int64) UploadImageRequest {
	return UploadImageRequest{
		Filename:    "Front Label.PNG",
		ContentType: contentType,
		Size:        size,
		Body:        strings.NewReader("png-bytes"),
	}
}

func TestUploadImage(t *testing.T) {
	repo := new(MockProductRepository)
	storage := new(MockObjectStorage)
	svc := NewProductService(repo, nil, storage, zap.NewNop())

	repo.On("FindByID", mock.Anything, "1").Return(newItem("1", "Paracetamol", 50, "vendor-1"), nil)
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "products/1/") && strings.HasSuffix(key, "-front-label.png")
	}), mock.Anything, int64(9), "image/png").Return(nil)
	storage.On("PublicURL", mock.Anything).Return("https://cdn.example.com/products/1/x.png")
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.UploadImage(context.Background(), "vendor-1", "1", imageRequest("image/png", 9))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/products/1/x.png", resp.ImageURL)
	storage.AssertExpectations(t)
}

func TestUploadImage_Rejections(t *testing.T) {
	repo := new(MockProductRepository)
	storage := new(MockObjectStorage)
	svc := NewProductService(repo, nil, storage, nil)
	ctx := context.Background()

	_, err := svc.UploadImage(ctx, "v", "1", imageRequest("image/svg+xml", 9))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.UploadImage(ctx, "v", "1", imageRequest("image/png", MaxImageSize+1))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadImage_StorageFailure(t *testing.T) {
	repo := new(MockProductRepository)
	storage := new(MockObjectStorage)
	svc := NewProductService(repo, nil, storage, nil)

	repo.On("FindByID", mock.Anything, "1").Return(newItem("1", "Paracetamol", 50, ""), nil)
	storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket missing"))

	_, err := svc.UploadImage(context.Background(), "v", "1", imageRequest("image/jpeg", 9))
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Contains(t, err.Error(), "Upload failed")
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUploadImage_SaveFailureRemovesObject(t *testing.T) {
	repo := new(MockProductRepository)
	storage := new(MockObjectStorage)
	svc := NewProductService(repo, nil, storage, nil)

	repo.On("FindByID", mock.Anything, "1").Return(newItem("1", "Paracetamol", 50, ""), nil)
	storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	storage.On("PublicURL", mock.Anything).Return("https://cdn/x.png")
	storage.On("DeleteObject", mock.Anything, mock.Anything).Return(nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.UploadImage(context.Background(), "v", "1", imageRequest("image/webp", 9))
	require.Error(t, err)
	storage.AssertCalled(t, "DeleteObject", mock.Anything, mock.Anything)
}

func TestUploadImage_NoStorage(t *testing.T) {
	svc := NewProductService(new(MockProductRepository), nil, nil, nil)
	_, err := svc.UploadImage(context.Background(), "v", "1", imageRequest("image/png", 9))
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestImageKey(t *testing.T) {
	key := ImageKey("abc 1", "../../etc/passwd", ".png")
	assert.True(t, strings.HasPrefix(key, "products/abc-1/"))
	assert.True(t, strings.HasSuffix(key, "-passwd.png"))
	assert.NotContains(t, key, "..")

	key = ImageKey("1", "???.jpg", ".jpg")
	assert.True(t, strings.HasSuffix(key, "-image.jpg"))
}
