package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/medico/backend/internal/application/catalog"
	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/interfaces/http/dto"
)

// ProductHandler handles the medicine catalog endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ProductListQuery holds the listing filters. Multi-valued filters are comma separated.
type ProductListQuery struct {
	Category string `form:"category"`
	Price    string `form:"price"`
	Rating   string `form:"rating"`
	Sort     string `form:"sort"`
	Search   string `form:"search"`
}

// Medicines godoc
// @Summary      List medicines
// @Description  The whole catalog as a bare JSON array, cheapest first
// @Tags         products
// @Produce      json
// @Success      200 {array} catalogapp.ProductResponse
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /medicines [get]
func (h *ProductHandler) Medicines(c *gin.Context) {
	products, err := h.productService.List(c.Request.Context(), catalog.Filter{Sort: catalog.SortPriceAsc})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// List godoc
// @Summary      List products
// @Description  List products with category, price band, rating, search and sort filters
// @Tags         products
// @Produce      json
// @Param        category query string false "Comma separated category names"
// @Param        price query string false "Comma separated bands: under25, 25to50, 50to100, over100"
// @Param        rating query string false "Comma separated minimum ratings"
// @Param        sort query string false "price_asc, price_desc, rating_desc or rating_asc"
// @Param        search query string false "Name contains"
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/catalog/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var q ProductListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}
	filter, err := catalog.ParseFilter(q.Category, q.Price, q.Rating, q.Sort, q.Search)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	products, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, products, len(products))
}

// GetByID godoc
// @Summary      Get product by ID
// @Description  Retrieve a product by its ID
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/catalog/products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	product, err := h.productService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Create godoc
// @Summary      Create a product
// @Description  Add a medicine to the catalog (vendors only)
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateProductRequest true "Product"
// @Success      201 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/catalog/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	product, err := h.productService.Create(c.Request.Context(), getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Update godoc
// @Summary      Update a product
// @Description  Update a product owned by the signed-in vendor
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID"
// @Param        request body catalogapp.UpdateProductRequest true "Changed fields"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/catalog/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	var req catalogapp.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	product, err := h.productService.Update(c.Request.Context(), getUserID(c), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete godoc
// @Summary      Delete a product
// @Description  Remove a product owned by the signed-in vendor
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      204
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/catalog/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.productService.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UploadImage godoc
// @Summary      Upload a product image
// @Description  Store a product image and save its public URL on the product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID"
// @Param        file formData file true "JPEG, PNG, WebP or GIF image"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/catalog/products/{id}/image [post]
func (h *ProductHandler) UploadImage(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "A file field is required")
		return
	}
	if header.Size > catalogapp.MaxImageSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Image must be at most 5 MB")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.HandleError(c, catalogapp.ErrUploadFailed.Wrap(err))
		return
	}
	defer file.Close()

	product, err := h.productService.UploadImage(c.Request.Context(), getUserID(c), c.Param("id"), catalogapp.UploadImageRequest{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
