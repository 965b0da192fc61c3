package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/medico/backend/internal/application/selection"
	"github.com/medico/backend/internal/domain/checkout"
)

// SelectionHandler serves the signed-in user's server-side selection
type SelectionHandler struct {
	BaseHandler
	selectionService *selection.Service
}

// NewSelectionHandler creates a new SelectionHandler
func NewSelectionHandler(selectionService *selection.Service) *SelectionHandler {
	return &SelectionHandler{selectionService: selectionService}
}

// ToggleRequest names the medicine to add or remove; numbers and strings are both accepted
type ToggleRequest struct {
	MedicineID json.RawMessage `json:"medicineId"`
}

// Get godoc
// @Summary      Get selection
// @Description  Return the signed-in user's selection with its invoice
// @Tags         selection
// @Produce      json
// @Success      200 {object} dto.Response{data=selection.View}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/selection [get]
func (h *SelectionHandler) Get(c *gin.Context) {
	view, err := h.selectionService.Get(c.Request.Context(), getUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Toggle godoc
// @Summary      Toggle a medicine
// @Description  Add the medicine when absent, remove it when present
// @Tags         selection
// @Accept       json
// @Produce      json
// @Param        request body ToggleRequest true "Medicine ID, number or string"
// @Success      200 {object} dto.Response{data=selection.View}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/selection/toggle [post]
func (h *SelectionHandler) Toggle(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, checkout.ErrInvalidSelection.Wrap(err))
		return
	}
	id, err := checkout.ParseID(req.MedicineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	view, err := h.selectionService.Toggle(c.Request.Context(), getUserID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Clear godoc
// @Summary      Clear selection
// @Description  Empty the signed-in user's selection
// @Tags         selection
// @Produce      json
// @Success      204
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/selection [delete]
func (h *SelectionHandler) Clear(c *gin.Context) {
	if err := h.selectionService.Clear(c.Request.Context(), getUserID(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
