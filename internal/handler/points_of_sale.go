package handler

import (
	"net/http"

	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"
	"github.com/lorenzotomasdiez/ArcAPI/internal/middleware"
	"github.com/lorenzotomasdiez/ArcAPI/internal/service"

	"github.com/gin-gonic/gin"
)

type PointsOfSaleHandler struct{ svc service.PointOfSaleService }

func NewPointsOfSaleHandler(svc service.PointOfSaleService) *PointsOfSaleHandler {
	return &PointsOfSaleHandler{svc: svc}
}

// Create registers a numbered issuing channel (POST /v1/points-of-sale).
func (h *PointsOfSaleHandler) Create(c *gin.Context) {
	var req dto.CreatePointOfSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreatePointOfSale(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get returns one point of sale (GET /v1/points-of-sale/:id).
func (h *PointsOfSaleHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetPointOfSale(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List returns the user's points of sale (GET /v1/points-of-sale).
func (h *PointsOfSaleHandler) List(c *gin.Context) {
	resp, err := h.svc.ListPointsOfSale(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update patches a point of sale (PATCH /v1/points-of-sale/:id).
func (h *PointsOfSaleHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePointOfSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdatePointOfSale(c.Request.Context(), middleware.UserID(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete deactivates a point of sale (DELETE /v1/points-of-sale/:id).
func (h *PointsOfSaleHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeletePointOfSale(c.Request.Context(), middleware.UserID(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
