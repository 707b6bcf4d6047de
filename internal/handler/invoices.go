package handler

import (
	"net/http"

	"github.com/lorenzotomasdiez/ArcAPI/internal/apierror"
	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"
	"github.com/lorenzotomasdiez/ArcAPI/internal/middleware"
	"github.com/lorenzotomasdiez/ArcAPI/internal/service"

	"github.com/gin-gonic/gin"
)

type InvoicesHandler struct{ svc service.InvoiceService }

func NewInvoicesHandler(svc service.InvoiceService) *InvoicesHandler {
	return &InvoicesHandler{svc: svc}
}

// Create runs the issuance pipeline synchronously and returns the terminal
// state (POST /v1/invoices). A REJECTED invoice is a 201 with status REJECTED;
// only transport and pipeline failures surface as errors.
func (h *InvoicesHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateInvoice(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get returns one invoice with its items (GET /v1/invoices/:id).
func (h *InvoicesHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetInvoice(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List returns a filtered, paginated invoice listing (GET /v1/invoices).
func (h *InvoicesHandler) List(c *gin.Context) {
	var filter dto.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ListInvoices(c.Request.Context(), middleware.UserID(c), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Statistics aggregates issuance outcomes (GET /v1/invoices/statistics).
func (h *InvoicesHandler) Statistics(c *gin.Context) {
	resp, err := h.svc.Statistics(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Retry resubmits an ERROR invoice reusing its number
// (POST /v1/invoices/:id/retry).
func (h *InvoicesHandler) Retry(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.RetryInvoice(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
