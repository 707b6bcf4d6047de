package handler

import (
	"net/http"
	"strconv"

	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"
	"github.com/lorenzotomasdiez/ArcAPI/internal/middleware"
	"github.com/lorenzotomasdiez/ArcAPI/internal/service"

	"github.com/gin-gonic/gin"
)

type ClientsHandler struct{ svc service.ClientService }

func NewClientsHandler(svc service.ClientService) *ClientsHandler { return &ClientsHandler{svc: svc} }

// Create registers a new invoice counterparty (POST /v1/clients).
func (h *ClientsHandler) Create(c *gin.Context) {
	var req dto.CreateClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateClient(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get returns one client (GET /v1/clients/:id).
func (h *ClientsHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetClient(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List returns the user's active clients, paginated (GET /v1/clients).
func (h *ClientsHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	clients, total, err := h.svc.ListClients(c.Request.Context(), middleware.UserID(c), page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  clients,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Update patches a client (PATCH /v1/clients/:id).
func (h *ClientsHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateClient(c.Request.Context(), middleware.UserID(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete soft-deletes a client (DELETE /v1/clients/:id).
func (h *ClientsHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteClient(c.Request.Context(), middleware.UserID(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
