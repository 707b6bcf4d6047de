package handler

import (
	"net/http"
	"strconv"

	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"
	"github.com/lorenzotomasdiez/ArcAPI/internal/middleware"
	"github.com/lorenzotomasdiez/ArcAPI/internal/service"

	"github.com/gin-gonic/gin"
)

type CertificatesHandler struct{ svc service.CertificateService }

func NewCertificatesHandler(svc service.CertificateService) *CertificatesHandler {
	return &CertificatesHandler{svc: svc}
}

// Create uploads a certificate + key pair (POST /v1/certificates).
// Key material is validated and stored but never echoed back.
func (h *CertificatesHandler) Create(c *gin.Context) {
	var req dto.CreateCertificateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateCertificate(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List returns the user's certificates (GET /v1/certificates).
func (h *CertificatesHandler) List(c *gin.Context) {
	resp, err := h.svc.ListCertificates(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExpiringSoon lists active certificates close to expiry
// (GET /v1/certificates/expiring?days=30).
func (h *CertificatesHandler) ExpiringSoon(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	resp, err := h.svc.ExpiringSoon(c.Request.Context(), middleware.UserID(c), days)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate retires a certificate (DELETE /v1/certificates/:id).
func (h *CertificatesHandler) Deactivate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivateCertificate(c.Request.Context(), middleware.UserID(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
