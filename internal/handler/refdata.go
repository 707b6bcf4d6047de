package handler

import (
	"net/http"

	"github.com/lorenzotomasdiez/ArcAPI/internal/refdata"

	"github.com/gin-gonic/gin"
)

// RefDataHandler serves the static ARCA reference tables.
type RefDataHandler struct{}

func NewRefDataHandler() *RefDataHandler { return &RefDataHandler{} }

func (h *RefDataHandler) InvoiceTypes(c *gin.Context) {
	c.JSON(http.StatusOK, refdata.InvoiceTypes)
}

func (h *RefDataHandler) VATRates(c *gin.Context) {
	c.JSON(http.StatusOK, refdata.VATRates)
}

func (h *RefDataHandler) DocumentTypes(c *gin.Context) {
	c.JSON(http.StatusOK, refdata.DocumentTypes)
}

func (h *RefDataHandler) ConceptTypes(c *gin.Context) {
	c.JSON(http.StatusOK, refdata.ConceptTypes)
}

func (h *RefDataHandler) Currencies(c *gin.Context) {
	c.JSON(http.StatusOK, refdata.Currencies)
}

func (h *RefDataHandler) IVAConditions(c *gin.Context) {
	c.JSON(http.StatusOK, refdata.IVAConditions)
}
