package handler

import (
	"net/http"
	"time"

	"portalpos/internal/apierror"
	"portalpos/internal/service"

	"github.com/gin-gonic/gin"
)

type VentasHandler struct{ svc service.VentasService }

func NewVentasHandler(svc service.VentasService) *VentasHandler { return &VentasHandler{svc: svc} }

// TotalesDia godoc
// @Summary Totales de ventas del día por canal de pago
// @Tags ventas
// @Produce json
// @Security BearerAuth
// @Param sede_id query string true "Sede"
// @Param fecha query string false "Fecha (YYYY-MM-DD), hoy por defecto"
// @Success 200 {object} dto.VentasDiaResponse
// @Failure 503 {object} apierror.APIError
// @Router /v1/ventas/dia [get]
func (h *VentasHandler) TotalesDia(c *gin.Context) {
	sedeID := c.Query("sede_id")
	if sedeID == "" {
		c.JSON(http.StatusBadRequest, apierror.New("sede_id es obligatorio"))
		return
	}
	fecha := c.Query("fecha")
	if fecha == "" {
		fecha = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", fecha); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("fecha inválida, formato esperado YYYY-MM-DD"))
		return
	}

	resp, err := h.svc.TotalesDia(c.Request.Context(), sedeID, fecha)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
