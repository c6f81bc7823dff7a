package handler

import (
	"net/http"
	"strconv"

	"portalpos/internal/apierror"
	"portalpos/internal/dto"
	"portalpos/internal/middleware"
	"portalpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Abrir godoc
// @Summary Abre la caja del día para una sede
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirCajaRequest true "Datos de apertura"
// @Success 201 {object} dto.ReporteCajaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/abrir [post]
func (h *CajaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Abrir(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RegistrarMovimiento godoc
// @Summary Registra un ingreso o egreso manual en caja
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovimientoManualRequest true "Movimiento manual"
// @Success 201 {object} dto.MovimientoResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/movimiento [post]
func (h *CajaHandler) RegistrarMovimiento(c *gin.Context) {
	var req dto.MovimientoManualRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.RegistrarMovimiento(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// MarcarVoucher godoc
// @Summary Marca el voucher de un movimiento como impreso
// @Tags caja
// @Security BearerAuth
// @Param id path string true "ID del movimiento"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/caja/movimiento/{id}/voucher [patch]
func (h *CajaHandler) MarcarVoucher(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	if err := h.svc.MarcarVoucherImpreso(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ProponerCierre godoc
// @Summary Calcula la propuesta de cierre sin persistir nada
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ProponerCierreRequest true "Conteo de efectivo"
// @Success 200 {object} dto.PropuestaCierreResponse
// @Failure 503 {object} apierror.APIError
// @Router /v1/caja/cierre/proponer [post]
func (h *CajaHandler) ProponerCierre(c *gin.Context) {
	var req dto.ProponerCierreRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ProponerCierre(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CerrarCaja godoc
// @Summary Cierra la caja y registra el cierre definitivo
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CerrarCajaRequest true "Cierre declarado"
// @Success 200 {object} dto.CierreResponse
// @Failure 403 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Router /v1/caja/cerrar [post]
func (h *CajaHandler) CerrarCaja(c *gin.Context) {
	var req dto.CerrarCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.CerrarCaja(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetActiva returns the currently open caja for a sede.
func (h *CajaHandler) GetActiva(c *gin.Context) {
	sedeID := c.Query("sede_id")
	if sedeID == "" {
		c.JSON(http.StatusBadRequest, apierror.New("sede_id es obligatorio"))
		return
	}
	resp, err := h.svc.GetActiva(c.Request.Context(), sedeID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerReporte godoc
// @Summary Obtiene el reporte completo de una caja
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de caja"
// @Success 200 {object} dto.ReporteCajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/caja/{id}/reporte [get]
func (h *CajaHandler) ObtenerReporte(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.ObtenerReporte(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial returns a paginated list of cierres for a sede.
func (h *CajaHandler) Historial(c *gin.Context) {
	sedeID := c.Query("sede_id")
	if sedeID == "" {
		c.JSON(http.StatusBadRequest, apierror.New("sede_id es obligatorio"))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	resp, total, err := h.svc.Historial(c.Request.Context(), sedeID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "total": total, "page": page, "limit": limit})
}
