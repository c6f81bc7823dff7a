package handler

import (
	"net/http"

	"portalpos/internal/apierror"
	"portalpos/internal/dto"
	"portalpos/internal/service"

	"github.com/gin-gonic/gin"
)

type ConfigHandler struct{ svc service.ConfigService }

func NewConfigHandler(svc service.ConfigService) *ConfigHandler { return &ConfigHandler{svc: svc} }

// Obtener godoc
// @Summary Configuración de caja de una sede
// @Tags config
// @Produce json
// @Security BearerAuth
// @Param sede_id path string true "Sede"
// @Success 200 {object} dto.SedeConfigResponse
// @Router /v1/config/{sede_id} [get]
func (h *ConfigHandler) Obtener(c *gin.Context) {
	cfg, err := h.svc.Obtener(c.Request.Context(), c.Param("sede_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, service.ConfigToResponse(cfg))
}

// Actualizar godoc
// @Summary Actualiza la configuración de caja de una sede
// @Tags config
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sede_id path string true "Sede"
// @Param body body dto.ActualizarConfigRequest true "Campos a modificar"
// @Success 200 {object} dto.SedeConfigResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/config/{sede_id} [put]
func (h *ConfigHandler) Actualizar(c *gin.Context) {
	var req dto.ActualizarConfigRequest
	if !bindAndValidate(c, &req) {
		return
	}
	cfg, err := h.svc.Actualizar(c.Request.Context(), c.Param("sede_id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, service.ConfigToResponse(cfg))
}
