package handler

import (
	"errors"
	"net/http"
	"reflect"

	"portalpos/internal/apierror"
	"portalpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondDomainError maps typed service errors to HTTP statuses. Unknown
// errors fall back to 400 so repository internals never leak as 500s for
// ordinary misuse.
func respondDomainError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrCajaYaAbierta), errors.Is(err, service.ErrCajaCerrada):
		status = http.StatusConflict
	case errors.Is(err, service.ErrCajaNoEncontrada), errors.Is(err, service.ErrMovimientoNoEncontrado):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrVentasNoDisponibles):
		status = http.StatusServiceUnavailable
	case errors.Is(err, service.ErrJustificacionRequerida):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrClaveSupervisorInvalida):
		status = http.StatusForbidden
	}
	c.JSON(status, apierror.New(err.Error()))
}
