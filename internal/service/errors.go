package service

import "errors"

// Typed domain errors. Handlers map these to HTTP statuses with errors.Is;
// anything not listed here is treated as a plain bad request or an internal
// failure depending on origin.
var (
	// ErrCajaYaAbierta: the sede already has an open caja. Callers usually
	// redirect to the existing one instead of showing a failure.
	ErrCajaYaAbierta = errors.New("ya existe una caja abierta en esta sede")

	ErrCajaNoEncontrada = errors.New("caja no encontrada")

	// ErrCajaCerrada: the operation requires an open caja.
	ErrCajaCerrada = errors.New("la caja ya está cerrada")

	ErrMovimientoNoEncontrado = errors.New("movimiento no encontrado")

	// ErrVentasNoDisponibles: the sales aggregation failed or returned no
	// data. Closing is refused outright — defaulting the totals to zero
	// would understate the expected cash and hide a shortfall.
	ErrVentasNoDisponibles = errors.New("ventas del día no disponibles")

	// ErrJustificacionRequerida: the counted cash differs from the expected
	// amount beyond tolerance and no justification was supplied. Not a
	// failure — the caller re-invokes with the justification filled in.
	ErrJustificacionRequerida = errors.New("se requiere justificación para cerrar con diferencia")

	ErrClaveSupervisorInvalida = errors.New("clave de supervisor inválida")
)
