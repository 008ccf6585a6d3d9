package services

import "errors"

// Common service errors
var (
	ErrNotFound         = errors.New("registro no encontrado")
	ErrUnauthorized     = errors.New("no autorizado")
	ErrInvalidState     = errors.New("transición de estado inválida")
	ErrDuplicate        = errors.New("registro duplicado")
	ErrInvalidAmount    = errors.New("el monto debe ser mayor que cero")
	ErrExcessAmount     = errors.New("el monto excede el saldo pendiente de la cuota")
	ErrAlreadySettled   = errors.New("la cuota ya está saldada")
	ErrAlreadyVoided    = errors.New("el pago ya fue anulado")
	ErrAlreadyScheduled = errors.New("el préstamo ya tiene un plan de pagos generado")
	ErrNotCollectible   = errors.New("el préstamo no admite pagos en su estado actual")
	ErrBorrowerHasLoans = errors.New("el cliente tiene préstamos activos")
)
