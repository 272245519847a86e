package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound                   = errors.New("recurso no encontrado")
	ErrInvalidInput               = errors.New("entrada inválida")
	ErrForbidden                  = errors.New("acceso denegado")
	ErrDuplicateTransactionNumber = errors.New("el número de transacción ya existe en la unidad")
	ErrUnbalancedJournalEntry     = errors.New("el asiento no cuadra: débito distinto de crédito")
	ErrInsufficientStock          = errors.New("stock insuficiente")
	ErrPeriodClosed               = errors.New("la fecha pertenece a un periodo con cierre financiero")
	ErrRegisterAlreadyOpen        = errors.New("la caja ya tiene una sesión abierta")
	ErrNoOpenRegister             = errors.New("la caja no tiene una sesión abierta para el usuario")
	ErrUnbalancedLedger           = errors.New("el libro mayor generado no cuadra")
	// ErrRetryable envuelve conflictos de serialización o deadlocks; el caller decide si reintenta.
	ErrRetryable = errors.New("conflicto de concurrencia, reintentar")
)

// InsufficientStockError detalla el faltante de un ítem. errors.Is(err, ErrInsufficientStock) es true.
type InsufficientStockError struct {
	ItemID    string
	ItemName  string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: disponible %s, solicitado %s",
		e.ItemName, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
