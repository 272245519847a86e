package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
)

// errorMapping status y código HTTP de cada error de dominio, en orden de prioridad.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrUnbalancedJournalEntry, fiber.StatusBadRequest, "UNBALANCED_JOURNAL_ENTRY"},
	{domain.ErrUnbalancedLedger, fiber.StatusUnprocessableEntity, "UNBALANCED_LEDGER"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrDuplicateTransactionNumber, fiber.StatusConflict, "DUPLICATE_TRANSACTION_NUMBER"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrRegisterAlreadyOpen, fiber.StatusConflict, "REGISTER_ALREADY_OPEN"},
	{domain.ErrNoOpenRegister, fiber.StatusConflict, "NO_OPEN_REGISTER"},
	{domain.ErrRetryable, fiber.StatusConflict, "RETRYABLE"},
	{domain.ErrPeriodClosed, fiber.StatusLocked, "PERIOD_CLOSED"},
}

// respondError traduce err a una respuesta JSON. Sólo los errores no clasificados se registran.
func respondError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	var short *domain.InsufficientStockError
	if errors.As(err, &short) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: short.Error(),
			Details: dto.InsufficientStockDetails{
				ItemID:    short.ItemID,
				ItemName:  short.ItemName,
				Available: short.Available.String(),
				Requested: short.Requested.String(),
			},
		})
	}
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}
