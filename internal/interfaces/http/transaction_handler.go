package http

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// TransactionService operaciones del orquestador que expone la API.
type TransactionService interface {
	Create(ctx context.Context, unitID, actorID string, in dto.TransactionRequest) (*dto.TransactionResponse, error)
	Update(ctx context.Context, unitID, actorID, id string, in dto.TransactionRequest) (*dto.TransactionResponse, error)
	Delete(ctx context.Context, unitID, actorID, id string) error
	OpenRegister(ctx context.Context, unitID, actorID, registerID string, in dto.TransactionRequest) (*dto.TransactionResponse, error)
	CloseRegister(ctx context.Context, unitID, actorID, registerID string, in dto.TransactionRequest) (*dto.TransactionResponse, error)
	RecalculateItem(ctx context.Context, unitID, itemID string, from time.Time) (*dto.RecalculateResponse, error)
	NextNumber(ctx context.Context, unitID string, txType entity.TransactionType, date time.Time) (string, error)
	ReserveNumber(ctx context.Context, unitID string, txType entity.TransactionType, date time.Time) (string, error)
}

// TransactionHandler maneja las peticiones HTTP de transacciones, cajas, numeración y recálculo (protegido).
type TransactionHandler struct {
	svc TransactionService
	log zerolog.Logger
}

// NewTransactionHandler construye el handler.
func NewTransactionHandler(svc TransactionService, log zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Registrar transacción
// @Description  Arma las líneas, mueve lotes de costo, contabiliza y asigna número si no viene.
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.TransactionRequest  true  "transaction_type, entry_date, transaction_details"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      423   {object}  dto.ErrorResponse
// @Router       /api/transactions [post]
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	unitID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.TransactionRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.svc.Create(c.UserContext(), unitID, userID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Editar transacción
// @Description  Reemplaza líneas y totales; las líneas con id conservan su lote de costo.
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID de la transacción"
// @Param        body  body      dto.TransactionRequest  true  "Líneas completas de la transacción"
// @Success      200   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      423   {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [put]
func (h *TransactionHandler) Update(c *fiber.Ctx) error {
	unitID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.TransactionRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.svc.Update(c.UserContext(), unitID, userID, c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar transacción
// @Tags         transactions
// @Security     Bearer
// @Param        id   path  string  true  "ID de la transacción"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      423  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	unitID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	if err := h.svc.Delete(c.UserContext(), unitID, userID, c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// OpenRegister godoc
// @Summary      Abrir caja
// @Tags         registers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        registerId  path      string                  true  "ID de la caja"
// @Param        body        body      dto.TransactionRequest  true  "Base de la apertura"
// @Success      201         {object}  dto.TransactionResponse
// @Failure      409         {object}  dto.ErrorResponse
// @Router       /api/registers/{registerId}/open [post]
func (h *TransactionHandler) OpenRegister(c *fiber.Ctx) error {
	return h.register(c, h.svc.OpenRegister)
}

// CloseRegister godoc
// @Summary      Cerrar caja
// @Description  Sólo el usuario que abrió la sesión puede cerrarla.
// @Tags         registers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        registerId  path      string                  true  "ID de la caja"
// @Param        body        body      dto.TransactionRequest  true  "Arqueo del cierre"
// @Success      201         {object}  dto.TransactionResponse
// @Failure      409         {object}  dto.ErrorResponse
// @Router       /api/registers/{registerId}/close [post]
func (h *TransactionHandler) CloseRegister(c *fiber.Ctx) error {
	return h.register(c, h.svc.CloseRegister)
}

type registerOp func(ctx context.Context, unitID, actorID, registerID string, in dto.TransactionRequest) (*dto.TransactionResponse, error)

func (h *TransactionHandler) register(c *fiber.Ctx, op registerOp) error {
	unitID, userID, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.TransactionRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := op(c.UserContext(), unitID, userID, c.Params("registerId"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// NextNumber godoc
// @Summary      Vista previa del siguiente número
// @Tags         prefixes
// @Security     Bearer
// @Produce      json
// @Param        type  path      string  true   "Tipo de transacción, p. ej. SALE_INVOICE"
// @Param        date  query     string  false  "Fecha YYYY-MM-DD. Vacío = hoy."
// @Success      200   {object}  dto.NumberResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/prefixes/{type}/next [get]
func (h *TransactionHandler) NextNumber(c *fiber.Ctx) error {
	return h.number(c, h.svc.NextNumber, fiber.StatusOK)
}

// ReserveNumber godoc
// @Summary      Reservar el siguiente número
// @Tags         prefixes
// @Security     Bearer
// @Produce      json
// @Param        type  path      string  true   "Tipo de transacción, p. ej. SALE_INVOICE"
// @Param        date  query     string  false  "Fecha YYYY-MM-DD. Vacío = hoy."
// @Success      201   {object}  dto.NumberResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/prefixes/{type}/reserve [post]
func (h *TransactionHandler) ReserveNumber(c *fiber.Ctx) error {
	return h.number(c, h.svc.ReserveNumber, fiber.StatusCreated)
}

type numberOp func(ctx context.Context, unitID string, txType entity.TransactionType, date time.Time) (string, error)

func (h *TransactionHandler) number(c *fiber.Ctx, op numberOp, status int) error {
	unitID, _, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "date debe ser YYYY-MM-DD"})
		}
		date = d
	}
	txType := entity.TransactionType(strings.ToUpper(c.Params("type")))
	number, err := op(c.UserContext(), unitID, txType, date)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(status).JSON(dto.NumberResponse{TransactionType: string(txType), Number: number})
}

// RecalculateItem godoc
// @Summary      Recalcular costo de un ítem
// @Description  Rehace el costeo de las salidas con fecha >= from y re-contabiliza las afectadas.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        itemId  path      string                  true  "ID del ítem"
// @Param        body    body      dto.RecalculateRequest  true  "from"
// @Success      200     {object}  dto.RecalculateResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Failure      423     {object}  dto.ErrorResponse
// @Router       /api/items/{itemId}/recalculate [post]
func (h *TransactionHandler) RecalculateItem(c *fiber.Ctx) error {
	unitID, _, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.RecalculateRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.svc.RecalculateItem(c.UserContext(), unitID, c.Params("itemId"), in.From)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

func identity(c *fiber.Ctx) (unitID, userID string, ok bool) {
	unitID, userID = GetUnitID(c), GetUserID(c)
	return unitID, userID, unitID != "" && userID != ""
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
