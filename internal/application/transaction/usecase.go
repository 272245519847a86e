// Package transaction orquesta la creación, edición y borrado de transacciones: valida,
// arma líneas, mueve lotes de costo, contabiliza y avanza la numeración dentro de una
// única transacción serializable.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/application/costing"
	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/guard"
	"github.com/jhoicas/Contabilidad-api/internal/application/ledger"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/money"
	"github.com/jhoicas/Contabilidad-api/internal/domain/posting"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

// UseCase orquestador de transacciones.
type UseCase struct {
	runner  repository.TxRunner
	engine  *costing.Engine
	poster  *ledger.Poster
	closing *guard.ClosingGuard
	seq     *guard.Sequencer
	log     zerolog.Logger
	now     func() time.Time
}

// NewUseCase construye el orquestador.
func NewUseCase(
	runner repository.TxRunner,
	engine *costing.Engine,
	poster *ledger.Poster,
	closing *guard.ClosingGuard,
	seq *guard.Sequencer,
	log zerolog.Logger,
) *UseCase {
	return &UseCase{
		runner:  runner,
		engine:  engine,
		poster:  poster,
		closing: closing,
		seq:     seq,
		log:     log,
		now:     time.Now,
	}
}

// Create registra una transacción de cualquier tipo.
func (uc *UseCase) Create(ctx context.Context, unitID, actorID string, in dto.TransactionRequest) (*dto.TransactionResponse, error) {
	txType := entity.TransactionType(strings.ToUpper(strings.TrimSpace(in.TransactionType)))
	kind, err := posting.Lookup(txType)
	if err != nil {
		return nil, err
	}
	entryDate := uc.entryDate(in.EntryDate)

	number := strings.TrimSpace(in.TransactionNumber)
	if number == "" {
		// la reserva se confirma en su propia transacción: si la creación aborta, el número no se reutiliza
		if number, err = uc.seq.Reserve(ctx, unitID, txType, entryDate); err != nil {
			return nil, err
		}
	}

	var out *dto.TransactionResponse
	err = uc.runner.Run(ctx, func(uow repository.UnitOfWork) error {
		if err := uc.ensureUniqueNumber(ctx, uow, unitID, number, ""); err != nil {
			return err
		}
		if err := uc.closing.EnsureOpen(ctx, uow.Closings(), unitID, entryDate); err != nil {
			return err
		}

		raw, err := uc.resolveLines(ctx, uow, kind, unitID, entryDate, "", nil, in.Details)
		if err != nil {
			return err
		}
		details, totals, err := ShapeLineItems(kind, raw)
		if err != nil {
			return err
		}

		now := uc.now().UTC()
		tx := &entity.Transaction{
			ID:                uuid.New().String(),
			UnitID:            unitID,
			TransactionNumber: number,
			TransactionType:   txType,
			EntryDate:         entryDate,
			TermID:            in.TermID,
			ChartOfAccountID:  in.ChartOfAccountID,
			CashRegisterID:    in.CashRegisterID,
			Note:              in.Note,
			CreatedBy:         actorID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := uc.checkRegister(ctx, uow, kind, tx); err != nil {
			return err
		}
		if err := uc.applyHeader(ctx, uow, tx, totals, in.TotalPayment); err != nil {
			return err
		}

		if err := uow.Transactions().Create(ctx, tx); err != nil {
			return fmt.Errorf("crear transacción: %w", err)
		}
		if err := uc.costAndPost(ctx, uow, kind, tx, details, nil, entryDate); err != nil {
			return err
		}
		if err := uc.seq.Commit(ctx, uow.Prefixes(), unitID, txType, number); err != nil {
			return err
		}
		out, err = uc.response(ctx, uow, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("transaction_id", out.ID).Str("number", out.TransactionNumber).
		Str("type", out.TransactionType).Str("unit_id", unitID).
		Msg("transacción registrada")
	return out, nil
}

// Update reemplaza líneas y totales de una transacción existente. El tipo no cambia.
func (uc *UseCase) Update(ctx context.Context, unitID, actorID, id string, in dto.TransactionRequest) (*dto.TransactionResponse, error) {
	var out *dto.TransactionResponse
	err := uc.runner.Run(ctx, func(uow repository.UnitOfWork) error {
		tx, err := uow.Transactions().GetByID(ctx, unitID, id)
		if err != nil {
			return fmt.Errorf("transacción %s: %w", id, err)
		}
		if t := strings.TrimSpace(in.TransactionType); t != "" && entity.TransactionType(strings.ToUpper(t)) != tx.TransactionType {
			return fmt.Errorf("el tipo de transacción no se puede cambiar: %w", domain.ErrInvalidInput)
		}
		kind, err := posting.Lookup(tx.TransactionType)
		if err != nil {
			return err
		}

		oldDate := tx.EntryDate
		entryDate := oldDate
		if in.EntryDate != nil {
			entryDate = uc.entryDate(in.EntryDate)
		}
		if n := strings.TrimSpace(in.TransactionNumber); n != "" && n != tx.TransactionNumber {
			if err := uc.ensureUniqueNumber(ctx, uow, unitID, n, tx.ID); err != nil {
				return err
			}
			tx.TransactionNumber = n
		}
		if err := uc.closing.EnsureOpen(ctx, uow.Closings(), unitID, oldDate, entryDate); err != nil {
			return err
		}

		oldDetails, err := uow.Transactions().ListDetails(ctx, tx.ID)
		if err != nil {
			return fmt.Errorf("líneas anteriores: %w", err)
		}
		known := make(map[string]bool, len(oldDetails))
		for _, d := range oldDetails {
			known[d.ID] = true
		}
		raw, err := uc.resolveLines(ctx, uow, kind, unitID, entryDate, tx.ID, known, in.Details)
		if err != nil {
			return err
		}
		details, totals, err := ShapeLineItems(kind, raw)
		if err != nil {
			return err
		}

		tx.EntryDate = entryDate
		tx.TermID = in.TermID
		if in.ChartOfAccountID != "" {
			tx.ChartOfAccountID = in.ChartOfAccountID
		}
		tx.Note = in.Note
		tx.UpdatedAt = uc.now().UTC()
		if err := uc.applyHeader(ctx, uow, tx, totals, in.TotalPayment); err != nil {
			return err
		}
		if err := uow.Transactions().Update(ctx, tx); err != nil {
			return fmt.Errorf("actualizar transacción: %w", err)
		}

		from := entryDate
		if oldDate.Before(from) {
			from = oldDate
		}
		if err := uc.costAndPost(ctx, uow, kind, tx, details, oldDetails, from); err != nil {
			return err
		}
		if err := uc.seq.Commit(ctx, uow.Prefixes(), unitID, tx.TransactionType, tx.TransactionNumber); err != nil {
			return err
		}
		out, err = uc.response(ctx, uow, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("transaction_id", id).Str("actor_id", actorID).Str("unit_id", unitID).Msg("transacción actualizada")
	return out, nil
}

// Delete elimina la transacción, sus lotes y su libro mayor y recalcula el costo de sus ítems.
func (uc *UseCase) Delete(ctx context.Context, unitID, actorID, id string) error {
	err := uc.runner.Run(ctx, func(uow repository.UnitOfWork) error {
		tx, err := uow.Transactions().GetByID(ctx, unitID, id)
		if err != nil {
			return fmt.Errorf("transacción %s: %w", id, err)
		}
		if err := uc.closing.EnsureOpen(ctx, uow.Closings(), unitID, tx.EntryDate); err != nil {
			return err
		}
		if tx.TransactionType == entity.TransactionTypeOpenRegister {
			open, err := uow.Transactions().FindOpenRegister(ctx, unitID, tx.CashRegisterID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if open == nil || open.ID != tx.ID {
				return fmt.Errorf("la apertura ya tiene cierre de caja: %w", domain.ErrInvalidInput)
			}
		}

		details, err := uow.Transactions().ListDetails(ctx, tx.ID)
		if err != nil {
			return fmt.Errorf("líneas: %w", err)
		}
		for _, d := range details {
			if d.IsInventory() {
				if err := uow.Lots().DeleteByDetail(ctx, d.ID); err != nil {
					return fmt.Errorf("borrar lotes de la línea %d: %w", d.LineNo, err)
				}
			}
		}
		if err := uow.Ledgers().DeleteByTransaction(ctx, tx.ID); err != nil {
			return fmt.Errorf("borrar libro mayor: %w", err)
		}
		if err := uow.Transactions().Delete(ctx, tx.ID); err != nil {
			return fmt.Errorf("borrar transacción: %w", err)
		}

		affected, err := uc.recalculate(ctx, uow, unitID, itemIDs(details), tx.EntryDate)
		if err != nil {
			return err
		}
		return uc.repost(ctx, uow, unitID, affected, "")
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("transaction_id", id).Str("actor_id", actorID).Str("unit_id", unitID).Msg("transacción eliminada")
	return nil
}

// OpenRegister abre una sesión de caja (OPEN_REGISTER).
func (uc *UseCase) OpenRegister(ctx context.Context, unitID, actorID, registerID string, in dto.TransactionRequest) (*dto.TransactionResponse, error) {
	in.TransactionType = string(entity.TransactionTypeOpenRegister)
	in.CashRegisterID = registerID
	return uc.Create(ctx, unitID, actorID, in)
}

// CloseRegister cierra la sesión abierta de la caja (CLOSE_REGISTER); debe abrirla el mismo usuario.
func (uc *UseCase) CloseRegister(ctx context.Context, unitID, actorID, registerID string, in dto.TransactionRequest) (*dto.TransactionResponse, error) {
	in.TransactionType = string(entity.TransactionTypeCloseRegister)
	in.CashRegisterID = registerID
	return uc.Create(ctx, unitID, actorID, in)
}

// RecalculateItem rehace el costeo del ítem desde from y re-contabiliza las transacciones afectadas.
func (uc *UseCase) RecalculateItem(ctx context.Context, unitID, itemID string, from time.Time) (*dto.RecalculateResponse, error) {
	from = guard.DateOnly(from)
	out := &dto.RecalculateResponse{ItemID: itemID}
	err := uc.runner.Run(ctx, func(uow repository.UnitOfWork) error {
		if _, err := uow.Items().GetItem(ctx, unitID, itemID); err != nil {
			return fmt.Errorf("ítem %s: %w", itemID, err)
		}
		if err := uc.closing.EnsureOpen(ctx, uow.Closings(), unitID, from); err != nil {
			return err
		}
		res, err := uc.engine.Recalculate(ctx, uow, unitID, itemID, from)
		if err != nil {
			return err
		}
		out.Lines = res.Lines
		out.Affected = res.Affected
		return uc.repost(ctx, uow, unitID, res.Affected, "")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// NextNumber vista previa del siguiente número, sin reservarlo.
func (uc *UseCase) NextNumber(ctx context.Context, unitID string, txType entity.TransactionType, date time.Time) (string, error) {
	if _, err := posting.Lookup(txType); err != nil {
		return "", err
	}
	var number string
	err := uc.runner.Run(ctx, func(uow repository.UnitOfWork) error {
		var err error
		number, err = uc.seq.Peek(ctx, uow.Prefixes(), unitID, txType, date)
		return err
	})
	return number, err
}

// ReserveNumber reserva el siguiente número; un intento abortado no lo libera.
func (uc *UseCase) ReserveNumber(ctx context.Context, unitID string, txType entity.TransactionType, date time.Time) (string, error) {
	if _, err := posting.Lookup(txType); err != nil {
		return "", err
	}
	return uc.seq.Reserve(ctx, unitID, txType, date)
}

// ─── pasos internos ─────────────────────────────────────────────────────────

func (uc *UseCase) entryDate(in *time.Time) time.Time {
	if in == nil || in.IsZero() {
		return guard.DateOnly(uc.now())
	}
	return guard.DateOnly(*in)
}

func (uc *UseCase) ensureUniqueNumber(ctx context.Context, uow repository.UnitOfWork, unitID, number, excludeID string) error {
	exists, err := uow.Transactions().NumberExists(ctx, unitID, number, excludeID)
	if err != nil {
		return fmt.Errorf("validar número: %w", err)
	}
	if exists {
		return fmt.Errorf("%s: %w", number, domain.ErrDuplicateTransactionNumber)
	}
	return nil
}

// resolveLines completa ItemID y conversión desde la unidad de medida. En conteos físicos la
// cantidad pasa a ser la diferencia contra la existencia a la fecha (sin contar esta transacción).
// Sólo se conservan IDs de líneas que ya pertenecen a la transacción (known).
func (uc *UseCase) resolveLines(ctx context.Context, uow repository.UnitOfWork, kind posting.Kind, unitID string, entryDate time.Time, excludeTxID string, known map[string]bool, lines []dto.TransactionDetailRequest) ([]RawLine, error) {
	raw := make([]RawLine, 0, len(lines))
	used := map[string]bool{}
	for i, l := range lines {
		r := RawLine{
			ID:               l.ID,
			MultipleUomID:    l.MultipleUomID,
			ChartOfAccountID: l.ChartOfAccountID,
			QtyInput:         l.QtyInput,
			ConversionQty:    l.ConversionQty,
			PriceInput:       l.PriceInput,
			DiscountInput:    l.DiscountInput,
			TaxRate:          l.TaxRate,
			Debit:            l.Debit,
			Credit:           l.Credit,
		}
		if !known[r.ID] || used[r.ID] {
			r.ID = ""
		}
		used[r.ID] = true
		if r.MultipleUomID != "" {
			uom, err := uow.Items().GetMultipleUom(ctx, r.MultipleUomID)
			if err != nil {
				return nil, fmt.Errorf("línea %d: unidad de medida %s: %w", i+1, r.MultipleUomID, err)
			}
			if _, err := uow.Items().GetItem(ctx, unitID, uom.ItemID); err != nil {
				return nil, fmt.Errorf("línea %d: ítem %s: %w", i+1, uom.ItemID, err)
			}
			r.ItemID = uom.ItemID
			if !r.ConversionQty.IsPositive() {
				r.ConversionQty = uom.ConversionQty
			}
			if kind.CountedQty {
				onHand, err := uc.engine.OnHand(ctx, uow, unitID, r.ItemID, entryDate, excludeTxID)
				if err != nil {
					return nil, err
				}
				r.QtyInput = money.Qty(r.QtyInput, r.ConversionQty).Sub(onHand)
				r.ConversionQty = decimal.NewFromInt(1)
			}
		}
		raw = append(raw, r)
	}
	return raw, nil
}

func (uc *UseCase) checkRegister(ctx context.Context, uow repository.UnitOfWork, kind posting.Kind, tx *entity.Transaction) error {
	switch kind.Type {
	case entity.TransactionTypeOpenRegister, entity.TransactionTypeCloseRegister:
	default:
		return nil
	}
	if tx.CashRegisterID == "" {
		return fmt.Errorf("caja requerida: %w", domain.ErrInvalidInput)
	}
	open, err := uow.Transactions().FindOpenRegister(ctx, tx.UnitID, tx.CashRegisterID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("sesión de caja: %w", err)
	}
	if kind.Type == entity.TransactionTypeOpenRegister {
		if open != nil {
			return fmt.Errorf("caja %s: %w", tx.CashRegisterID, domain.ErrRegisterAlreadyOpen)
		}
		return nil
	}
	if open == nil || open.CreatedBy != tx.CreatedBy {
		return fmt.Errorf("caja %s: %w", tx.CashRegisterID, domain.ErrNoOpenRegister)
	}
	tx.TransactionParentID = open.ID
	return nil
}

// applyHeader totales, vencimiento y pago de la cabecera.
func (uc *UseCase) applyHeader(ctx context.Context, uow repository.UnitOfWork, tx *entity.Transaction, totals Totals, payment decimal.Decimal) error {
	tx.BeforeTax = totals.BeforeTax
	tx.TaxValue = totals.TaxValue
	tx.Total = totals.Total
	tx.TotalPayment = money.Round(payment)
	tx.UnderPayment = money.Max(tx.Total.Sub(tx.TotalPayment), decimal.Zero)
	tx.Change = money.Max(tx.TotalPayment.Sub(tx.Total), decimal.Zero)
	tx.DueDate = nil
	if tx.TermID == "" {
		return nil
	}
	term, err := uow.Terms().GetByID(ctx, tx.TermID)
	if err != nil {
		return fmt.Errorf("condición de pago %s: %w", tx.TermID, err)
	}
	due := tx.EntryDate.AddDate(0, 0, term.PeriodDays)
	tx.DueDate = &due
	return nil
}

// costAndPost persiste líneas, sincroniza los lotes de entrada, recalcula costos desde from y
// contabiliza la transacción y las transacciones posteriores cuyo costo cambió. Una línea que
// sobrevive a la edición conserva su lote; sólo se borran los lotes de líneas que dejan de ser entrada.
func (uc *UseCase) costAndPost(ctx context.Context, uow repository.UnitOfWork, kind posting.Kind, tx *entity.Transaction, details, oldDetails []entity.TransactionDetail, from time.Time) error {
	inbound := map[string]bool{}
	for _, d := range details {
		if isInboundLot(d) {
			inbound[d.ID] = true
		}
	}
	own := make(map[string]bool, len(oldDetails))
	for _, d := range oldDetails {
		own[d.ID] = true
		if d.IsInventory() && !inbound[d.ID] {
			if err := uow.Lots().DeleteByDetail(ctx, d.ID); err != nil {
				return fmt.Errorf("borrar lotes de la línea %d: %w", d.LineNo, err)
			}
		}
	}
	if kind.AverageInbound {
		for i := range details {
			d := &details[i]
			if !d.IsInventory() || d.Vector != entity.VectorPositive {
				continue
			}
			cost, err := uc.engine.ReturnCost(ctx, uow, tx.UnitID, d.ItemID, tx.EntryDate, own)
			if err != nil {
				return err
			}
			d.Cogs = cost
		}
	}
	if err := uow.Transactions().ReplaceDetails(ctx, tx.ID, details); err != nil {
		return fmt.Errorf("guardar líneas: %w", err)
	}
	for _, d := range details {
		if !isInboundLot(d) {
			continue
		}
		if _, err := uc.engine.SyncLot(ctx, uow.Lots(), costing.LotInput{
			UnitID: tx.UnitID, ItemID: d.ItemID, Qty: d.Qty, UnitCost: d.Cogs, Date: tx.EntryDate, SourceDetailID: d.ID,
		}); err != nil {
			return err
		}
	}

	affected, err := uc.recalculate(ctx, uow, tx.UnitID, itemIDs(append(oldDetails, details...)), from)
	if err != nil {
		return err
	}
	if _, err := uc.poster.Post(ctx, uow, tx.UnitID, tx.ID); err != nil {
		return err
	}
	return uc.repost(ctx, uow, tx.UnitID, affected, tx.ID)
}

func (uc *UseCase) recalculate(ctx context.Context, uow repository.UnitOfWork, unitID string, items []string, from time.Time) ([]string, error) {
	seen := map[string]bool{}
	var affected []string
	for _, itemID := range items {
		res, err := uc.engine.Recalculate(ctx, uow, unitID, itemID, from)
		if err != nil {
			return nil, err
		}
		for _, id := range res.Affected {
			if !seen[id] {
				seen[id] = true
				affected = append(affected, id)
			}
		}
	}
	sort.Strings(affected)
	return affected, nil
}

func (uc *UseCase) repost(ctx context.Context, uow repository.UnitOfWork, unitID string, txIDs []string, skip string) error {
	for _, id := range txIDs {
		if id == skip {
			continue
		}
		if _, err := uc.poster.Post(ctx, uow, unitID, id); err != nil {
			return fmt.Errorf("re-contabilizar %s: %w", id, err)
		}
	}
	return nil
}

func (uc *UseCase) response(ctx context.Context, uow repository.UnitOfWork, tx *entity.Transaction) (*dto.TransactionResponse, error) {
	details, err := uow.Transactions().ListDetails(ctx, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("líneas: %w", err)
	}
	out := &dto.TransactionResponse{
		ID:                  tx.ID,
		UnitID:              tx.UnitID,
		TransactionNumber:   tx.TransactionNumber,
		TransactionType:     string(tx.TransactionType),
		EntryDate:           tx.EntryDate,
		DueDate:             tx.DueDate,
		CashRegisterID:      tx.CashRegisterID,
		TransactionParentID: tx.TransactionParentID,
		BeforeTax:           tx.BeforeTax,
		TaxValue:            tx.TaxValue,
		Total:               tx.Total,
		TotalPayment:        tx.TotalPayment,
		UnderPayment:        tx.UnderPayment,
		Change:              tx.Change,
		Details:             make([]dto.TransactionDetailResponse, 0, len(details)),
	}
	for _, d := range details {
		out.Details = append(out.Details, dto.TransactionDetailResponse{
			ID: d.ID, LineNo: d.LineNo, MultipleUomID: d.MultipleUomID, ItemID: d.ItemID,
			ChartOfAccountID: d.ChartOfAccountID, Qty: d.Qty, Amount: d.Amount, TaxValue: d.TaxValue,
			Total: d.Total, Cogs: d.Cogs, Vector: string(d.Vector),
		})
	}
	return out, nil
}

func isInboundLot(d entity.TransactionDetail) bool {
	return d.IsInventory() && d.Vector == entity.VectorPositive && d.Qty.IsPositive()
}

func itemIDs(details []entity.TransactionDetail) []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range details {
		if d.IsInventory() && !seen[d.ItemID] {
			seen[d.ItemID] = true
			out = append(out, d.ItemID)
		}
	}
	sort.Strings(out)
	return out
}
