// Package costing implementa el libro de lotes de costo y el motor de costeo (FIFO, AVG, MANUAL),
// incluido el recálculo hacia adelante tras ediciones o borrados con fecha anterior.
package costing

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

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/inventory"
	"github.com/jhoicas/Contabilidad-api/internal/domain/money"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

// edgeNamespace espacio de nombres de los IDs de consumo: (línea de salida, lote) -> mismo ID siempre.
var edgeNamespace = uuid.MustParse("6f1c4a52-9a0e-4c1b-8f5e-2d7b3c9e1a40")

// Engine motor de costeo. No guarda estado propio: todo pasa por la UnitOfWork recibida.
type Engine struct {
	defaultMethod string
	log           zerolog.Logger
	now           func() time.Time
}

// NewEngine construye el motor. defaultMethod se usa si la unidad no tiene configuración.
func NewEngine(defaultMethod string, log zerolog.Logger) *Engine {
	m := strings.ToUpper(strings.TrimSpace(defaultMethod))
	switch m {
	case entity.CostingMethodFIFO, entity.CostingMethodAverage, entity.CostingMethodManual:
	default:
		m = entity.CostingMethodFIFO
	}
	return &Engine{defaultMethod: m, log: log, now: time.Now}
}

// LotInput datos de una entrada de inventario.
type LotInput struct {
	UnitID         string
	ItemID         string
	Qty            decimal.Decimal
	UnitCost       decimal.Decimal
	Date           time.Time
	SourceDetailID string
}

// RecalcResult transacciones cuyas salidas cambiaron de costo (requieren re-contabilizar).
type RecalcResult struct {
	Affected []string
	Lines    int
}

// Method método de costeo vigente de la unidad.
func (e *Engine) Method(ctx context.Context, settings repository.SettingRepository, unitID string) (string, error) {
	s, err := settings.GetByUnit(ctx, unitID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return e.defaultMethod, nil
		}
		return "", fmt.Errorf("configuración de la unidad: %w", err)
	}
	if s.CostingMethod == "" {
		return e.defaultMethod, nil
	}
	return s.CostingMethod, nil
}

// AddLot registra un lote nuevo (Qty = QtyStatic) y devuelve su ID.
func (e *Engine) AddLot(ctx context.Context, lots repository.ItemCogsRepository, in LotInput) (string, error) {
	if !in.Qty.IsPositive() || in.UnitCost.IsNegative() {
		return "", fmt.Errorf("lote de %s: cantidad %s costo %s: %w", in.ItemID, in.Qty, in.UnitCost, domain.ErrInvalidInput)
	}
	lot := &entity.ItemCogs{
		ID:                  uuid.New().String(),
		UnitID:              in.UnitID,
		ItemID:              in.ItemID,
		TransactionDetailID: in.SourceDetailID,
		Qty:                 in.Qty,
		QtyStatic:           in.Qty,
		Cogs:                money.RoundCost(in.UnitCost),
		Date:                in.Date,
		CreatedAt:           e.now().UTC(),
	}
	if err := lots.Create(ctx, lot); err != nil {
		return "", fmt.Errorf("crear lote: %w", err)
	}
	return lot.ID, nil
}

// ListConsumableLots lotes con remanente y fecha <= asOf, del más antiguo al más reciente.
func (e *Engine) ListConsumableLots(ctx context.Context, lots repository.ItemCogsRepository, unitID, itemID string, asOf time.Time) ([]entity.ItemCogs, error) {
	list, err := lots.ListConsumable(ctx, unitID, itemID, asOf)
	if err != nil {
		return nil, fmt.Errorf("lotes consumibles: %w", err)
	}
	return list, nil
}

// SyncLot crea o reescribe el lote de una línea de entrada. Si la línea ya tenía lote del mismo
// ítem se conservan ID y CreatedAt, así el orden FIFO entre lotes de la misma fecha no cambia.
// El remanente vuelve a QtyStatic; el recálculo posterior descuenta los consumos.
func (e *Engine) SyncLot(ctx context.Context, lots repository.ItemCogsRepository, in LotInput) (string, error) {
	if !in.Qty.IsPositive() || in.UnitCost.IsNegative() {
		return "", fmt.Errorf("lote de %s: cantidad %s costo %s: %w", in.ItemID, in.Qty, in.UnitCost, domain.ErrInvalidInput)
	}
	cur, err := lots.GetByDetail(ctx, in.SourceDetailID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("lote de la línea %s: %w", in.SourceDetailID, err)
	}
	if cur == nil {
		return e.AddLot(ctx, lots, in)
	}
	if cur.ItemID != in.ItemID || cur.UnitID != in.UnitID {
		if err := lots.DeleteByDetail(ctx, in.SourceDetailID); err != nil {
			return "", fmt.Errorf("borrar lote de la línea %s: %w", in.SourceDetailID, err)
		}
		return e.AddLot(ctx, lots, in)
	}
	cur.Date = in.Date
	cur.QtyStatic = in.Qty
	cur.Qty = in.Qty
	cur.Cogs = money.RoundCost(in.UnitCost)
	if err := lots.UpdateSource(ctx, cur); err != nil {
		return "", fmt.Errorf("actualizar lote %s: %w", cur.ID, err)
	}
	return cur.ID, nil
}

// AverageCost costo promedio de los lotes abiertos a la fecha asOf. Los lotes de las líneas
// en exclude no cuentan (la propia devolución que se está editando).
func (e *Engine) AverageCost(ctx context.Context, lots repository.ItemCogsRepository, unitID, itemID string, asOf time.Time, exclude map[string]bool) (decimal.Decimal, error) {
	list, err := e.ListConsumableLots(ctx, lots, unitID, itemID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	open := list[:0]
	for _, l := range list {
		if !exclude[l.TransactionDetailID] {
			open = append(open, l)
		}
	}
	return inventory.AverageCost(inventory.NewArena(open).Lots(), asOf), nil
}

// ReturnCost costo unitario de una devolución de venta: promedio de los lotes abiertos y, si no
// queda existencia, el costo de la salida más reciente del ítem con fecha <= asOf.
func (e *Engine) ReturnCost(ctx context.Context, uow repository.UnitOfWork, unitID, itemID string, asOf time.Time, exclude map[string]bool) (decimal.Decimal, error) {
	cost, err := e.AverageCost(ctx, uow.Lots(), unitID, itemID, asOf, exclude)
	if err != nil || cost.IsPositive() {
		return cost, err
	}
	outs, err := uow.Transactions().ListOutboundLines(ctx, unitID, itemID, time.Time{})
	if err != nil {
		return decimal.Zero, fmt.Errorf("salidas: %w", err)
	}
	for i := len(outs) - 1; i >= 0; i-- {
		o := outs[i]
		if o.EntryDate.After(asOf) || exclude[o.Detail.ID] {
			continue
		}
		if o.Detail.Cogs.IsPositive() {
			return o.Detail.Cogs, nil
		}
	}
	return decimal.Zero, nil
}

// OnHand existencia a la fecha asOf: entradas con fecha <= asOf menos salidas con fecha <= asOf.
// Las líneas de excludeTransactionID no cuentan (edición de un conteo físico).
func (e *Engine) OnHand(ctx context.Context, uow repository.UnitOfWork, unitID, itemID string, asOf time.Time, excludeTransactionID string) (decimal.Decimal, error) {
	excluded := map[string]bool{}
	if excludeTransactionID != "" {
		details, err := uow.Transactions().ListDetails(ctx, excludeTransactionID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("líneas a excluir: %w", err)
		}
		for _, d := range details {
			excluded[d.ID] = true
		}
	}
	lots, err := uow.Lots().ListByItem(ctx, unitID, itemID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("lotes: %w", err)
	}
	outs, err := uow.Transactions().ListOutboundLines(ctx, unitID, itemID, time.Time{})
	if err != nil {
		return decimal.Zero, fmt.Errorf("salidas: %w", err)
	}
	total := decimal.Zero
	for _, l := range lots {
		if !l.Date.After(asOf) && !excluded[l.TransactionDetailID] {
			total = total.Add(l.QtyStatic)
		}
	}
	for _, o := range outs {
		if !o.EntryDate.After(asOf) && !excluded[o.Detail.ID] {
			total = total.Sub(o.Detail.Qty.Abs())
		}
	}
	return total, nil
}

// Recalculate rehace el costeo del (unidad, ítem) para toda salida con fecha >= from.
// Los consumos de esas salidas se descartan, los lotes se reconstruyen desde QtyStatic menos
// los consumos conservados y las salidas se vuelven a asignar en orden cronológico.
// Ejecutarlo dos veces seguidas deja el mismo estado. Cualquier faltante aborta todo.
func (e *Engine) Recalculate(ctx context.Context, uow repository.UnitOfWork, unitID, itemID string, from time.Time) (*RecalcResult, error) {
	method, err := e.Method(ctx, uow.Settings(), unitID)
	if err != nil {
		return nil, err
	}
	lots, err := uow.Lots().ListByItem(ctx, unitID, itemID)
	if err != nil {
		return nil, fmt.Errorf("lotes: %w", err)
	}

	var res *RecalcResult
	switch method {
	case entity.CostingMethodFIFO:
		res, err = e.recalculateFIFO(ctx, uow, unitID, itemID, from, lots)
	case entity.CostingMethodAverage, entity.CostingMethodManual:
		res, err = e.recalculateAggregate(ctx, uow, method, unitID, itemID, from, lots)
	default:
		return nil, fmt.Errorf("método de costeo %q: %w", method, domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}
	e.log.Debug().
		Str("unit_id", unitID).Str("item_id", itemID).Str("method", method).
		Time("from", from).Int("lines", res.Lines).Strs("affected", res.Affected).
		Msg("recálculo de costo")
	return res, nil
}

func (e *Engine) recalculateFIFO(ctx context.Context, uow repository.UnitOfWork, unitID, itemID string, from time.Time, lots []entity.ItemCogs) (*RecalcResult, error) {
	outs, err := uow.Transactions().ListOutboundLines(ctx, unitID, itemID, from)
	if err != nil {
		return nil, fmt.Errorf("salidas: %w", err)
	}
	edges, err := uow.Lots().ListConsumptions(ctx, unitID, itemID)
	if err != nil {
		return nil, fmt.Errorf("consumos: %w", err)
	}

	reprocess := make(map[string]bool, len(outs))
	for _, o := range outs {
		reprocess[o.Detail.ID] = true
	}
	var keep []entity.ItemCogsDetail
	var drop []string
	for _, ed := range edges {
		if reprocess[ed.TransactionDetailID] || !ed.Date.Before(from) {
			drop = append(drop, ed.ID)
			continue
		}
		keep = append(keep, ed)
	}

	arena := inventory.NewArena(lots)
	if err := arena.Rebuild(keep); err != nil {
		return nil, err
	}

	affected := map[string]bool{}
	var created []entity.ItemCogsDetail
	for _, o := range outs {
		allocs, err := arena.Allocate(o.Detail.Qty.Abs(), o.EntryDate)
		if err != nil {
			return nil, e.enrichShortage(ctx, uow, unitID, itemID, err)
		}
		for _, a := range allocs {
			created = append(created, entity.ItemCogsDetail{
				ID:                  EdgeID(o.Detail.ID, a.LotID),
				ItemCogsID:          a.LotID,
				TransactionDetailID: o.Detail.ID,
				Qty:                 a.Qty,
				Cogs:                a.Cogs,
				Date:                o.EntryDate,
			})
		}
		if err := e.setCost(ctx, uow, o, inventory.UnitCost(allocs), affected); err != nil {
			return nil, err
		}
	}

	if len(drop) > 0 {
		if err := uow.Lots().DeleteConsumptions(ctx, drop); err != nil {
			return nil, fmt.Errorf("borrar consumos: %w", err)
		}
	}
	if len(created) > 0 {
		if err := uow.Lots().CreateConsumptions(ctx, created); err != nil {
			return nil, fmt.Errorf("crear consumos: %w", err)
		}
	}
	for _, l := range arena.Changed() {
		if err := uow.Lots().UpdateQty(ctx, l.ID, l.Qty); err != nil {
			return nil, fmt.Errorf("actualizar lote %s: %w", l.ID, err)
		}
	}
	return &RecalcResult{Affected: sortedKeys(affected), Lines: len(outs)}, nil
}

// recalculateAggregate AVG y MANUAL: sin consumos por lote, pero cada salida descuenta el
// remanente de los lotes más antiguos para que el promedio sólo vea lotes con existencia.
// Las salidas anteriores a from sólo descuentan; su costo no se toca.
func (e *Engine) recalculateAggregate(ctx context.Context, uow repository.UnitOfWork, method, unitID, itemID string, from time.Time, lots []entity.ItemCogs) (*RecalcResult, error) {
	outs, err := uow.Transactions().ListOutboundLines(ctx, unitID, itemID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("salidas: %w", err)
	}
	var manual decimal.Decimal
	if method == entity.CostingMethodManual {
		it, err := uow.Items().GetItem(ctx, unitID, itemID)
		if err != nil {
			return nil, fmt.Errorf("ítem %s: %w", itemID, err)
		}
		manual = money.RoundCost(it.ManualCost)
	}
	arena := inventory.NewArena(lots)
	if err := arena.Rebuild(nil); err != nil {
		return nil, err
	}

	affected := map[string]bool{}
	lines := 0
	for _, o := range outs {
		cost := manual
		if method == entity.CostingMethodAverage {
			cost = inventory.AverageCost(arena.Lots(), o.EntryDate)
		}
		if _, err := arena.Allocate(o.Detail.Qty.Abs(), o.EntryDate); err != nil {
			return nil, e.enrichShortage(ctx, uow, unitID, itemID, err)
		}
		if o.EntryDate.Before(from) {
			continue
		}
		lines++
		if err := e.setCost(ctx, uow, o, cost, affected); err != nil {
			return nil, err
		}
	}
	for _, l := range arena.Changed() {
		if err := uow.Lots().UpdateQty(ctx, l.ID, l.Qty); err != nil {
			return nil, fmt.Errorf("actualizar lote %s: %w", l.ID, err)
		}
	}
	return &RecalcResult{Affected: sortedKeys(affected), Lines: lines}, nil
}

func (e *Engine) setCost(ctx context.Context, uow repository.UnitOfWork, o entity.OutboundLine, cost decimal.Decimal, affected map[string]bool) error {
	if cost.Equal(o.Detail.Cogs) {
		return nil
	}
	if err := uow.Transactions().UpdateDetailCogs(ctx, o.Detail.ID, cost); err != nil {
		return fmt.Errorf("costo de la línea %s: %w", o.Detail.ID, err)
	}
	affected[o.TransactionID] = true
	return nil
}

func (e *Engine) enrichShortage(ctx context.Context, uow repository.UnitOfWork, unitID, itemID string, err error) error {
	var short *domain.InsufficientStockError
	if !errors.As(err, &short) {
		return err
	}
	short.ItemID = itemID
	short.ItemName = itemID
	if it, ierr := uow.Items().GetItem(ctx, unitID, itemID); ierr == nil && it.Name != "" {
		short.ItemName = it.Name
	}
	return short
}

// EdgeID ID determinista del consumo de una línea de salida sobre un lote.
func EdgeID(detailID, lotID string) string {
	return uuid.NewSHA1(edgeNamespace, []byte(detailID+"/"+lotID)).String()
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
