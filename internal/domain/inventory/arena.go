package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// Lot copia en memoria de un ItemCogs dentro de la arena.
type Lot struct {
	ID        string
	Date      time.Time
	CreatedAt time.Time
	Static    decimal.Decimal
	Qty       decimal.Decimal
	Cogs      decimal.Decimal
	loaded    decimal.Decimal
}

// Allocation porción de una salida tomada de un lote (arista de consumo).
type Allocation struct {
	LotID string
	Qty   decimal.Decimal
	Cogs  decimal.Decimal
}

// Arena lotes de un (ítem, unidad) indexados y ordenados por fecha ascendente (FIFO).
// Las aristas de consumo apuntan a un lote por ID; la arena sólo muta cantidades.
type Arena struct {
	lots  []*Lot
	index map[string]int
}

// NewArena construye la arena a partir de los lotes persistidos. Orden: Date, CreatedAt, ID.
func NewArena(lots []entity.ItemCogs) *Arena {
	a := &Arena{lots: make([]*Lot, 0, len(lots)), index: make(map[string]int, len(lots))}
	for _, l := range lots {
		a.lots = append(a.lots, &Lot{
			ID: l.ID, Date: l.Date, CreatedAt: l.CreatedAt,
			Static: l.QtyStatic, Qty: l.Qty, Cogs: l.Cogs, loaded: l.Qty,
		})
	}
	sort.SliceStable(a.lots, func(i, j int) bool {
		li, lj := a.lots[i], a.lots[j]
		if !li.Date.Equal(lj.Date) {
			return li.Date.Before(lj.Date)
		}
		if !li.CreatedAt.Equal(lj.CreatedAt) {
			return li.CreatedAt.Before(lj.CreatedAt)
		}
		return li.ID < lj.ID
	})
	for i, l := range a.lots {
		a.index[l.ID] = i
	}
	return a
}

// Lots devuelve los lotes en orden FIFO.
func (a *Arena) Lots() []*Lot { return a.lots }

// Rebuild vuelve cada lote a su cantidad original y descuenta las aristas dadas.
// El remanente resultante depende sólo de QtyStatic y de las aristas, nunca del estado previo.
func (a *Arena) Rebuild(edges []entity.ItemCogsDetail) error {
	for _, l := range a.lots {
		l.Qty = l.Static
	}
	for _, e := range edges {
		i, ok := a.index[e.ItemCogsID]
		if !ok {
			return fmt.Errorf("consumo %s: lote %s: %w", e.ID, e.ItemCogsID, domain.ErrNotFound)
		}
		a.lots[i].Qty = a.lots[i].Qty.Sub(e.Qty)
	}
	return nil
}

// Available cantidad consumible a la fecha asOf.
func (a *Arena) Available(asOf time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, l := range a.lots {
		if l.Date.After(asOf) || !l.Qty.IsPositive() {
			continue
		}
		total = total.Add(l.Qty)
	}
	return total
}

// Allocate consume need unidades de los lotes más antiguos con fecha <= asOf.
// Si no alcanza devuelve *domain.InsufficientStockError y no muta ningún lote.
func (a *Arena) Allocate(need decimal.Decimal, asOf time.Time) ([]Allocation, error) {
	if !need.IsPositive() {
		return nil, nil
	}
	if avail := a.Available(asOf); avail.LessThan(need) {
		return nil, &domain.InsufficientStockError{Available: avail, Requested: need}
	}
	var allocs []Allocation
	remaining := need
	for _, l := range a.lots {
		if !remaining.IsPositive() {
			break
		}
		if l.Date.After(asOf) || !l.Qty.IsPositive() {
			continue
		}
		take := decimal.Min(remaining, l.Qty)
		l.Qty = l.Qty.Sub(take)
		remaining = remaining.Sub(take)
		allocs = append(allocs, Allocation{LotID: l.ID, Qty: take, Cogs: l.Cogs})
	}
	return allocs, nil
}

// Changed devuelve los lotes cuyo remanente difiere del cargado.
func (a *Arena) Changed() []*Lot {
	var out []*Lot
	for _, l := range a.lots {
		if !l.Qty.Equal(l.loaded) {
			out = append(out, l)
		}
	}
	return out
}
