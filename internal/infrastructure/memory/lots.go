package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

type lotRepo struct{ st *state }

func (r lotRepo) Create(_ context.Context, lot *entity.ItemCogs) error {
	if _, ok := r.st.lots[lot.ID]; ok {
		return fmt.Errorf("lote %s ya existe: %w", lot.ID, domain.ErrInvalidInput)
	}
	r.st.lots[lot.ID] = *lot
	return nil
}

func (r lotRepo) GetByDetail(_ context.Context, transactionDetailID string) (*entity.ItemCogs, error) {
	for _, l := range r.st.lots {
		if l.TransactionDetailID == transactionDetailID {
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r lotRepo) UpdateSource(_ context.Context, lot *entity.ItemCogs) error {
	l, ok := r.st.lots[lot.ID]
	if !ok {
		return domain.ErrNotFound
	}
	l.Date = lot.Date
	l.QtyStatic = lot.QtyStatic
	l.Qty = lot.Qty
	l.Cogs = lot.Cogs
	r.st.lots[lot.ID] = l
	return nil
}

func (r lotRepo) ListByItem(_ context.Context, unitID, itemID string) ([]entity.ItemCogs, error) {
	return r.filter(unitID, itemID, func(entity.ItemCogs) bool { return true }), nil
}

func (r lotRepo) ListConsumable(_ context.Context, unitID, itemID string, asOf time.Time) ([]entity.ItemCogs, error) {
	return r.filter(unitID, itemID, func(l entity.ItemCogs) bool {
		return l.Qty.IsPositive() && !l.Date.After(asOf)
	}), nil
}

func (r lotRepo) filter(unitID, itemID string, keep func(entity.ItemCogs) bool) []entity.ItemCogs {
	var out []entity.ItemCogs
	for _, l := range r.st.lots {
		if l.UnitID == unitID && l.ItemID == itemID && keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r lotRepo) UpdateQty(_ context.Context, id string, qty decimal.Decimal) error {
	l, ok := r.st.lots[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.Qty = qty
	r.st.lots[id] = l
	return nil
}

func (r lotRepo) DeleteByDetail(_ context.Context, transactionDetailID string) error {
	for id, l := range r.st.lots {
		if l.TransactionDetailID != transactionDetailID {
			continue
		}
		for eid, e := range r.st.edges {
			if e.ItemCogsID == id {
				delete(r.st.edges, eid)
			}
		}
		delete(r.st.lots, id)
	}
	return nil
}

func (r lotRepo) ListConsumptions(_ context.Context, unitID, itemID string) ([]entity.ItemCogsDetail, error) {
	var out []entity.ItemCogsDetail
	for _, e := range r.st.edges {
		l, ok := r.st.lots[e.ItemCogsID]
		if ok && l.UnitID == unitID && l.ItemID == itemID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r lotRepo) CreateConsumptions(_ context.Context, edges []entity.ItemCogsDetail) error {
	for _, e := range edges {
		if _, ok := r.st.lots[e.ItemCogsID]; !ok {
			return fmt.Errorf("consumo %s: lote %s: %w", e.ID, e.ItemCogsID, domain.ErrNotFound)
		}
		if _, ok := r.st.edges[e.ID]; ok {
			return fmt.Errorf("consumo %s ya existe: %w", e.ID, domain.ErrInvalidInput)
		}
	}
	for _, e := range edges {
		r.st.edges[e.ID] = e
	}
	return nil
}

func (r lotRepo) DeleteConsumptions(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(r.st.edges, id)
	}
	return nil
}
