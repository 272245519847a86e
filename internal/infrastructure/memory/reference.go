package memory

import (
	"context"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

type prefixRepo struct{ st *state }

func (r prefixRepo) Get(_ context.Context, unitID string, txType entity.TransactionType) (*entity.Prefix, error) {
	p, ok := r.st.prefixes[prefixKey{UnitID: unitID, Type: txType}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// GetForUpdate el lock del store ya serializa a los escritores.
func (r prefixRepo) GetForUpdate(ctx context.Context, unitID string, txType entity.TransactionType) (*entity.Prefix, error) {
	return r.Get(ctx, unitID, txType)
}

func (r prefixRepo) Save(_ context.Context, p *entity.Prefix) error {
	k := prefixKey{UnitID: p.UnitID, Type: p.TransactionType}
	if cur, ok := r.st.prefixes[k]; ok {
		p.ID = cur.ID
		if cur.LastCode > p.LastCode {
			p.LastCode = cur.LastCode
		}
		if cur.LastReserved > p.LastReserved {
			p.LastReserved = cur.LastReserved
		}
	}
	r.st.prefixes[k] = *p
	return nil
}

type closingRepo struct{ st *state }

func (r closingRepo) Latest(_ context.Context, unitID string) (*entity.FinancialClosing, error) {
	var latest *entity.FinancialClosing
	for i := range r.st.closings {
		c := r.st.closings[i]
		if c.UnitID != unitID {
			continue
		}
		if latest == nil || c.EntryDate.After(latest.EntryDate) {
			latest = &c
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

type itemRepo struct{ st *state }

func (r itemRepo) GetMultipleUom(_ context.Context, id string) (*entity.MultipleUom, error) {
	u, ok := r.st.uoms[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r itemRepo) GetItem(_ context.Context, unitID, itemID string) (*entity.Item, error) {
	it, ok := r.st.items[itemID]
	if !ok || (it.UnitID != "" && it.UnitID != unitID) {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

type termRepo struct{ st *state }

func (r termRepo) GetByID(_ context.Context, id string) (*entity.Term, error) {
	t, ok := r.st.terms[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

type settingRepo struct{ st *state }

func (r settingRepo) GetByUnit(_ context.Context, unitID string) (*entity.UnitSetting, error) {
	s, ok := r.st.settings[unitID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}
