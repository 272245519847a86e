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

type transactionRepo struct{ st *state }

func (r transactionRepo) Create(_ context.Context, tx *entity.Transaction) error {
	if _, ok := r.st.transactions[tx.ID]; ok {
		return fmt.Errorf("transacción %s ya existe: %w", tx.ID, domain.ErrInvalidInput)
	}
	if r.numberTaken(tx.UnitID, tx.TransactionNumber, tx.ID) {
		return fmt.Errorf("%s: %w", tx.TransactionNumber, domain.ErrDuplicateTransactionNumber)
	}
	r.st.transactions[tx.ID] = *tx
	return nil
}

func (r transactionRepo) Update(_ context.Context, tx *entity.Transaction) error {
	if _, ok := r.st.transactions[tx.ID]; !ok {
		return domain.ErrNotFound
	}
	if r.numberTaken(tx.UnitID, tx.TransactionNumber, tx.ID) {
		return fmt.Errorf("%s: %w", tx.TransactionNumber, domain.ErrDuplicateTransactionNumber)
	}
	r.st.transactions[tx.ID] = *tx
	return nil
}

func (r transactionRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.st.transactions[id]; !ok {
		return domain.ErrNotFound
	}
	for _, d := range r.st.details[id] {
		r.st.dropDetailEdges(d.ID)
	}
	delete(r.st.details, id)
	delete(r.st.transactions, id)
	return nil
}

func (r transactionRepo) GetByID(_ context.Context, unitID, id string) (*entity.Transaction, error) {
	tx, ok := r.st.transactions[id]
	if !ok || tx.UnitID != unitID {
		return nil, domain.ErrNotFound
	}
	return &tx, nil
}

func (r transactionRepo) NumberExists(_ context.Context, unitID, number, excludeID string) (bool, error) {
	return r.numberTaken(unitID, number, excludeID), nil
}

func (r transactionRepo) numberTaken(unitID, number, excludeID string) bool {
	for _, t := range r.st.transactions {
		if t.UnitID == unitID && t.TransactionNumber == number && t.ID != excludeID {
			return true
		}
	}
	return false
}

func (r transactionRepo) ListDetails(_ context.Context, transactionID string) ([]entity.TransactionDetail, error) {
	out := append([]entity.TransactionDetail(nil), r.st.details[transactionID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
	return out, nil
}

func (r transactionRepo) ReplaceDetails(_ context.Context, transactionID string, details []entity.TransactionDetail) error {
	keep := make(map[string]bool, len(details))
	for _, d := range details {
		keep[d.ID] = true
	}
	for _, old := range r.st.details[transactionID] {
		if !keep[old.ID] {
			r.st.dropDetailEdges(old.ID)
		}
	}
	out := make([]entity.TransactionDetail, len(details))
	for i, d := range details {
		d.TransactionID = transactionID
		out[i] = d
	}
	r.st.details[transactionID] = out
	return nil
}

func (r transactionRepo) UpdateDetailCogs(_ context.Context, detailID string, cogs decimal.Decimal) error {
	for txID, list := range r.st.details {
		for i := range list {
			if list[i].ID == detailID {
				r.st.details[txID][i].Cogs = cogs
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (r transactionRepo) ListOutboundLines(_ context.Context, unitID, itemID string, from time.Time) ([]entity.OutboundLine, error) {
	var out []entity.OutboundLine
	for txID, list := range r.st.details {
		tx := r.st.transactions[txID]
		if tx.UnitID != unitID || tx.EntryDate.Before(from) {
			continue
		}
		for _, d := range list {
			if !d.IsInventory() || d.ItemID != itemID || d.Vector != entity.VectorNegative {
				continue
			}
			out = append(out, entity.OutboundLine{
				TransactionID: txID, TransactionCreatedAt: tx.CreatedAt, EntryDate: tx.EntryDate, Detail: d,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.Before(b.EntryDate)
		}
		if !a.TransactionCreatedAt.Equal(b.TransactionCreatedAt) {
			return a.TransactionCreatedAt.Before(b.TransactionCreatedAt)
		}
		if a.TransactionID != b.TransactionID {
			return a.TransactionID < b.TransactionID
		}
		return a.Detail.LineNo < b.Detail.LineNo
	})
	return out, nil
}

func (r transactionRepo) FindOpenRegister(_ context.Context, unitID, cashRegisterID string) (*entity.Transaction, error) {
	closed := map[string]bool{}
	for _, t := range r.st.transactions {
		if t.TransactionType == entity.TransactionTypeCloseRegister && t.TransactionParentID != "" {
			closed[t.TransactionParentID] = true
		}
	}
	var open *entity.Transaction
	for _, t := range r.st.transactions {
		if t.UnitID != unitID || t.CashRegisterID != cashRegisterID ||
			t.TransactionType != entity.TransactionTypeOpenRegister || closed[t.ID] {
			continue
		}
		if open == nil || t.CreatedAt.After(open.CreatedAt) {
			tt := t
			open = &tt
		}
	}
	if open == nil {
		return nil, domain.ErrNotFound
	}
	return open, nil
}

func (s *state) dropDetailEdges(detailID string) {
	for id, e := range s.edges {
		if e.TransactionDetailID == detailID {
			delete(s.edges, id)
		}
	}
}
