package memory

import (
	"context"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

type ledgerRepo struct{ st *state }

func (r ledgerRepo) Replace(_ context.Context, gl *entity.GeneralLedger) error {
	c := *gl
	c.Details = append([]entity.GeneralLedgerDetail(nil), gl.Details...)
	r.st.ledgers[gl.TransactionID] = c
	return nil
}

func (r ledgerRepo) DeleteByTransaction(_ context.Context, transactionID string) error {
	delete(r.st.ledgers, transactionID)
	return nil
}

func (r ledgerRepo) GetByTransaction(_ context.Context, transactionID string) (*entity.GeneralLedger, error) {
	gl, ok := r.st.ledgers[transactionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	gl.Details = append([]entity.GeneralLedgerDetail(nil), gl.Details...)
	return &gl, nil
}
