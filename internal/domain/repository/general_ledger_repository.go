package repository

import (
	"context"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// GeneralLedgerRepository persiste el lote contable de cada transacción (1:1).
type GeneralLedgerRepository interface {
	// Replace borra el lote existente de la transacción (si hay) e inserta gl con sus líneas.
	Replace(ctx context.Context, gl *entity.GeneralLedger) error
	DeleteByTransaction(ctx context.Context, transactionID string) error
	GetByTransaction(ctx context.Context, transactionID string) (*entity.GeneralLedger, error)
}
