package repository

import (
	"context"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// PrefixRepository contador de numeración por (unidad, tipo).
type PrefixRepository interface {
	Get(ctx context.Context, unitID string, txType entity.TransactionType) (*entity.Prefix, error)
	// GetForUpdate igual que Get pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, unitID string, txType entity.TransactionType) (*entity.Prefix, error)
	Save(ctx context.Context, p *entity.Prefix) error
}
