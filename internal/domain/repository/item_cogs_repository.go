package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// ItemCogsRepository puerto del libro de lotes de costo y sus consumos.
// Un lote nunca se borra mientras exista su línea de entrada; consumir es decrementar Qty.
type ItemCogsRepository interface {
	Create(ctx context.Context, lot *entity.ItemCogs) error
	// GetByDetail lote creado por una línea de entrada; domain.ErrNotFound si no hay.
	GetByDetail(ctx context.Context, transactionDetailID string) (*entity.ItemCogs, error)
	// UpdateSource reescribe fecha, cantidad original, remanente y costo conservando ID y CreatedAt.
	UpdateSource(ctx context.Context, lot *entity.ItemCogs) error
	ListByItem(ctx context.Context, unitID, itemID string) ([]entity.ItemCogs, error)
	// ListConsumable lotes con Qty > 0 y Date <= asOf, del más antiguo al más reciente.
	ListConsumable(ctx context.Context, unitID, itemID string, asOf time.Time) ([]entity.ItemCogs, error)
	UpdateQty(ctx context.Context, id string, qty decimal.Decimal) error
	// DeleteByDetail elimina los lotes creados por una línea de entrada y los consumos que apuntan a ellos.
	DeleteByDetail(ctx context.Context, transactionDetailID string) error

	ListConsumptions(ctx context.Context, unitID, itemID string) ([]entity.ItemCogsDetail, error)
	CreateConsumptions(ctx context.Context, edges []entity.ItemCogsDetail) error
	DeleteConsumptions(ctx context.Context, ids []string) error
}
