package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// TransactionRepository define el puerto de persistencia para transacciones y sus líneas.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	Update(ctx context.Context, tx *entity.Transaction) error
	// Delete elimina la cabecera, sus líneas y los consumos de esas líneas.
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, unitID, id string) (*entity.Transaction, error)
	// NumberExists indica si el número ya está usado en la unidad por otra transacción distinta de excludeID.
	NumberExists(ctx context.Context, unitID, number, excludeID string) (bool, error)

	ListDetails(ctx context.Context, transactionID string) ([]entity.TransactionDetail, error)
	// ReplaceDetails upsert por ID y borrado de las líneas que ya no vienen.
	ReplaceDetails(ctx context.Context, transactionID string, details []entity.TransactionDetail) error
	UpdateDetailCogs(ctx context.Context, detailID string, cogs decimal.Decimal) error
	// ListOutboundLines salidas de inventario del ítem con EntryDate >= from,
	// ordenadas por (EntryDate, CreatedAt de la transacción, TransactionID, LineNo).
	ListOutboundLines(ctx context.Context, unitID, itemID string, from time.Time) ([]entity.OutboundLine, error)

	// FindOpenRegister devuelve el OPEN_REGISTER de la caja sin CLOSE_REGISTER hijo, o ErrNotFound.
	FindOpenRegister(ctx context.Context, unitID, cashRegisterID string) (*entity.Transaction, error)
}
