package repository

import (
	"context"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// ItemRepository consulta de datos maestros de ítems (sólo lectura).
type ItemRepository interface {
	GetMultipleUom(ctx context.Context, id string) (*entity.MultipleUom, error)
	GetItem(ctx context.Context, unitID, itemID string) (*entity.Item, error)
}

// TermRepository condiciones de pago.
type TermRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Term, error)
}

// SettingRepository configuración general por unidad.
type SettingRepository interface {
	GetByUnit(ctx context.Context, unitID string) (*entity.UnitSetting, error)
}
