package repository

import (
	"context"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// FinancialClosingRepository lectura del último cierre financiero de la unidad.
type FinancialClosingRepository interface {
	// Latest devuelve el cierre con mayor EntryDate, o ErrNotFound si la unidad no tiene cierres.
	Latest(ctx context.Context, unitID string) (*entity.FinancialClosing, error)
}
