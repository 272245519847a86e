// Package guard reúne las dos compuertas del orquestador: el cierre financiero por unidad
// y la numeración secuencial por (unidad, tipo de transacción).
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

// ClosingGuard predicado de cierre financiero. No muta estado.
type ClosingGuard struct {
	log zerolog.Logger
}

// NewClosingGuard construye el guard.
func NewClosingGuard(log zerolog.Logger) *ClosingGuard {
	return &ClosingGuard{log: log}
}

// IsEntryDateLocked indica si entryDate cae en o antes del último cierre de la unidad.
// Se compara por día calendario (UTC).
func (g *ClosingGuard) IsEntryDateLocked(ctx context.Context, closings repository.FinancialClosingRepository, unitID string, entryDate time.Time) (bool, error) {
	latest, err := closings.Latest(ctx, unitID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("último cierre financiero: %w", err)
	}
	return !DateOnly(entryDate).After(DateOnly(latest.EntryDate)), nil
}

// EnsureOpen devuelve ErrPeriodClosed si alguna de las fechas está bloqueada.
func (g *ClosingGuard) EnsureOpen(ctx context.Context, closings repository.FinancialClosingRepository, unitID string, dates ...time.Time) error {
	for _, d := range dates {
		locked, err := g.IsEntryDateLocked(ctx, closings, unitID, d)
		if err != nil {
			return err
		}
		if locked {
			g.log.Warn().Str("unit_id", unitID).Time("entry_date", d).Msg("fecha bloqueada por cierre financiero")
			return fmt.Errorf("%s: %w", DateOnly(d).Format(time.DateOnly), domain.ErrPeriodClosed)
		}
	}
	return nil
}

// DateOnly trunca t al día calendario en UTC.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
