package guard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/internal/application/guard"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/memory"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// ──────────────────────────────────────────────────────────────────────────────
// Cierre financiero
// ──────────────────────────────────────────────────────────────────────────────

func TestClosingGuard_FechaEnOAntesDelCierreEstaBloqueada(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	s.AddClosing(entity.FinancialClosing{ID: "c1", UnitID: "u", EntryDate: date(2023, 12, 31)})
	s.AddClosing(entity.FinancialClosing{ID: "c2", UnitID: "u", EntryDate: date(2024, 1, 31)})
	g := guard.NewClosingGuard(zerolog.Nop())

	tests := []struct {
		name   string
		entry  time.Time
		locked bool
	}{
		{"antes del cierre", date(2024, 1, 15), true},
		{"mismo día del cierre", date(2024, 1, 31).Add(18 * time.Hour), true},
		{"día siguiente", date(2024, 2, 1), false},
	}
	require.NoError(t, s.Run(ctx, func(uow repository.UnitOfWork) error {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				locked, err := g.IsEntryDateLocked(ctx, uow.Closings(), "u", tt.entry)
				require.NoError(t, err)
				assert.Equal(t, tt.locked, locked)
			})
		}
		err := g.EnsureOpen(ctx, uow.Closings(), "u", date(2024, 2, 1), date(2024, 1, 15))
		assert.True(t, errors.Is(err, domain.ErrPeriodClosed))

		locked, err := g.IsEntryDateLocked(ctx, uow.Closings(), "otra-unidad", date(2000, 1, 1))
		require.NoError(t, err)
		assert.False(t, locked, "sin cierres nada está bloqueado")
		return nil
	}))
}

// ──────────────────────────────────────────────────────────────────────────────
// Secuenciador
// ──────────────────────────────────────────────────────────────────────────────

func TestSequencer_CommitAvanzaLastCode(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seq := guard.NewSequencer(s)
	jan := date(2024, 1, 10)

	require.NoError(t, s.Run(ctx, func(uow repository.UnitOfWork) error {
		next, err := seq.Peek(ctx, uow.Prefixes(), "u", entity.TransactionTypeSaleInvoice, jan)
		require.NoError(t, err)
		assert.Equal(t, "SI/202401/00000001", next)

		require.NoError(t, seq.Commit(ctx, uow.Prefixes(), "u", entity.TransactionTypeSaleInvoice, "SI/202401/00000001"))
		require.NoError(t, seq.Commit(ctx, uow.Prefixes(), "u", entity.TransactionTypeSaleInvoice, "SI/202401/00000002"))
		// nunca retrocede
		require.NoError(t, seq.Commit(ctx, uow.Prefixes(), "u", entity.TransactionTypeSaleInvoice, "SI/202401/00000001"))

		p, err := uow.Prefixes().Get(ctx, "u", entity.TransactionTypeSaleInvoice)
		require.NoError(t, err)
		assert.Equal(t, int64(2), p.LastCode)
		return nil
	}))
}

func TestSequencer_IntentoAbortadoNoReusaNumero(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seq := guard.NewSequencer(s)
	jan := date(2024, 1, 10)

	require.NoError(t, s.Run(ctx, func(uow repository.UnitOfWork) error {
		return seq.Commit(ctx, uow.Prefixes(), "u", entity.TransactionTypeSaleInvoice, "SI/202401/00000002")
	}))

	third, err := seq.Reserve(ctx, "u", entity.TransactionTypeSaleInvoice, jan)
	require.NoError(t, err)
	assert.Equal(t, "SI/202401/00000003", third)

	// la transacción que usaba el 3 aborta: la reserva sobrevive
	_ = s.Run(ctx, func(uow repository.UnitOfWork) error {
		_ = seq.Commit(ctx, uow.Prefixes(), "u", entity.TransactionTypeSaleInvoice, third)
		return errors.New("abort")
	})

	require.NoError(t, s.Run(ctx, func(uow repository.UnitOfWork) error {
		next, err := seq.Peek(ctx, uow.Prefixes(), "u", entity.TransactionTypeSaleInvoice, jan)
		require.NoError(t, err)
		assert.Equal(t, "SI/202401/00000004", next)

		p, err := uow.Prefixes().Get(ctx, "u", entity.TransactionTypeSaleInvoice)
		require.NoError(t, err)
		assert.Equal(t, int64(2), p.LastCode)
		return nil
	}))

	fourth, err := seq.Reserve(ctx, "u", entity.TransactionTypeSaleInvoice, jan)
	require.NoError(t, err)
	assert.Equal(t, "SI/202401/00000004", fourth)
}

func TestSequencer_PrefijoConfiguradoSeNormaliza(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seq := guard.NewSequencer(s)

	require.NoError(t, s.Run(ctx, func(uow repository.UnitOfWork) error {
		require.NoError(t, uow.Prefixes().Save(ctx, &entity.Prefix{ID: "p", UnitID: "u",
			TransactionType: entity.TransactionTypePurchaseInvoice, Prefix: " fc ", LastCode: 41}))
		next, err := seq.Peek(ctx, uow.Prefixes(), "u", entity.TransactionTypePurchaseInvoice, date(2024, 11, 3))
		require.NoError(t, err)
		assert.Equal(t, "FC/202411/00000042", next)
		return nil
	}))
}

func TestParseSequence(t *testing.T) {
	n, ok := guard.ParseSequence("SI/202401/00000007")
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)

	_, ok = guard.ParseSequence("MANUAL-A")
	assert.False(t, ok)
}
