package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/internal/application/ledger"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/posting"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var tornillo = &entity.Item{
	ID: "item-1", UnitID: "u", Name: "Tornillo",
	Accounts: entity.CategoryAccounts{StockAccountID: "1405", CogsAccountID: "6135", SalesAccountID: "4135"},
}

var setting = &entity.UnitSetting{UnitID: "u", TaxOutAccountID: "2408-out", TaxInAccountID: "2408-in"}

// byAccount resume líneas como cuenta/vector -> monto.
func byAccount(lines []entity.GeneralLedgerDetail) map[string]string {
	out := map[string]string{}
	for _, l := range lines {
		out[l.ChartOfAccountID+"/"+string(l.Vector)] = l.Amount.String()
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Derive
// ──────────────────────────────────────────────────────────────────────────────

func TestDerive_VentaConImpuestoYCosto(t *testing.T) {
	kind, err := posting.Lookup(entity.TransactionTypeSaleInvoice)
	require.NoError(t, err)
	tx := &entity.Transaction{ID: "t", ChartOfAccountID: "1105", Total: dec("555")}
	details := []entity.TransactionDetail{{
		ID: "d", LineNo: 1, MultipleUomID: "uom", ItemID: "item-1", Qty: dec("30"),
		Amount: dec("500"), TaxValue: dec("55"), Cogs: dec("10"), Vector: entity.VectorNegative,
	}}

	lines, err := ledger.Derive(kind, tx, details, map[string]*entity.Item{"item-1": tornillo}, setting)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"4135/NEGATIVE":     "500",
		"2408-out/NEGATIVE": "55",
		"6135/POSITIVE":     "300",
		"1405/NEGATIVE":     "300",
		"1105/POSITIVE":     "555",
	}, byAccount(lines))
	require.NoError(t, ledger.Reconcile(kind, tx, lines))

	debit, credit, settlement := ledger.Totals(lines)
	assert.Equal(t, "855", debit.String())
	assert.True(t, debit.Equal(credit))
	assert.Equal(t, "555", settlement.String())
}

func TestDerive_AsientoManualPorLinea(t *testing.T) {
	kind, err := posting.Lookup(entity.TransactionTypeJournalEntry)
	require.NoError(t, err)
	tx := &entity.Transaction{ID: "t", Total: dec("100")}
	details := []entity.TransactionDetail{
		{LineNo: 1, ChartOfAccountID: "5105", Debit: dec("100")},
		{LineNo: 2, ChartOfAccountID: "1105", Credit: dec("60")},
		{LineNo: 3, ChartOfAccountID: "1110", Credit: dec("40")},
	}
	lines, err := ledger.Derive(kind, tx, details, nil, setting)
	require.NoError(t, err)
	assert.Len(t, lines, 3)
	require.NoError(t, ledger.Reconcile(kind, tx, lines))

	details[2].Credit = dec("39.99")
	lines, err = ledger.Derive(kind, tx, details, nil, setting)
	require.NoError(t, err)
	assert.ErrorIs(t, ledger.Reconcile(kind, tx, lines), domain.ErrUnbalancedLedger)
}

func TestDerive_AjusteDeSalidaSoloMueveCosto(t *testing.T) {
	kind, err := posting.Lookup(entity.TransactionTypeStockAdjustment)
	require.NoError(t, err)
	tx := &entity.Transaction{ID: "t", ChartOfAccountID: "5199"}
	details := []entity.TransactionDetail{{
		LineNo: 1, MultipleUomID: "uom", ItemID: "item-1", Qty: dec("3"), Cogs: dec("7.5"), Vector: entity.VectorNegative,
	}}
	lines, err := ledger.Derive(kind, tx, details, map[string]*entity.Item{"item-1": tornillo}, setting)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"6135/POSITIVE": "22.5", "1405/NEGATIVE": "22.5"}, byAccount(lines))
	require.NoError(t, ledger.Reconcile(kind, tx, lines))
}

func TestDerive_CuentaFaltanteEsEntradaInvalida(t *testing.T) {
	kind, err := posting.Lookup(entity.TransactionTypeExpense)
	require.NoError(t, err)
	tx := &entity.Transaction{ID: "t", Total: dec("10")}
	details := []entity.TransactionDetail{{LineNo: 1, ChartOfAccountID: "5105", Amount: dec("10"), Vector: entity.VectorPositive}}
	_, err = ledger.Derive(kind, tx, details, nil, setting)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin cuenta de contrapartida")
}

// ──────────────────────────────────────────────────────────────────────────────
// Post
// ──────────────────────────────────────────────────────────────────────────────

func TestPost_ReemplazaLoteAnterior(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	s.PutItem(*tornillo)
	s.PutSetting(*setting)
	p := ledger.NewPoster(zerolog.Nop())

	require.NoError(t, s.Run(ctx, func(uow repository.UnitOfWork) error {
		tx := &entity.Transaction{
			ID: "t", UnitID: "u", TransactionNumber: "EX/1", TransactionType: entity.TransactionTypeExpense,
			EntryDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), ChartOfAccountID: "1105", Total: dec("10"),
		}
		require.NoError(t, uow.Transactions().Create(ctx, tx))
		require.NoError(t, uow.Transactions().ReplaceDetails(ctx, "t", []entity.TransactionDetail{
			{ID: "d1", LineNo: 1, ChartOfAccountID: "5105", Amount: dec("10"), Total: dec("10"), Vector: entity.VectorPositive},
		}))
		first, err := p.Post(ctx, uow, "u", "t")
		require.NoError(t, err)

		tx.Total = dec("25")
		require.NoError(t, uow.Transactions().Update(ctx, tx))
		require.NoError(t, uow.Transactions().ReplaceDetails(ctx, "t", []entity.TransactionDetail{
			{ID: "d1", LineNo: 1, ChartOfAccountID: "5105", Amount: dec("25"), Total: dec("25"), Vector: entity.VectorPositive},
		}))
		second, err := p.Post(ctx, uow, "u", "t")
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)

		stored, err := uow.Ledgers().GetByTransaction(ctx, "t")
		require.NoError(t, err)
		assert.Equal(t, second.ID, stored.ID)
		assert.Equal(t, map[string]string{"5105/POSITIVE": "25", "1105/NEGATIVE": "25"}, byAccount(stored.Details))
		return nil
	}))
}
