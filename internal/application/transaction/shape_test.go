package transaction_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/internal/application/transaction"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/posting"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func kindOf(t *testing.T, tt entity.TransactionType) posting.Kind {
	t.Helper()
	k, err := posting.Lookup(tt)
	require.NoError(t, err)
	return k
}

func TestShapeLineItems_VentaConDescuentoEImpuesto(t *testing.T) {
	details, totals, err := transaction.ShapeLineItems(kindOf(t, entity.TransactionTypeSaleInvoice), []transaction.RawLine{
		{MultipleUomID: "box", ItemID: "item-1", QtyInput: dec("2"), ConversionQty: dec("12"), PriceInput: dec("1000"), DiscountInput: "10%", TaxRate: dec("19")},
		{ChartOfAccountID: "4175", PriceInput: dec("500")},
	})
	require.NoError(t, err)
	require.Len(t, details, 2)

	d := details[0]
	assert.Equal(t, 1, d.LineNo)
	assert.Equal(t, "24", d.Qty.String())
	assert.Equal(t, "24000", d.BeforeDiscount.String())
	assert.Equal(t, "2400", d.Discount.String())
	assert.Equal(t, "21600", d.Amount.String())
	assert.Equal(t, "4104", d.TaxValue.String())
	assert.Equal(t, "25704", d.Total.String())
	assert.Equal(t, entity.VectorNegative, d.Vector)
	assert.NotEmpty(t, d.ID)

	svc := details[1]
	assert.Equal(t, "1", svc.Qty.String(), "línea contable sin cantidad cuenta como 1")
	assert.Equal(t, "500", svc.Amount.String())

	assert.Equal(t, "22100", totals.BeforeTax.String())
	assert.Equal(t, "4104", totals.TaxValue.String())
	assert.Equal(t, "26204", totals.Total.String())
}

func TestShapeLineItems_CompraFijaCostoUnitarioDeLaEntrada(t *testing.T) {
	details, _, err := transaction.ShapeLineItems(kindOf(t, entity.TransactionTypePurchaseInvoice), []transaction.RawLine{
		{MultipleUomID: "u", ItemID: "item-1", QtyInput: dec("3"), PriceInput: dec("10"), DiscountInput: "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.VectorPositive, details[0].Vector)
	assert.Equal(t, "29", details[0].Amount.String())
	assert.Equal(t, "9.666667", details[0].Cogs.String())
}

func TestShapeLineItems_AjusteUsaSignoDeLaCantidad(t *testing.T) {
	details, totals, err := transaction.ShapeLineItems(kindOf(t, entity.TransactionTypeStockAdjustment), []transaction.RawLine{
		{MultipleUomID: "u", ItemID: "item-1", QtyInput: dec("5"), PriceInput: dec("4")},
		{MultipleUomID: "u", ItemID: "item-1", QtyInput: dec("-2"), PriceInput: dec("4")},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.VectorPositive, details[0].Vector)
	assert.Equal(t, "20", details[0].Amount.String())
	assert.Equal(t, entity.VectorNegative, details[1].Vector)
	assert.Equal(t, "2", details[1].Qty.String())
	assert.True(t, details[1].Amount.IsZero(), "la salida se valoriza al costo, sin monto")
	assert.Equal(t, "20", totals.Total.String())
}

func TestShapeLineItems_AsientoDescuadrado(t *testing.T) {
	kind := kindOf(t, entity.TransactionTypeJournalEntry)

	_, totals, err := transaction.ShapeLineItems(kind, []transaction.RawLine{
		{ChartOfAccountID: "5105", Debit: dec("100")},
		{ChartOfAccountID: "1105", Credit: dec("100")},
	})
	require.NoError(t, err)
	assert.Equal(t, "100", totals.Total.String())

	_, _, err = transaction.ShapeLineItems(kind, []transaction.RawLine{
		{ChartOfAccountID: "5105", Debit: dec("100")},
		{ChartOfAccountID: "1105", Credit: dec("99.99")},
	})
	assert.ErrorIs(t, err, domain.ErrUnbalancedJournalEntry)

	_, _, err = transaction.ShapeLineItems(kind, []transaction.RawLine{
		{ChartOfAccountID: "5105", Debit: dec("100"), Credit: dec("100")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestShapeLineItems_AsientoSeCuadraConImportesRedondeados(t *testing.T) {
	kind := kindOf(t, entity.TransactionTypeJournalEntry)

	// 0.005 + 0.005 cuadra sin redondear, pero al libro llegan 0.01 + 0.01 contra 0.01
	_, _, err := transaction.ShapeLineItems(kind, []transaction.RawLine{
		{ChartOfAccountID: "5105", Debit: dec("0.005")},
		{ChartOfAccountID: "5110", Debit: dec("0.005")},
		{ChartOfAccountID: "1105", Credit: dec("0.01")},
	})
	assert.ErrorIs(t, err, domain.ErrUnbalancedJournalEntry)

	details, totals, err := transaction.ShapeLineItems(kind, []transaction.RawLine{
		{ChartOfAccountID: "5105", Debit: dec("100.004")},
		{ChartOfAccountID: "1105", Credit: dec("100")},
	})
	require.NoError(t, err)
	assert.Equal(t, "100", details[0].Debit.String())
	assert.Equal(t, "100", totals.Total.String())

	_, _, err = transaction.ShapeLineItems(kind, []transaction.RawLine{
		{ChartOfAccountID: "5105", Debit: dec("0.004")},
		{ChartOfAccountID: "1105", Credit: dec("0.004")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestShapeLineItems_LineasInvalidas(t *testing.T) {
	tests := []struct {
		name string
		kind entity.TransactionType
		line transaction.RawLine
	}{
		{"ambas referencias", entity.TransactionTypeSaleInvoice, transaction.RawLine{MultipleUomID: "u", ChartOfAccountID: "4135", QtyInput: dec("1")}},
		{"sin referencia", entity.TransactionTypeSaleInvoice, transaction.RawLine{QtyInput: dec("1")}},
		{"inventario en pago", entity.TransactionTypeDebtPayment, transaction.RawLine{MultipleUomID: "u", QtyInput: dec("1")}},
		{"cuenta en saldo inicial de stock", entity.TransactionTypeBeginningBalanceStock, transaction.RawLine{ChartOfAccountID: "1", PriceInput: dec("1")}},
		{"cantidad negativa en venta", entity.TransactionTypeSaleInvoice, transaction.RawLine{MultipleUomID: "u", QtyInput: dec("-1")}},
		{"precio negativo", entity.TransactionTypeExpense, transaction.RawLine{ChartOfAccountID: "5", PriceInput: dec("-1")}},
		{"impuesto en pago", entity.TransactionTypeReceivablePayment, transaction.RawLine{ChartOfAccountID: "1305", PriceInput: dec("1"), TaxRate: dec("19")}},
		{"descuento ilegible", entity.TransactionTypeExpense, transaction.RawLine{ChartOfAccountID: "5", PriceInput: dec("1"), DiscountInput: "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := transaction.ShapeLineItems(kindOf(t, tt.kind), []transaction.RawLine{tt.line})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, _, err := transaction.ShapeLineItems(kindOf(t, entity.TransactionTypeExpense), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
