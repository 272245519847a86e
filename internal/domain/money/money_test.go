package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/internal/domain/money"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSafeDiv_CeroDevuelveCero(t *testing.T) {
	assert.True(t, money.SafeDiv(d("300"), decimal.Zero).IsZero(), "costo por unidad con cantidad cero debe ser 0")
	assert.True(t, money.SafeDiv(d("300"), d("30")).Equal(d("10")))
}

func TestQty_ConversionSinPerdida(t *testing.T) {
	assert.True(t, money.Qty(d("3"), d("12")).Equal(d("36")))
	assert.True(t, money.Qty(d("0.5"), d("0.3333")).Equal(d("0.16665")))
	assert.True(t, money.Qty(d("4"), decimal.Zero).Equal(d("4")), "conversión cero se trata como 1")
}

func TestDiscount(t *testing.T) {
	cases := []struct {
		name  string
		gross string
		input string
		want  string
	}{
		{"vacío", "1000", "", "0"},
		{"porcentaje", "1000", "10%", "100"},
		{"porcentaje con espacios", "1000", " 2.5 % ", "25"},
		{"monto", "1000", "150", "150"},
		{"tope al bruto", "1000", "5000", "1000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := money.Discount(d(tc.gross), tc.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tc.want)), "got %s want %s", got, tc.want)
		})
	}

	_, err := money.Discount(d("1000"), "abc")
	assert.Error(t, err)
	_, err = money.Discount(d("1000"), "-5")
	assert.Error(t, err)
}

func TestRound_RepetidasSumasSinDeriva(t *testing.T) {
	total := decimal.Zero
	for i := 0; i < 1000; i++ {
		total = money.Round(total.Add(d("0.10")))
	}
	assert.Equal(t, "100", total.String())
}
