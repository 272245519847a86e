// Package money concentra la aritmética de montos (punto fijo, 2 decimales) y cantidades
// (racionales: qtyInput * conversionQty) usada por el motor de costos y el libro mayor.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale decimales de moneda.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Round redondea un monto a centavos (half away from zero).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// SafeDiv divide a/b y devuelve 0 cuando b es cero: una línea con cantidad cero tiene costo unitario cero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, 16)
}

// Qty normaliza una cantidad de entrada a la unidad base. conversion <= 0 se trata como 1.
func Qty(qtyInput, conversion decimal.Decimal) decimal.Decimal {
	if !conversion.IsPositive() {
		conversion = decimal.NewFromInt(1)
	}
	return qtyInput.Mul(conversion)
}

// Percent devuelve base * rate / 100 redondeado a centavos.
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(rate).Div(hundred))
}

// Discount interpreta discountInput sobre el bruto de la línea: "10%" es porcentaje, "2500" un monto.
// Vacío significa sin descuento. El descuento nunca supera el bruto.
func Discount(gross decimal.Decimal, input string) (decimal.Decimal, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return decimal.Zero, nil
	}
	var d decimal.Decimal
	if strings.HasSuffix(s, "%") {
		rate, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(s, "%")))
		if err != nil {
			return decimal.Zero, fmt.Errorf("descuento %q: %w", input, err)
		}
		d = Percent(gross, rate)
	} else {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("descuento %q: %w", input, err)
		}
		d = Round(v)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("descuento %q negativo", input)
	}
	if d.GreaterThan(gross.Abs()) {
		d = gross.Abs()
	}
	return d, nil
}

// Max devuelve el mayor entre a y b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// CostScale decimales del costo unitario persistido.
const CostScale = 6

// RoundCost redondea un costo unitario.
func RoundCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(CostScale)
}
