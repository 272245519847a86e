package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain/money"
)

// CostCalculator costo promedio ponderado al incorporar una entrada a un stock existente.
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return money.SafeDiv(num, sum)
}

// AverageCost política AVERAGE: promedio recalculado en el momento del consumo sobre todos los
// lotes abiertos (qty > 0) con fecha <= asOf. No es un promedio móvil acumulado.
func AverageCost(lots []*Lot, asOf time.Time) decimal.Decimal {
	qty, cost := decimal.Zero, decimal.Zero
	for _, l := range lots {
		if !l.Qty.IsPositive() || l.Date.After(asOf) {
			continue
		}
		cost = CostCalculator(qty, cost, l.Qty, l.Cogs)
		qty = qty.Add(l.Qty)
	}
	return money.RoundCost(cost)
}

// UnitCost costo unitario de una salida: sum(qty*costo) / sum(qty), 0 si no hubo consumo.
func UnitCost(allocs []Allocation) decimal.Decimal {
	value, qty := decimal.Zero, decimal.Zero
	for _, a := range allocs {
		value = value.Add(a.Qty.Mul(a.Cogs))
		qty = qty.Add(a.Qty)
	}
	return money.RoundCost(money.SafeDiv(value, qty))
}
