package entity

import "github.com/shopspring/decimal"

// Vector indica el lado (débito/crédito) de una línea respecto al lado natural de su cuenta.
type Vector string

const (
	VectorPositive Vector = "POSITIVE" // débito
	VectorNegative Vector = "NEGATIVE" // crédito
)

// Opposite devuelve el vector contrario.
func (v Vector) Opposite() Vector {
	if v == VectorPositive {
		return VectorNegative
	}
	return VectorPositive
}

// TransactionDetail línea de una transacción: movimiento de inventario (MultipleUomID)
// o movimiento contable directo (ChartOfAccountID), mutuamente excluyentes.
type TransactionDetail struct {
	ID               string
	TransactionID    string
	LineNo           int
	MultipleUomID    string
	ItemID           string // resuelto desde MultipleUomID
	ChartOfAccountID string
	QtyInput         decimal.Decimal
	ConversionQty    decimal.Decimal
	Qty              decimal.Decimal // QtyInput * ConversionQty (unidad base)
	PriceInput       decimal.Decimal
	DiscountInput    string // "10%" o monto
	BeforeDiscount   decimal.Decimal
	Discount         decimal.Decimal
	Amount           decimal.Decimal
	TaxRate          decimal.Decimal // porcentaje, p.ej. 11
	TaxValue         decimal.Decimal
	Total            decimal.Decimal
	Debit            decimal.Decimal
	Credit           decimal.Decimal
	Cogs             decimal.Decimal // costo unitario asignado por el motor de costos
	Vector           Vector
}

// IsInventory indica si la línea mueve inventario.
func (d *TransactionDetail) IsInventory() bool {
	return d.MultipleUomID != ""
}

// CogsTotal costo total de la línea (Qty * Cogs), redondeado a centavos.
func (d *TransactionDetail) CogsTotal() decimal.Decimal {
	return d.Qty.Abs().Mul(d.Cogs).Round(2)
}
