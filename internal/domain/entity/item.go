package entity

import "github.com/shopspring/decimal"

// Item ítem de inventario (dato maestro, sólo lectura para el motor).
// ManualCost se usa cuando la unidad tiene método de costeo MANUAL.
type Item struct {
	ID         string
	UnitID     string
	Name       string
	CategoryID string
	ManualCost decimal.Decimal
	Accounts   CategoryAccounts
}

// MultipleUom conversión de un ítem a una unidad de medida: 1 unidad de entrada = ConversionQty unidades base.
type MultipleUom struct {
	ID            string
	ItemID        string
	Name          string
	ConversionQty decimal.Decimal
}

// Term condición de pago (días hasta el vencimiento).
type Term struct {
	ID         string
	Name       string
	PeriodDays int
}
