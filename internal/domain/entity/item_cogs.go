package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemCogs lote de costo: un evento de entrada de inventario de un ítem en una unidad.
// Qty es el remanente (se decrementa al consumir); QtyStatic la cantidad original.
type ItemCogs struct {
	ID                  string
	UnitID              string
	ItemID              string
	TransactionDetailID string
	Qty                 decimal.Decimal
	QtyStatic           decimal.Decimal
	Cogs                decimal.Decimal // costo unitario
	Date                time.Time
	CreatedAt           time.Time
}

// ItemCogsDetail registro de consumo: cuánto tomó una línea de salida de un lote y a qué costo.
type ItemCogsDetail struct {
	ID                  string
	ItemCogsID          string
	TransactionDetailID string
	Qty                 decimal.Decimal
	Cogs                decimal.Decimal
	Date                time.Time
}

// OutboundLine línea de salida de inventario con la fecha y el orden de su transacción,
// en el orden en que el motor de costos la procesa.
type OutboundLine struct {
	TransactionID        string
	TransactionCreatedAt time.Time
	EntryDate            time.Time
	Detail               TransactionDetail
}
