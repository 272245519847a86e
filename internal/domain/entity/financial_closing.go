package entity

import "time"

// FinancialClosing marca de cierre por unidad: ninguna transacción con EntryDate <= EntryDate
// del último cierre puede crearse, modificarse ni recalcular su costo.
type FinancialClosing struct {
	ID        string
	UnitID    string
	EntryDate time.Time
	CreatedBy string
	CreatedAt time.Time
}
