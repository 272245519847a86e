package entity

// Métodos de costeo por unidad (General Setting).
const (
	CostingMethodFIFO    = "FIFO"
	CostingMethodAverage = "AVG"
	CostingMethodManual  = "MANUAL"
)

// UnitSetting configuración general de la unidad relevante para costeo y contabilización.
type UnitSetting struct {
	UnitID          string
	CostingMethod   string
	TaxOutAccountID string // IVA/PPN por pagar (ventas)
	TaxInAccountID  string // IVA/PPN por acreditar (compras)
}
