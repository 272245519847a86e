package entity

// CategoryAccounts cuentas configuradas en la categoría del ítem.
type CategoryAccounts struct {
	StockAccountID string // inventario (activo)
	CogsAccountID  string // costo de ventas
	SalesAccountID string // ingresos por ventas
}
