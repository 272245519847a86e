package entity

// Prefix contador de numeración por (unidad, tipo de transacción).
// LastCode sólo avanza al confirmar; LastReserved marca números entregados por reserva.
type Prefix struct {
	ID              string
	UnitID          string
	TransactionType TransactionType
	Prefix          string
	LastCode        int64
	LastReserved    int64
}
