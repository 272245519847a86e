package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// GeneralLedger lote contable de una transacción (1:1, se reemplaza al re-contabilizar).
type GeneralLedger struct {
	ID            string
	UnitID        string
	TransactionID string
	EntryDate     time.Time
	CreatedAt     time.Time
	Details       []GeneralLedgerDetail
}

// GeneralLedgerDetail una línea por cuenta. Amount siempre no negativo; Vector define el lado.
type GeneralLedgerDetail struct {
	ID               string
	GeneralLedgerID  string
	ChartOfAccountID string
	Amount           decimal.Decimal
	Vector           Vector
	Settlement       bool // línea de contrapartida de la cabecera
}
