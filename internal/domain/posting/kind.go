// Package posting contiene la tabla de signos por tipo de transacción: qué vector lleva cada
// línea, qué cuenta del ítem recibe el monto, hacia dónde mueve inventario y qué lado toma
// la contrapartida. La usan el armado de líneas y el libro mayor.
package posting

import (
	"fmt"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// Direction movimiento de inventario de las líneas con ítem.
type Direction int

const (
	NoInventory Direction = iota
	Inbound
	Outbound
	// Signed el signo de la cantidad decide (ajustes y conteos físicos).
	Signed
)

// TaxSide cuenta de impuesto que usa el tipo.
type TaxSide int

const (
	NoTax TaxSide = iota
	TaxOut
	TaxIn
)

// ItemAccount cuenta de la categoría del ítem que recibe el monto de la línea.
type ItemAccount int

const (
	StockAccount ItemAccount = iota
	CogsAccount
	SalesAccount
)

// Kind regla de contabilización de un tipo de transacción.
type Kind struct {
	Type           entity.TransactionType
	LineVector     entity.Vector
	ItemAccount    ItemAccount
	Inventory      Direction
	Settlement     entity.Vector // vacío: sin contrapartida (asiento manual)
	Tax            TaxSide
	AccountLines   bool // admite líneas con ChartOfAccountID
	PerLineVector  bool // débito/crédito por línea (asiento manual)
	AverageInbound bool // la entrada se valoriza al costo promedio vigente (devolución de venta)
	CountedQty     bool // la cantidad es un conteo; el movimiento es la diferencia con la existencia
}

// IsInventory indica si el tipo admite líneas con ítem.
func (k Kind) IsInventory() bool { return k.Inventory != NoInventory }

var (
	pos = entity.VectorPositive
	neg = entity.VectorNegative
)

var kinds = map[entity.TransactionType]Kind{
	entity.TransactionTypeSaleInvoice:                {LineVector: neg, ItemAccount: SalesAccount, Inventory: Outbound, Settlement: pos, Tax: TaxOut, AccountLines: true},
	entity.TransactionTypeSaleReturn:                 {LineVector: pos, ItemAccount: SalesAccount, Inventory: Inbound, Settlement: neg, Tax: TaxOut, AccountLines: true, AverageInbound: true},
	entity.TransactionTypePurchaseInvoice:            {LineVector: pos, ItemAccount: StockAccount, Inventory: Inbound, Settlement: neg, Tax: TaxIn, AccountLines: true},
	entity.TransactionTypePurchaseReturn:             {LineVector: neg, ItemAccount: CogsAccount, Inventory: Outbound, Settlement: pos, Tax: TaxIn, AccountLines: true},
	entity.TransactionTypeReceivablePayment:          {LineVector: neg, Settlement: pos, AccountLines: true},
	entity.TransactionTypeDebtPayment:                {LineVector: pos, Settlement: neg, AccountLines: true},
	entity.TransactionTypeRevenue:                    {LineVector: neg, Settlement: pos, Tax: TaxOut, AccountLines: true},
	entity.TransactionTypeExpense:                    {LineVector: pos, Settlement: neg, Tax: TaxIn, AccountLines: true},
	entity.TransactionTypeJournalEntry:               {AccountLines: true, PerLineVector: true},
	entity.TransactionTypeOpenRegister:               {LineVector: pos, Settlement: neg, AccountLines: true},
	entity.TransactionTypeCloseRegister:              {LineVector: neg, Settlement: pos, AccountLines: true},
	entity.TransactionTypeBeginningBalanceStock:      {LineVector: pos, ItemAccount: StockAccount, Inventory: Inbound, Settlement: neg},
	entity.TransactionTypeBeginningBalanceReceivable: {LineVector: pos, Settlement: neg, AccountLines: true},
	entity.TransactionTypeBeginningBalanceDebt:       {LineVector: neg, Settlement: pos, AccountLines: true},
	entity.TransactionTypeStockAdjustment:            {LineVector: pos, ItemAccount: StockAccount, Inventory: Signed, Settlement: neg},
	entity.TransactionTypeStockOpname:                {LineVector: pos, ItemAccount: StockAccount, Inventory: Signed, Settlement: neg, CountedQty: true},
}

// Lookup devuelve la regla del tipo o ErrInvalidInput si el tipo no existe.
func Lookup(t entity.TransactionType) (Kind, error) {
	k, ok := kinds[t]
	if !ok {
		return Kind{}, fmt.Errorf("tipo de transacción %q: %w", t, domain.ErrInvalidInput)
	}
	k.Type = t
	return k, nil
}

// Types todos los tipos con regla, en el orden de declaración de las constantes.
func Types() []entity.TransactionType {
	return []entity.TransactionType{
		entity.TransactionTypeSaleInvoice, entity.TransactionTypePurchaseInvoice,
		entity.TransactionTypeSaleReturn, entity.TransactionTypePurchaseReturn,
		entity.TransactionTypeReceivablePayment, entity.TransactionTypeDebtPayment,
		entity.TransactionTypeRevenue, entity.TransactionTypeExpense,
		entity.TransactionTypeJournalEntry, entity.TransactionTypeOpenRegister,
		entity.TransactionTypeCloseRegister, entity.TransactionTypeBeginningBalanceStock,
		entity.TransactionTypeBeginningBalanceDebt, entity.TransactionTypeBeginningBalanceReceivable,
		entity.TransactionTypeStockOpname, entity.TransactionTypeStockAdjustment,
	}
}
