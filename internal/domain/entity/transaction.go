package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifica el tipo de evento financiero. Inmutable una vez creada la transacción.
type TransactionType string

const (
	TransactionTypeSaleInvoice                TransactionType = "SALE_INVOICE"
	TransactionTypePurchaseInvoice            TransactionType = "PURCHASE_INVOICE"
	TransactionTypeSaleReturn                 TransactionType = "SALE_RETURN"
	TransactionTypePurchaseReturn             TransactionType = "PURCHASE_RETURN"
	TransactionTypeReceivablePayment          TransactionType = "RECEIVABLE_PAYMENT"
	TransactionTypeDebtPayment                TransactionType = "DEBT_PAYMENT"
	TransactionTypeRevenue                    TransactionType = "REVENUE"
	TransactionTypeExpense                    TransactionType = "EXPENSE"
	TransactionTypeJournalEntry               TransactionType = "JOURNAL_ENTRY"
	TransactionTypeOpenRegister               TransactionType = "OPEN_REGISTER"
	TransactionTypeCloseRegister              TransactionType = "CLOSE_REGISTER"
	TransactionTypeBeginningBalanceStock      TransactionType = "BEGINNING_BALANCE_STOCK"
	TransactionTypeBeginningBalanceDebt       TransactionType = "BEGINNING_BALANCE_DEBT"
	TransactionTypeBeginningBalanceReceivable TransactionType = "BEGINNING_BALANCE_RECEIVABLE"
	TransactionTypeStockOpname                TransactionType = "STOCK_OPNAME"
	TransactionTypeStockAdjustment            TransactionType = "STOCK_ADJUSTMENT"
)

// Transaction cabecera de un evento financiero de una unidad.
// ChartOfAccountID es la cuenta de contrapartida (caja, cuentas por cobrar/pagar, patrimonio de apertura, ajuste).
type Transaction struct {
	ID                  string
	UnitID              string
	TransactionNumber   string // único por unidad
	TransactionType     TransactionType
	EntryDate           time.Time
	DueDate             *time.Time
	TermID              string
	ChartOfAccountID    string
	CashRegisterID      string
	TransactionParentID string // CLOSE_REGISTER -> OPEN_REGISTER
	Note                string
	BeforeTax           decimal.Decimal
	TaxValue            decimal.Decimal
	Total               decimal.Decimal
	TotalPayment        decimal.Decimal
	UnderPayment        decimal.Decimal
	Change              decimal.Decimal
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
