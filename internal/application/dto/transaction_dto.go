package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRequest body para POST /api/transactions y PUT /api/transactions/:id.
// TransactionNumber vacío: se reserva el siguiente número del prefijo.
type TransactionRequest struct {
	TransactionNumber string                     `json:"transaction_number,omitempty" validate:"omitempty,max=64"`
	TransactionType   string                     `json:"transaction_type,omitempty" validate:"omitempty,max=40"`
	EntryDate         *time.Time                 `json:"entry_date,omitempty"`
	TermID            string                     `json:"term_id,omitempty"`
	ChartOfAccountID  string                     `json:"chart_of_account_id,omitempty"`
	CashRegisterID    string                     `json:"cash_register_id,omitempty"`
	Note              string                     `json:"note,omitempty" validate:"max=500"`
	TotalPayment      decimal.Decimal            `json:"total_payment"`
	Details           []TransactionDetailRequest `json:"transaction_details" validate:"required,min=1,dive"`
}

// TransactionDetailRequest línea: MultipleUomID (inventario) o ChartOfAccountID (contable), no ambos.
// DiscountInput acepta "10%" o un monto.
type TransactionDetailRequest struct {
	ID               string          `json:"id,omitempty"`
	MultipleUomID    string          `json:"multiple_uom_id,omitempty" validate:"required_without=ChartOfAccountID,excluded_with=ChartOfAccountID"`
	ChartOfAccountID string          `json:"chart_of_account_id,omitempty" validate:"required_without=MultipleUomID"`
	QtyInput         decimal.Decimal `json:"qty_input"`
	ConversionQty    decimal.Decimal `json:"conversion_qty"`
	PriceInput       decimal.Decimal `json:"price_input"`
	DiscountInput    string          `json:"discount_input,omitempty" validate:"omitempty,max=32"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	Debit            decimal.Decimal `json:"debit"`
	Credit           decimal.Decimal `json:"credit"`
}

// TransactionResponse transacción persistida con totales calculados.
type TransactionResponse struct {
	ID                  string                      `json:"id"`
	UnitID              string                      `json:"unit_id"`
	TransactionNumber   string                      `json:"transaction_number"`
	TransactionType     string                      `json:"transaction_type"`
	EntryDate           time.Time                   `json:"entry_date"`
	DueDate             *time.Time                  `json:"due_date,omitempty"`
	CashRegisterID      string                      `json:"cash_register_id,omitempty"`
	TransactionParentID string                      `json:"transaction_parent_id,omitempty"`
	BeforeTax           decimal.Decimal             `json:"before_tax"`
	TaxValue            decimal.Decimal             `json:"tax_value"`
	Total               decimal.Decimal             `json:"total"`
	TotalPayment        decimal.Decimal             `json:"total_payment"`
	UnderPayment        decimal.Decimal             `json:"under_payment"`
	Change              decimal.Decimal             `json:"change"`
	Details             []TransactionDetailResponse `json:"transaction_details"`
}

// TransactionDetailResponse línea con montos y costo asignado.
type TransactionDetailResponse struct {
	ID               string          `json:"id"`
	LineNo           int             `json:"line_no"`
	MultipleUomID    string          `json:"multiple_uom_id,omitempty"`
	ItemID           string          `json:"item_id,omitempty"`
	ChartOfAccountID string          `json:"chart_of_account_id,omitempty"`
	Qty              decimal.Decimal `json:"qty"`
	Amount           decimal.Decimal `json:"amount"`
	TaxValue         decimal.Decimal `json:"tax_value"`
	Total            decimal.Decimal `json:"total"`
	Cogs             decimal.Decimal `json:"cogs"`
	Vector           string          `json:"vector"`
}

// NumberResponse número de transacción (vista previa o reservado).
type NumberResponse struct {
	TransactionType string `json:"transaction_type"`
	Number          string `json:"number"`
}

// RecalculateRequest body para POST /api/items/:itemId/recalculate.
type RecalculateRequest struct {
	From time.Time `json:"from" validate:"required"`
}

// RecalculateResponse transacciones re-contabilizadas por el recálculo.
type RecalculateResponse struct {
	ItemID   string   `json:"item_id"`
	Lines    int      `json:"lines"`
	Affected []string `json:"affected_transactions"`
}
