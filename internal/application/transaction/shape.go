package transaction

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/money"
	"github.com/jhoicas/Contabilidad-api/internal/domain/posting"
)

// RawLine línea de entrada con ItemID y ConversionQty ya resueltos desde la unidad de medida.
type RawLine struct {
	ID               string
	MultipleUomID    string
	ItemID           string
	ChartOfAccountID string
	QtyInput         decimal.Decimal
	ConversionQty    decimal.Decimal
	PriceInput       decimal.Decimal
	DiscountInput    string
	TaxRate          decimal.Decimal
	Debit            decimal.Decimal
	Credit           decimal.Decimal
}

// Totals acumulados de la cabecera.
type Totals struct {
	BeforeTax decimal.Decimal
	TaxValue  decimal.Decimal
	Total     decimal.Decimal
}

// ShapeLineItems calcula cantidad, descuento, monto, impuesto, total y vector de cada línea
// según la regla del tipo, y acumula los totales. No toca persistencia.
func ShapeLineItems(kind posting.Kind, raw []RawLine) ([]entity.TransactionDetail, Totals, error) {
	tot := Totals{BeforeTax: decimal.Zero, TaxValue: decimal.Zero, Total: decimal.Zero}
	if len(raw) == 0 {
		return nil, tot, fmt.Errorf("la transacción no tiene líneas: %w", domain.ErrInvalidInput)
	}
	details := make([]entity.TransactionDetail, 0, len(raw))
	debit, credit := decimal.Zero, decimal.Zero

	for i, r := range raw {
		lineNo := i + 1
		inventoryLine := r.MultipleUomID != ""
		if inventoryLine == (r.ChartOfAccountID != "") {
			return nil, tot, invalid(lineNo, "debe indicar unidad de medida o cuenta contable, no ambas")
		}
		if inventoryLine && !kind.IsInventory() {
			return nil, tot, invalid(lineNo, fmt.Sprintf("%s no admite líneas de inventario", kind.Type))
		}
		if !inventoryLine && !kind.AccountLines {
			return nil, tot, invalid(lineNo, fmt.Sprintf("%s no admite líneas contables", kind.Type))
		}

		d := entity.TransactionDetail{
			ID:               r.ID,
			LineNo:           lineNo,
			MultipleUomID:    r.MultipleUomID,
			ItemID:           r.ItemID,
			ChartOfAccountID: r.ChartOfAccountID,
			QtyInput:         r.QtyInput,
			ConversionQty:    r.ConversionQty,
			PriceInput:       r.PriceInput,
			DiscountInput:    r.DiscountInput,
			TaxRate:          r.TaxRate,
			BeforeDiscount:   decimal.Zero,
			Discount:         decimal.Zero,
			Amount:           decimal.Zero,
			TaxValue:         decimal.Zero,
			Total:            decimal.Zero,
			Debit:            decimal.Zero,
			Credit:           decimal.Zero,
			Cogs:             decimal.Zero,
		}
		if d.ID == "" {
			d.ID = uuid.New().String()
		}

		if kind.PerLineVector {
			if err := shapeJournalLine(&d, r); err != nil {
				return nil, tot, err
			}
			debit = debit.Add(d.Debit)
			credit = credit.Add(d.Credit)
			tot.BeforeTax = tot.BeforeTax.Add(d.Debit)
			tot.Total = tot.Total.Add(d.Debit)
			details = append(details, d)
			continue
		}

		if r.PriceInput.IsNegative() || r.TaxRate.IsNegative() {
			return nil, tot, invalid(lineNo, "precio e impuesto no pueden ser negativos")
		}
		if r.TaxRate.IsPositive() && kind.Tax == posting.NoTax {
			return nil, tot, invalid(lineNo, fmt.Sprintf("%s no admite impuesto", kind.Type))
		}

		qtyInput := r.QtyInput
		if !inventoryLine && qtyInput.IsZero() {
			qtyInput = decimal.NewFromInt(1)
			d.QtyInput = qtyInput
		}
		qty := money.Qty(qtyInput, r.ConversionQty)
		d.Vector = kind.LineVector
		switch {
		case inventoryLine && kind.Inventory == posting.Signed:
			if qty.IsNegative() {
				d.Vector = entity.VectorNegative
			}
		case qty.IsNegative() || (inventoryLine && qty.IsZero()):
			return nil, tot, invalid(lineNo, "la cantidad debe ser positiva")
		}
		d.Qty = qty.Abs()

		// la salida por ajuste se valoriza al costo consumido, no tiene monto de venta
		if !(kind.Inventory == posting.Signed && d.Vector == entity.VectorNegative) {
			d.BeforeDiscount = money.Round(d.Qty.Mul(r.PriceInput))
			discount, err := money.Discount(d.BeforeDiscount, r.DiscountInput)
			if err != nil {
				return nil, tot, invalid(lineNo, err.Error())
			}
			d.Discount = discount
			d.Amount = d.BeforeDiscount.Sub(discount)
			if kind.Tax != posting.NoTax {
				d.TaxValue = money.Percent(d.Amount, r.TaxRate)
			}
			d.Total = d.Amount.Add(d.TaxValue)
		}
		if inventoryLine && d.Vector == entity.VectorPositive && !kind.AverageInbound {
			d.Cogs = money.RoundCost(money.SafeDiv(d.Amount, d.Qty))
		}

		tot.BeforeTax = tot.BeforeTax.Add(d.Amount)
		tot.TaxValue = tot.TaxValue.Add(d.TaxValue)
		tot.Total = tot.Total.Add(d.Total)
		details = append(details, d)
	}

	// se comparan los importes ya redondeados, los mismos que llegan al libro mayor
	if kind.PerLineVector && !debit.Equal(credit) {
		return nil, tot, fmt.Errorf("débito %s, crédito %s: %w", debit, credit, domain.ErrUnbalancedJournalEntry)
	}
	return details, tot, nil
}

func shapeJournalLine(d *entity.TransactionDetail, r RawLine) error {
	if r.Debit.IsNegative() || r.Credit.IsNegative() || r.Debit.IsPositive() == r.Credit.IsPositive() {
		return invalid(d.LineNo, "un asiento lleva débito o crédito positivo, no ambos")
	}
	d.Debit = money.Round(r.Debit)
	d.Credit = money.Round(r.Credit)
	d.Vector = entity.VectorPositive
	d.Amount = d.Debit
	if d.Credit.IsPositive() {
		d.Vector = entity.VectorNegative
		d.Amount = d.Credit
	}
	if d.Amount.IsZero() {
		return invalid(d.LineNo, "el importe redondeado a dos decimales es cero")
	}
	d.BeforeDiscount = d.Amount
	d.Total = d.Amount
	return nil
}

func invalid(lineNo int, msg string) error {
	return fmt.Errorf("línea %d: %s: %w", lineNo, msg, domain.ErrInvalidInput)
}
