// Package ledger deriva y persiste el lote contable (GeneralLedger) de una transacción.
// Cada Post reemplaza el lote anterior completo: no hay diff entre versiones.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/posting"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

// Poster contabiliza transacciones.
type Poster struct {
	log zerolog.Logger
	now func() time.Time
}

// NewPoster construye el poster.
func NewPoster(log zerolog.Logger) *Poster {
	return &Poster{log: log, now: time.Now}
}

// Post borra el lote contable existente de la transacción y lo vuelve a generar desde sus líneas.
func (p *Poster) Post(ctx context.Context, uow repository.UnitOfWork, unitID, transactionID string) (*entity.GeneralLedger, error) {
	tx, err := uow.Transactions().GetByID(ctx, unitID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("transacción %s: %w", transactionID, err)
	}
	details, err := uow.Transactions().ListDetails(ctx, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("líneas de %s: %w", tx.ID, err)
	}
	kind, err := posting.Lookup(tx.TransactionType)
	if err != nil {
		return nil, err
	}

	items := map[string]*entity.Item{}
	for _, d := range details {
		if !d.IsInventory() || items[d.ItemID] != nil {
			continue
		}
		it, err := uow.Items().GetItem(ctx, unitID, d.ItemID)
		if err != nil {
			return nil, fmt.Errorf("ítem %s: %w", d.ItemID, err)
		}
		items[d.ItemID] = it
	}
	setting, err := uow.Settings().GetByUnit(ctx, unitID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("configuración de la unidad: %w", err)
		}
		setting = &entity.UnitSetting{UnitID: unitID}
	}

	lines, err := Derive(kind, tx, details, items, setting)
	if err != nil {
		return nil, err
	}
	if err := Reconcile(kind, tx, lines); err != nil {
		return nil, err
	}

	gl := &entity.GeneralLedger{
		ID:            uuid.New().String(),
		UnitID:        unitID,
		TransactionID: tx.ID,
		EntryDate:     tx.EntryDate,
		CreatedAt:     p.now().UTC(),
	}
	for _, l := range lines {
		l.ID = uuid.New().String()
		l.GeneralLedgerID = gl.ID
		gl.Details = append(gl.Details, l)
	}
	if err := uow.Ledgers().Replace(ctx, gl); err != nil {
		return nil, fmt.Errorf("guardar libro mayor: %w", err)
	}
	p.log.Debug().Str("transaction_id", tx.ID).Int("lines", len(gl.Details)).Msg("libro mayor contabilizado")
	return gl, nil
}

type lineKey struct {
	account    string
	vector     entity.Vector
	settlement bool
}

// builder acumula montos por (cuenta, vector, contrapartida) conservando el orden de aparición.
type builder struct {
	order []lineKey
	sums  map[lineKey]decimal.Decimal
}

func (b *builder) add(account string, v entity.Vector, amount decimal.Decimal, settlement bool) {
	if !amount.IsPositive() {
		return
	}
	k := lineKey{account: account, vector: v, settlement: settlement}
	if b.sums == nil {
		b.sums = map[lineKey]decimal.Decimal{}
	}
	if _, ok := b.sums[k]; !ok {
		b.order = append(b.order, k)
		b.sums[k] = decimal.Zero
	}
	b.sums[k] = b.sums[k].Add(amount)
}

func (b *builder) lines() []entity.GeneralLedgerDetail {
	out := make([]entity.GeneralLedgerDetail, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, entity.GeneralLedgerDetail{
			ChartOfAccountID: k.account, Amount: b.sums[k], Vector: k.vector, Settlement: k.settlement,
		})
	}
	return out
}

// Derive arma las líneas contables sin tocar persistencia. Líneas con monto cero se omiten;
// montos de la misma cuenta y lado se agrupan.
func Derive(kind posting.Kind, tx *entity.Transaction, details []entity.TransactionDetail, items map[string]*entity.Item, setting *entity.UnitSetting) ([]entity.GeneralLedgerDetail, error) {
	var b builder
	for _, d := range details {
		if kind.PerLineVector {
			if err := need(d.ChartOfAccountID, "cuenta de la línea %d", d.LineNo); err != nil {
				return nil, err
			}
			b.add(d.ChartOfAccountID, entity.VectorPositive, d.Debit, false)
			b.add(d.ChartOfAccountID, entity.VectorNegative, d.Credit, false)
			continue
		}

		account := d.ChartOfAccountID
		var it *entity.Item
		if d.IsInventory() {
			it = items[d.ItemID]
			if it == nil {
				return nil, fmt.Errorf("ítem %s: %w", d.ItemID, domain.ErrNotFound)
			}
			account = itemAccount(it, kind.ItemAccount)
		}
		if err := need(account, "cuenta de la línea %d", d.LineNo); err != nil {
			return nil, err
		}
		b.add(account, d.Vector, d.Amount, false)

		if d.TaxValue.IsPositive() {
			tax, err := taxAccount(kind, setting)
			if err != nil {
				return nil, err
			}
			b.add(tax, d.Vector, d.TaxValue, false)
		}

		if it == nil {
			continue
		}
		cost := d.CogsTotal()
		switch {
		case d.Vector == entity.VectorNegative:
			// salida: el inventario baja al costo consumido
			if err := needCostAccounts(it); err != nil {
				return nil, err
			}
			b.add(it.Accounts.CogsAccountID, entity.VectorPositive, cost, false)
			b.add(it.Accounts.StockAccountID, entity.VectorNegative, cost, false)
		case kind.AverageInbound:
			if err := needCostAccounts(it); err != nil {
				return nil, err
			}
			b.add(it.Accounts.StockAccountID, entity.VectorPositive, cost, false)
			b.add(it.Accounts.CogsAccountID, entity.VectorNegative, cost, false)
		}
	}

	if kind.Settlement != "" && tx.Total.IsPositive() {
		if err := need(tx.ChartOfAccountID, "cuenta de contrapartida"); err != nil {
			return nil, err
		}
		b.add(tx.ChartOfAccountID, kind.Settlement, tx.Total, true)
	}
	return b.lines(), nil
}

// Reconcile verifica débito == crédito y que la contrapartida sea igual al total de la transacción.
func Reconcile(kind posting.Kind, tx *entity.Transaction, lines []entity.GeneralLedgerDetail) error {
	debit, credit, settlement := Totals(lines)
	if !debit.Equal(credit) {
		return fmt.Errorf("débito %s crédito %s: %w", debit, credit, domain.ErrUnbalancedLedger)
	}
	if kind.Settlement != "" && !settlement.Equal(decimal.Max(tx.Total, decimal.Zero)) {
		return fmt.Errorf("contrapartida %s total %s: %w", settlement, tx.Total, domain.ErrUnbalancedLedger)
	}
	return nil
}

// Totals suma de débitos (POSITIVE), créditos (NEGATIVE) y de las líneas de contrapartida.
func Totals(lines []entity.GeneralLedgerDetail) (debit, credit, settlement decimal.Decimal) {
	debit, credit, settlement = decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range lines {
		if l.Vector == entity.VectorPositive {
			debit = debit.Add(l.Amount)
		} else {
			credit = credit.Add(l.Amount)
		}
		if l.Settlement {
			settlement = settlement.Add(l.Amount)
		}
	}
	return debit, credit, settlement
}

func itemAccount(it *entity.Item, role posting.ItemAccount) string {
	switch role {
	case posting.SalesAccount:
		return it.Accounts.SalesAccountID
	case posting.CogsAccount:
		return it.Accounts.CogsAccountID
	default:
		return it.Accounts.StockAccountID
	}
}

func taxAccount(kind posting.Kind, s *entity.UnitSetting) (string, error) {
	var account string
	switch kind.Tax {
	case posting.TaxOut:
		account = s.TaxOutAccountID
	case posting.TaxIn:
		account = s.TaxInAccountID
	default:
		return "", fmt.Errorf("%s no admite impuesto: %w", kind.Type, domain.ErrInvalidInput)
	}
	return account, need(account, "cuenta de impuesto de la unidad %s", s.UnitID)
}

func needCostAccounts(it *entity.Item) error {
	if it.Accounts.CogsAccountID == "" || it.Accounts.StockAccountID == "" {
		return fmt.Errorf("cuentas de inventario/costo del ítem %s no configuradas: %w", it.Name, domain.ErrInvalidInput)
	}
	return nil
}

func need(account, format string, args ...any) error {
	if account != "" {
		return nil
	}
	return fmt.Errorf(format+" no configurada: %w", append(args, domain.ErrInvalidInput)...)
}
