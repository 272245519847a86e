package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

const transactionColumns = `id, unit_id, transaction_number, transaction_type, entry_date, due_date, term_id,
	chart_of_account_id, cash_register_id, transaction_parent_id, note, before_tax, tax_value, total,
	total_payment, under_payment, change, created_by, created_at, updated_at`

const detailColumns = `d.id, d.transaction_id, d.line_no, d.multiple_uom_id, d.item_id, d.chart_of_account_id,
	d.qty_input, d.conversion_qty, d.qty, d.price_input, d.discount_input, d.before_discount, d.discount,
	d.amount, d.tax_rate, d.tax_value, d.total, d.debit, d.credit, d.cogs, d.vector`

// TransactionRepo transacciones y sus líneas sobre PostgreSQL (usable con pool o tx).
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Create persiste la cabecera. El número repetido en la unidad devuelve ErrDuplicateTransactionNumber.
func (r *TransactionRepo) Create(ctx context.Context, tx *entity.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(ctx, query,
		tx.ID, tx.UnitID, tx.TransactionNumber, tx.TransactionType, tx.EntryDate, tx.DueDate,
		nullString(tx.TermID), nullString(tx.ChartOfAccountID), nullString(tx.CashRegisterID),
		nullString(tx.TransactionParentID), tx.Note, tx.BeforeTax, tx.TaxValue, tx.Total,
		tx.TotalPayment, tx.UnderPayment, tx.Change, nullString(tx.CreatedBy), tx.CreatedAt, tx.UpdatedAt,
	)
	return mapError("insert transaction", err)
}

// Update reescribe la cabecera; el tipo no cambia.
func (r *TransactionRepo) Update(ctx context.Context, tx *entity.Transaction) error {
	query := `
		UPDATE transactions SET transaction_number = $2, entry_date = $3, due_date = $4, term_id = $5,
			chart_of_account_id = $6, cash_register_id = $7, transaction_parent_id = $8, note = $9,
			before_tax = $10, tax_value = $11, total = $12, total_payment = $13, under_payment = $14,
			change = $15, updated_at = $16
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		tx.ID, tx.TransactionNumber, tx.EntryDate, tx.DueDate, nullString(tx.TermID),
		nullString(tx.ChartOfAccountID), nullString(tx.CashRegisterID), nullString(tx.TransactionParentID),
		tx.Note, tx.BeforeTax, tx.TaxValue, tx.Total, tx.TotalPayment, tx.UnderPayment, tx.Change, tx.UpdatedAt,
	)
	if err != nil {
		return mapError("update transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update transaction %s: %w", tx.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete borra la cabecera; líneas, lotes, consumos y libro mayor caen por ON DELETE CASCADE.
func (r *TransactionRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return mapError("delete transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete transaction %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetByID obtiene una transacción de la unidad.
func (r *TransactionRepo) GetByID(ctx context.Context, unitID, id string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE unit_id = $1 AND id = $2`
	tx, err := scanTransaction(r.q.QueryRow(ctx, query, unitID, id))
	if err != nil {
		return nil, mapError("get transaction", err)
	}
	return tx, nil
}

// NumberExists verifica el número dentro de la unidad, ignorando excludeID.
func (r *TransactionRepo) NumberExists(ctx context.Context, unitID, number, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE unit_id = $1 AND transaction_number = $2 AND id <> $3
		)`
	var exists bool
	if err := r.q.QueryRow(ctx, query, unitID, number, excludeID).Scan(&exists); err != nil {
		return false, mapError("check transaction number", err)
	}
	return exists, nil
}

// ListDetails líneas de la transacción por LineNo.
func (r *TransactionRepo) ListDetails(ctx context.Context, transactionID string) ([]entity.TransactionDetail, error) {
	query := `SELECT ` + detailColumns + ` FROM transaction_details d WHERE d.transaction_id = $1 ORDER BY d.line_no`
	rows, err := r.q.Query(ctx, query, transactionID)
	if err != nil {
		return nil, mapError("list details", err)
	}
	defer rows.Close()
	var list []entity.TransactionDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan detail: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// ReplaceDetails borra las líneas que ya no vienen (y en cascada sus lotes y consumos)
// y hace upsert del resto por ID.
func (r *TransactionRepo) ReplaceDetails(ctx context.Context, transactionID string, details []entity.TransactionDetail) error {
	ids := make([]string, len(details))
	for i, d := range details {
		ids[i] = d.ID
	}
	if _, err := r.q.Exec(ctx,
		`DELETE FROM transaction_details WHERE transaction_id = $1 AND NOT (id = ANY($2))`,
		transactionID, ids,
	); err != nil {
		return mapError("delete stale details", err)
	}
	if len(details) == 0 {
		return nil
	}

	query := `
		INSERT INTO transaction_details (id, transaction_id, line_no, multiple_uom_id, item_id, chart_of_account_id,
			qty_input, conversion_qty, qty, price_input, discount_input, before_discount, discount, amount,
			tax_rate, tax_value, total, debit, credit, cogs, vector)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id) DO UPDATE SET
			line_no = EXCLUDED.line_no, multiple_uom_id = EXCLUDED.multiple_uom_id, item_id = EXCLUDED.item_id,
			chart_of_account_id = EXCLUDED.chart_of_account_id, qty_input = EXCLUDED.qty_input,
			conversion_qty = EXCLUDED.conversion_qty, qty = EXCLUDED.qty, price_input = EXCLUDED.price_input,
			discount_input = EXCLUDED.discount_input, before_discount = EXCLUDED.before_discount,
			discount = EXCLUDED.discount, amount = EXCLUDED.amount, tax_rate = EXCLUDED.tax_rate,
			tax_value = EXCLUDED.tax_value, total = EXCLUDED.total, debit = EXCLUDED.debit,
			credit = EXCLUDED.credit, cogs = EXCLUDED.cogs, vector = EXCLUDED.vector
		WHERE transaction_details.transaction_id = EXCLUDED.transaction_id`
	batch := &pgx.Batch{}
	for _, d := range details {
		batch.Queue(query,
			d.ID, transactionID, d.LineNo, nullString(d.MultipleUomID), nullString(d.ItemID),
			nullString(d.ChartOfAccountID), d.QtyInput, d.ConversionQty, d.Qty, d.PriceInput, d.DiscountInput,
			d.BeforeDiscount, d.Discount, d.Amount, d.TaxRate, d.TaxValue, d.Total, d.Debit, d.Credit,
			d.Cogs, d.Vector,
		)
	}
	return execBatch(ctx, r.q, batch, "upsert detail")
}

// UpdateDetailCogs fija el costo unitario calculado por el motor.
func (r *TransactionRepo) UpdateDetailCogs(ctx context.Context, detailID string, cogs decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE transaction_details SET cogs = $2 WHERE id = $1`, detailID, cogs)
	if err != nil {
		return mapError("update detail cogs", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update detail cogs %s: %w", detailID, domain.ErrNotFound)
	}
	return nil
}

// ListOutboundLines salidas del ítem desde from, en orden de procesamiento del motor.
func (r *TransactionRepo) ListOutboundLines(ctx context.Context, unitID, itemID string, from time.Time) ([]entity.OutboundLine, error) {
	query := `
		SELECT t.id, t.created_at, t.entry_date, ` + detailColumns + `
		FROM transaction_details d
		JOIN transactions t ON t.id = d.transaction_id
		WHERE t.unit_id = $1 AND d.item_id = $2 AND d.multiple_uom_id IS NOT NULL
			AND d.vector = 'NEGATIVE' AND t.entry_date >= $3
		ORDER BY t.entry_date, t.created_at, t.id, d.line_no`
	rows, err := r.q.Query(ctx, query, unitID, itemID, from)
	if err != nil {
		return nil, mapError("list outbound lines", err)
	}
	defer rows.Close()
	var list []entity.OutboundLine
	for rows.Next() {
		var line entity.OutboundLine
		d, err := scanDetail(rows, &line.TransactionID, &line.TransactionCreatedAt, &line.EntryDate)
		if err != nil {
			return nil, fmt.Errorf("scan outbound line: %w", err)
		}
		line.TransactionCreatedAt = utc(line.TransactionCreatedAt)
		line.EntryDate = utc(line.EntryDate)
		line.Detail = d
		list = append(list, line)
	}
	return list, rows.Err()
}

// FindOpenRegister último OPEN_REGISTER de la caja sin CLOSE_REGISTER hijo.
func (r *TransactionRepo) FindOpenRegister(ctx context.Context, unitID, cashRegisterID string) (*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions o
		WHERE o.unit_id = $1 AND o.cash_register_id = $2 AND o.transaction_type = $3
			AND NOT EXISTS (
				SELECT 1 FROM transactions c
				WHERE c.transaction_parent_id = o.id AND c.transaction_type = $4
			)
		ORDER BY o.created_at DESC
		LIMIT 1`
	tx, err := scanTransaction(r.q.QueryRow(ctx, query, unitID, cashRegisterID,
		entity.TransactionTypeOpenRegister, entity.TransactionTypeCloseRegister))
	if err != nil {
		return nil, mapError("find open register", err)
	}
	return tx, nil
}

func scanTransaction(row pgx.Row) (*entity.Transaction, error) {
	var t entity.Transaction
	var termID, accountID, registerID, parentID, createdBy *string
	err := row.Scan(
		&t.ID, &t.UnitID, &t.TransactionNumber, &t.TransactionType, &t.EntryDate, &t.DueDate, &termID,
		&accountID, &registerID, &parentID, &t.Note, &t.BeforeTax, &t.TaxValue, &t.Total,
		&t.TotalPayment, &t.UnderPayment, &t.Change, &createdBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.TermID = derefString(termID)
	t.ChartOfAccountID = derefString(accountID)
	t.CashRegisterID = derefString(registerID)
	t.TransactionParentID = derefString(parentID)
	t.CreatedBy = derefString(createdBy)
	t.EntryDate = utc(t.EntryDate)
	t.CreatedAt = utc(t.CreatedAt)
	t.UpdatedAt = utc(t.UpdatedAt)
	if t.DueDate != nil {
		due := utc(*t.DueDate)
		t.DueDate = &due
	}
	return &t, nil
}

// scanDetail lee una línea; prefix son destinos de columnas que preceden a detailColumns.
func scanDetail(row pgx.Row, prefix ...any) (entity.TransactionDetail, error) {
	var d entity.TransactionDetail
	var uomID, itemID, accountID *string
	dest := append(prefix,
		&d.ID, &d.TransactionID, &d.LineNo, &uomID, &itemID, &accountID,
		&d.QtyInput, &d.ConversionQty, &d.Qty, &d.PriceInput, &d.DiscountInput, &d.BeforeDiscount, &d.Discount,
		&d.Amount, &d.TaxRate, &d.TaxValue, &d.Total, &d.Debit, &d.Credit, &d.Cogs, &d.Vector,
	)
	if err := row.Scan(dest...); err != nil {
		return d, err
	}
	d.MultipleUomID = derefString(uomID)
	d.ItemID = derefString(itemID)
	d.ChartOfAccountID = derefString(accountID)
	return d, nil
}

// execBatch envía el lote y verifica cada sentencia.
func execBatch(ctx context.Context, q Querier, batch *pgx.Batch, op string) error {
	results := q.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return mapError(op, err)
		}
	}
	return mapError(op, results.Close())
}
