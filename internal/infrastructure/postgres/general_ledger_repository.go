package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var _ repository.GeneralLedgerRepository = (*GeneralLedgerRepo)(nil)

// GeneralLedgerRepo libro mayor por transacción sobre PostgreSQL (usable con pool o tx).
type GeneralLedgerRepo struct {
	q Querier
}

// NewGeneralLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewGeneralLedgerRepository(q Querier) *GeneralLedgerRepo {
	return &GeneralLedgerRepo{q: q}
}

// Replace borra el libro mayor previo de la transacción e inserta el nuevo con sus líneas.
func (r *GeneralLedgerRepo) Replace(ctx context.Context, gl *entity.GeneralLedger) error {
	if err := r.DeleteByTransaction(ctx, gl.TransactionID); err != nil {
		return err
	}
	if gl.ID == "" {
		gl.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO general_ledgers (id, unit_id, transaction_id, entry_date, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		gl.ID, gl.UnitID, gl.TransactionID, gl.EntryDate, gl.CreatedAt,
	)
	if err != nil {
		return mapError("insert general ledger", err)
	}
	if len(gl.Details) == 0 {
		return nil
	}
	query := `
		INSERT INTO general_ledger_details (id, general_ledger_id, chart_of_account_id, amount, vector, settlement)
		VALUES ($1, $2, $3, $4, $5, $6)`
	batch := &pgx.Batch{}
	for i := range gl.Details {
		d := &gl.Details[i]
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		d.GeneralLedgerID = gl.ID
		batch.Queue(query, d.ID, gl.ID, d.ChartOfAccountID, d.Amount, d.Vector, d.Settlement)
	}
	return execBatch(ctx, r.q, batch, "insert general ledger detail")
}

// DeleteByTransaction borra el libro mayor de la transacción; las líneas caen en cascada.
func (r *GeneralLedgerRepo) DeleteByTransaction(ctx context.Context, transactionID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM general_ledgers WHERE transaction_id = $1`, transactionID)
	return mapError("delete general ledger", err)
}

// GetByTransaction libro mayor con sus líneas ordenadas por cuenta.
func (r *GeneralLedgerRepo) GetByTransaction(ctx context.Context, transactionID string) (*entity.GeneralLedger, error) {
	var gl entity.GeneralLedger
	err := r.q.QueryRow(ctx, `
		SELECT id, unit_id, transaction_id, entry_date, created_at
		FROM general_ledgers WHERE transaction_id = $1`, transactionID,
	).Scan(&gl.ID, &gl.UnitID, &gl.TransactionID, &gl.EntryDate, &gl.CreatedAt)
	if err != nil {
		return nil, mapError("get general ledger", err)
	}
	gl.EntryDate = utc(gl.EntryDate)
	gl.CreatedAt = utc(gl.CreatedAt)

	rows, err := r.q.Query(ctx, `
		SELECT id, general_ledger_id, chart_of_account_id, amount, vector, settlement
		FROM general_ledger_details WHERE general_ledger_id = $1
		ORDER BY settlement, chart_of_account_id, vector`, gl.ID)
	if err != nil {
		return nil, mapError("list general ledger details", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d entity.GeneralLedgerDetail
		if err := rows.Scan(&d.ID, &d.GeneralLedgerID, &d.ChartOfAccountID, &d.Amount, &d.Vector, &d.Settlement); err != nil {
			return nil, fmt.Errorf("scan general ledger detail: %w", err)
		}
		gl.Details = append(gl.Details, d)
	}
	return &gl, rows.Err()
}
