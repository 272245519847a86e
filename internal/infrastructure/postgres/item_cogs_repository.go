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

var _ repository.ItemCogsRepository = (*ItemCogsRepo)(nil)

const lotColumns = `id, unit_id, item_id, transaction_detail_id, qty, qty_static, cogs, date, created_at`

// ItemCogsRepo lotes de costo y sus consumos sobre PostgreSQL (usable con pool o tx).
type ItemCogsRepo struct {
	q Querier
}

// NewItemCogsRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemCogsRepository(q Querier) *ItemCogsRepo {
	return &ItemCogsRepo{q: q}
}

// Create persiste un lote nuevo.
func (r *ItemCogsRepo) Create(ctx context.Context, lot *entity.ItemCogs) error {
	query := `INSERT INTO item_cogs (` + lotColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		lot.ID, lot.UnitID, lot.ItemID, lot.TransactionDetailID, lot.Qty, lot.QtyStatic, lot.Cogs,
		lot.Date, lot.CreatedAt,
	)
	return mapError("insert item cogs", err)
}

// GetByDetail lote creado por la línea de entrada.
func (r *ItemCogsRepo) GetByDetail(ctx context.Context, transactionDetailID string) (*entity.ItemCogs, error) {
	query := `SELECT ` + lotColumns + ` FROM item_cogs WHERE transaction_detail_id = $1 LIMIT 1 FOR UPDATE`
	var l entity.ItemCogs
	err := r.q.QueryRow(ctx, query, transactionDetailID).Scan(&l.ID, &l.UnitID, &l.ItemID, &l.TransactionDetailID,
		&l.Qty, &l.QtyStatic, &l.Cogs, &l.Date, &l.CreatedAt)
	if err != nil {
		return nil, mapError("get lot by detail", err)
	}
	l.Date = utc(l.Date)
	l.CreatedAt = utc(l.CreatedAt)
	return &l, nil
}

// UpdateSource reescribe el lote de una línea editada; ID y created_at no cambian.
func (r *ItemCogsRepo) UpdateSource(ctx context.Context, lot *entity.ItemCogs) error {
	query := `UPDATE item_cogs SET date = $2, qty_static = $3, qty = $4, cogs = $5 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, lot.ID, lot.Date, lot.QtyStatic, lot.Qty, lot.Cogs)
	if err != nil {
		return mapError("update lot source", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update lot source %s: %w", lot.ID, domain.ErrNotFound)
	}
	return nil
}

// ListByItem todos los lotes del ítem, del más antiguo al más reciente.
func (r *ItemCogsRepo) ListByItem(ctx context.Context, unitID, itemID string) ([]entity.ItemCogs, error) {
	query := `
		SELECT ` + lotColumns + ` FROM item_cogs
		WHERE unit_id = $1 AND item_id = $2
		ORDER BY date, created_at, id
		FOR UPDATE`
	return r.listLots(ctx, "list lots", query, unitID, itemID)
}

// ListConsumable lotes con remanente y fecha <= asOf, del más antiguo al más reciente.
func (r *ItemCogsRepo) ListConsumable(ctx context.Context, unitID, itemID string, asOf time.Time) ([]entity.ItemCogs, error) {
	query := `
		SELECT ` + lotColumns + ` FROM item_cogs
		WHERE unit_id = $1 AND item_id = $2 AND qty > 0 AND date <= $3
		ORDER BY date, created_at, id`
	return r.listLots(ctx, "list consumable lots", query, unitID, itemID, asOf)
}

func (r *ItemCogsRepo) listLots(ctx context.Context, op, query string, args ...any) ([]entity.ItemCogs, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()
	var list []entity.ItemCogs
	for rows.Next() {
		var l entity.ItemCogs
		if err := rows.Scan(&l.ID, &l.UnitID, &l.ItemID, &l.TransactionDetailID, &l.Qty, &l.QtyStatic,
			&l.Cogs, &l.Date, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		l.Date = utc(l.Date)
		l.CreatedAt = utc(l.CreatedAt)
		list = append(list, l)
	}
	return list, rows.Err()
}

// UpdateQty fija el remanente del lote.
func (r *ItemCogsRepo) UpdateQty(ctx context.Context, id string, qty decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE item_cogs SET qty = $2 WHERE id = $1`, id, qty)
	if err != nil {
		return mapError("update lot qty", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update lot qty %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteByDetail borra los lotes creados por una línea; sus consumos caen en cascada.
func (r *ItemCogsRepo) DeleteByDetail(ctx context.Context, transactionDetailID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM item_cogs WHERE transaction_detail_id = $1`, transactionDetailID)
	return mapError("delete lots by detail", err)
}

// ListConsumptions consumos de todos los lotes del ítem.
func (r *ItemCogsRepo) ListConsumptions(ctx context.Context, unitID, itemID string) ([]entity.ItemCogsDetail, error) {
	query := `
		SELECT e.id, e.item_cogs_id, e.transaction_detail_id, e.qty, e.cogs, e.date
		FROM item_cogs_details e
		JOIN item_cogs l ON l.id = e.item_cogs_id
		WHERE l.unit_id = $1 AND l.item_id = $2
		ORDER BY e.id`
	rows, err := r.q.Query(ctx, query, unitID, itemID)
	if err != nil {
		return nil, mapError("list consumptions", err)
	}
	defer rows.Close()
	var list []entity.ItemCogsDetail
	for rows.Next() {
		var e entity.ItemCogsDetail
		if err := rows.Scan(&e.ID, &e.ItemCogsID, &e.TransactionDetailID, &e.Qty, &e.Cogs, &e.Date); err != nil {
			return nil, fmt.Errorf("scan consumption: %w", err)
		}
		e.Date = utc(e.Date)
		list = append(list, e)
	}
	return list, rows.Err()
}

// CreateConsumptions inserta los consumos en un solo batch.
func (r *ItemCogsRepo) CreateConsumptions(ctx context.Context, edges []entity.ItemCogsDetail) error {
	if len(edges) == 0 {
		return nil
	}
	query := `
		INSERT INTO item_cogs_details (id, item_cogs_id, transaction_detail_id, qty, cogs, date)
		VALUES ($1, $2, $3, $4, $5, $6)`
	batch := &pgx.Batch{}
	for _, e := range edges {
		batch.Queue(query, e.ID, e.ItemCogsID, e.TransactionDetailID, e.Qty, e.Cogs, e.Date)
	}
	return execBatch(ctx, r.q, batch, "insert consumption")
}

// DeleteConsumptions borra consumos por ID.
func (r *ItemCogsRepo) DeleteConsumptions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `DELETE FROM item_cogs_details WHERE id = ANY($1)`, ids)
	return mapError("delete consumptions", err)
}
