package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var _ repository.PrefixRepository = (*PrefixRepo)(nil)

// PrefixRepo contadores de numeración sobre PostgreSQL (usable con pool o tx).
type PrefixRepo struct {
	q Querier
}

// NewPrefixRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPrefixRepository(q Querier) *PrefixRepo {
	return &PrefixRepo{q: q}
}

// Get obtiene el contador de (unidad, tipo) sin bloquear.
func (r *PrefixRepo) Get(ctx context.Context, unitID string, txType entity.TransactionType) (*entity.Prefix, error) {
	return r.get(ctx, "get prefix", `
		SELECT id, unit_id, transaction_type, prefix, last_code, last_reserved
		FROM prefixes WHERE unit_id = $1 AND transaction_type = $2`, unitID, txType)
}

// GetForUpdate obtiene el contador y bloquea la fila (SELECT FOR UPDATE).
func (r *PrefixRepo) GetForUpdate(ctx context.Context, unitID string, txType entity.TransactionType) (*entity.Prefix, error) {
	return r.get(ctx, "get prefix for update", `
		SELECT id, unit_id, transaction_type, prefix, last_code, last_reserved
		FROM prefixes WHERE unit_id = $1 AND transaction_type = $2
		FOR UPDATE`, unitID, txType)
}

func (r *PrefixRepo) get(ctx context.Context, op, query string, unitID string, txType entity.TransactionType) (*entity.Prefix, error) {
	var p entity.Prefix
	err := r.q.QueryRow(ctx, query, unitID, txType).Scan(
		&p.ID, &p.UnitID, &p.TransactionType, &p.Prefix, &p.LastCode, &p.LastReserved,
	)
	if err != nil {
		return nil, mapError(op, err)
	}
	return &p, nil
}

// Save inserta o actualiza el contador. LastCode y LastReserved nunca retroceden.
func (r *PrefixRepo) Save(ctx context.Context, p *entity.Prefix) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `
		INSERT INTO prefixes (id, unit_id, transaction_type, prefix, last_code, last_reserved)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (unit_id, transaction_type) DO UPDATE SET
			prefix = EXCLUDED.prefix,
			last_code = GREATEST(prefixes.last_code, EXCLUDED.last_code),
			last_reserved = GREATEST(prefixes.last_reserved, EXCLUDED.last_reserved)
		RETURNING id, last_code, last_reserved`
	err := r.q.QueryRow(ctx, query, p.ID, p.UnitID, p.TransactionType, p.Prefix, p.LastCode, p.LastReserved).
		Scan(&p.ID, &p.LastCode, &p.LastReserved)
	return mapError("save prefix", err)
}
