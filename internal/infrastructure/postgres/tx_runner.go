package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var (
	_ repository.TxRunner   = (*TxRunner)(nil)
	_ repository.UnitOfWork = (*UnitOfWork)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL serializable.
// Los conflictos de serialización se devuelven como domain.ErrRetryable; no reintenta.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia la transacción, ejecuta fn con repositorios atados a ella y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewUnitOfWork(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}

// UnitOfWork repositorios PostgreSQL sobre un mismo Querier (pool o tx).
type UnitOfWork struct {
	q Querier
}

// NewUnitOfWork construye la unidad de trabajo. Pasar pool o tx (Querier).
func NewUnitOfWork(q Querier) *UnitOfWork {
	return &UnitOfWork{q: q}
}

func (u *UnitOfWork) Transactions() repository.TransactionRepository {
	return NewTransactionRepository(u.q)
}

func (u *UnitOfWork) Lots() repository.ItemCogsRepository { return NewItemCogsRepository(u.q) }

func (u *UnitOfWork) Ledgers() repository.GeneralLedgerRepository {
	return NewGeneralLedgerRepository(u.q)
}

func (u *UnitOfWork) Prefixes() repository.PrefixRepository { return NewPrefixRepository(u.q) }

func (u *UnitOfWork) Closings() repository.FinancialClosingRepository {
	return NewFinancialClosingRepository(u.q)
}

func (u *UnitOfWork) Items() repository.ItemRepository { return NewItemRepository(u.q) }

func (u *UnitOfWork) Terms() repository.TermRepository { return NewTermRepository(u.q) }

func (u *UnitOfWork) Settings() repository.SettingRepository { return NewSettingRepository(u.q) }
