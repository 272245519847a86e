package repository

import "context"

// UnitOfWork agrupa los repositorios atados a una misma transacción de base de datos.
// El motor de costos, el libro mayor y el orquestador reciben la misma instancia.
type UnitOfWork interface {
	Transactions() TransactionRepository
	Lots() ItemCogsRepository
	Ledgers() GeneralLedgerRepository
	Prefixes() PrefixRepository
	Closings() FinancialClosingRepository
	Items() ItemRepository
	Terms() TermRepository
	Settings() SettingRepository
}

// TxRunner ejecuta fn dentro de una transacción serializable.
// Si fn devuelve error no queda ningún efecto persistido.
type TxRunner interface {
	Run(ctx context.Context, fn func(uow UnitOfWork) error) error
}
