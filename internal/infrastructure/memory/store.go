// Package memory implementa los puertos de persistencia en memoria. Cada Run toma el lock
// exclusivo del store (escritores serializados) y restaura la foto previa si fn falla.
// Se usa en pruebas y con STORE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

type prefixKey struct {
	UnitID string
	Type   entity.TransactionType
}

type state struct {
	transactions map[string]entity.Transaction
	details      map[string][]entity.TransactionDetail // por TransactionID
	lots         map[string]entity.ItemCogs
	edges        map[string]entity.ItemCogsDetail
	ledgers      map[string]entity.GeneralLedger // por TransactionID
	prefixes     map[prefixKey]entity.Prefix
	closings     []entity.FinancialClosing
	items        map[string]entity.Item
	uoms         map[string]entity.MultipleUom
	terms        map[string]entity.Term
	settings     map[string]entity.UnitSetting
}

func newState() *state {
	return &state{
		transactions: map[string]entity.Transaction{},
		details:      map[string][]entity.TransactionDetail{},
		lots:         map[string]entity.ItemCogs{},
		edges:        map[string]entity.ItemCogsDetail{},
		ledgers:      map[string]entity.GeneralLedger{},
		prefixes:     map[prefixKey]entity.Prefix{},
		items:        map[string]entity.Item{},
		uoms:         map[string]entity.MultipleUom{},
		terms:        map[string]entity.Term{},
		settings:     map[string]entity.UnitSetting{},
	}
}

// clone copia profunda de los contenedores; los decimal.Decimal son inmutables y se comparten.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.transactions {
		if v.DueDate != nil {
			d := *v.DueDate
			v.DueDate = &d
		}
		c.transactions[k] = v
	}
	for k, v := range s.details {
		c.details[k] = append([]entity.TransactionDetail(nil), v...)
	}
	for k, v := range s.lots {
		c.lots[k] = v
	}
	for k, v := range s.edges {
		c.edges[k] = v
	}
	for k, v := range s.ledgers {
		v.Details = append([]entity.GeneralLedgerDetail(nil), v.Details...)
		c.ledgers[k] = v
	}
	for k, v := range s.prefixes {
		c.prefixes[k] = v
	}
	c.closings = append([]entity.FinancialClosing(nil), s.closings...)
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.uoms {
		c.uoms[k] = v
	}
	for k, v := range s.terms {
		c.terms[k] = v
	}
	for k, v := range s.settings {
		c.settings[k] = v
	}
	return c
}

// Store base de datos en memoria con semántica de transacción serializable.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn con repositorios sobre el estado actual; si fn devuelve error el estado
// vuelve a la foto tomada al inicio.
func (s *Store) Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&unitOfWork{st: s.st}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// ─── Datos maestros (fuera del alcance del motor, se cargan directamente) ────

// PutItem registra un ítem.
func (s *Store) PutItem(it entity.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.items[it.ID] = it
}

// PutMultipleUom registra una unidad de medida de un ítem.
func (s *Store) PutMultipleUom(u entity.MultipleUom) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.uoms[u.ID] = u
}

// PutTerm registra una condición de pago.
func (s *Store) PutTerm(t entity.Term) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.terms[t.ID] = t
}

// PutSetting registra la configuración de una unidad.
func (s *Store) PutSetting(us entity.UnitSetting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.settings[us.UnitID] = us
}

// AddClosing registra un cierre financiero.
func (s *Store) AddClosing(fc entity.FinancialClosing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.closings = append(s.st.closings, fc)
}

type unitOfWork struct {
	st *state
}

func (u *unitOfWork) Transactions() repository.TransactionRepository { return transactionRepo{u.st} }
func (u *unitOfWork) Lots() repository.ItemCogsRepository { return lotRepo{u.st} }
func (u *unitOfWork) Ledgers() repository.GeneralLedgerRepository { return ledgerRepo{u.st} }
func (u *unitOfWork) Prefixes() repository.PrefixRepository { return prefixRepo{u.st} }
func (u *unitOfWork) Closings() repository.FinancialClosingRepository { return closingRepo{u.st} }
func (u *unitOfWork) Items() repository.ItemRepository { return itemRepo{u.st} }
func (u *unitOfWork) Terms() repository.TermRepository { return termRepo{u.st} }
func (u *unitOfWork) Settings() repository.SettingRepository { return settingRepo{u.st} }
