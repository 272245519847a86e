package guard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

// SequenceDigits ancho del consecutivo en el número de transacción.
const SequenceDigits = 8

// defaultPrefixes prefijo usado cuando la unidad aún no configuró uno para el tipo.
var defaultPrefixes = map[entity.TransactionType]string{
	entity.TransactionTypeSaleInvoice:                "SI",
	entity.TransactionTypePurchaseInvoice:            "PI",
	entity.TransactionTypeSaleReturn:                 "SR",
	entity.TransactionTypePurchaseReturn:             "PR",
	entity.TransactionTypeReceivablePayment:          "RP",
	entity.TransactionTypeDebtPayment:                "DP",
	entity.TransactionTypeRevenue:                    "RV",
	entity.TransactionTypeExpense:                    "EX",
	entity.TransactionTypeJournalEntry:               "JE",
	entity.TransactionTypeOpenRegister:               "OR",
	entity.TransactionTypeCloseRegister:              "CR",
	entity.TransactionTypeBeginningBalanceStock:      "BBS",
	entity.TransactionTypeBeginningBalanceDebt:       "BBD",
	entity.TransactionTypeBeginningBalanceReceivable: "BBR",
	entity.TransactionTypeStockOpname:                "SO",
	entity.TransactionTypeStockAdjustment:            "SA",
}

// Sequencer numeración {prefix}/{yyyyMM}/{consecutivo de 8 dígitos} por (unidad, tipo).
// LastCode sólo avanza con Commit dentro de la transacción que usa el número.
// Reserve avanza LastReserved en su propia transacción corta, así un intento abortado no
// vuelve a entregar su número.
type Sequencer struct {
	runner repository.TxRunner
	upper  cases.Caser
}

// NewSequencer construye el secuenciador; runner se usa sólo para reservas.
func NewSequencer(runner repository.TxRunner) *Sequencer {
	return &Sequencer{runner: runner, upper: cases.Upper(language.Und)}
}

// Peek devuelve el siguiente número sin mutar estado (vista previa para el cliente).
func (s *Sequencer) Peek(ctx context.Context, prefixes repository.PrefixRepository, unitID string, txType entity.TransactionType, date time.Time) (string, error) {
	p, err := s.load(ctx, prefixes.Get, unitID, txType)
	if err != nil {
		return "", err
	}
	return s.Format(p.Prefix, date, next(p)), nil
}

// Reserve entrega el siguiente número y lo marca como reservado en una transacción propia.
func (s *Sequencer) Reserve(ctx context.Context, unitID string, txType entity.TransactionType, date time.Time) (string, error) {
	var number string
	err := s.runner.Run(ctx, func(uow repository.UnitOfWork) error {
		p, err := s.load(ctx, uow.Prefixes().GetForUpdate, unitID, txType)
		if err != nil {
			return err
		}
		n := next(p)
		p.LastReserved = n
		if err := uow.Prefixes().Save(ctx, p); err != nil {
			return fmt.Errorf("guardar reserva de prefijo: %w", err)
		}
		number = s.Format(p.Prefix, date, n)
		return nil
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

// Commit avanza LastCode al consecutivo de usedNumber; nunca retrocede.
// Un número sin dígitos finales (numeración manual) no afecta el contador.
func (s *Sequencer) Commit(ctx context.Context, prefixes repository.PrefixRepository, unitID string, txType entity.TransactionType, usedNumber string) error {
	n, ok := ParseSequence(usedNumber)
	if !ok {
		return nil
	}
	p, err := s.load(ctx, prefixes.GetForUpdate, unitID, txType)
	if err != nil {
		return err
	}
	if n <= p.LastCode {
		return nil
	}
	p.LastCode = n
	if err := prefixes.Save(ctx, p); err != nil {
		return fmt.Errorf("guardar prefijo: %w", err)
	}
	return nil
}

// Format arma el número de transacción.
func (s *Sequencer) Format(prefix string, date time.Time, n int64) string {
	return fmt.Sprintf("%s/%s/%0*d", s.upper.String(strings.TrimSpace(prefix)), date.UTC().Format("200601"), SequenceDigits, n)
}

// ParseSequence extrae el consecutivo (dígitos finales) de un número de transacción.
func ParseSequence(number string) (int64, bool) {
	end := len(number)
	start := end
	for start > 0 && unicode.IsDigit(rune(number[start-1])) {
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.ParseInt(number[start:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func next(p *entity.Prefix) int64 {
	if p.LastReserved > p.LastCode {
		return p.LastReserved + 1
	}
	return p.LastCode + 1
}

type prefixLoader func(ctx context.Context, unitID string, txType entity.TransactionType) (*entity.Prefix, error)

func (s *Sequencer) load(ctx context.Context, get prefixLoader, unitID string, txType entity.TransactionType) (*entity.Prefix, error) {
	p, err := get(ctx, unitID, txType)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("prefijo %s: %w", txType, err)
	}
	def, ok := defaultPrefixes[txType]
	if !ok {
		return nil, fmt.Errorf("tipo de transacción %q: %w", txType, domain.ErrInvalidInput)
	}
	return &entity.Prefix{ID: uuid.New().String(), UnitID: unitID, TransactionType: txType, Prefix: def}, nil
}
