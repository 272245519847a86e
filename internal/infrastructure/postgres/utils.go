package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
)

// Códigos SQLSTATE que el adaptador traduce a errores de dominio.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// transactionNumberConstraint índice único (unit_id, transaction_number).
const transactionNumberConstraint = "transactions_unit_number_key"

func pgCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	code, _ := pgCode(err)
	return code == codeUniqueViolation
}

// isRetryable conflicto de serialización o deadlock: el llamador puede reintentar la operación completa.
func isRetryable(err error) bool {
	code, _ := pgCode(err)
	return code == codeSerializationFailure || code == codeDeadlockDetected
}

// mapError traduce errores de PostgreSQL a los errores de dominio y agrega contexto.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	code, constraint := pgCode(err)
	switch {
	case code == codeUniqueViolation && constraint == transactionNumberConstraint:
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateTransactionNumber)
	case code == codeUniqueViolation:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrInvalidInput, err)
	case code == codeForeignKeyViolation:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrNotFound, err)
	case isRetryable(err):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrRetryable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// nullString guarda "" como NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// utc normaliza las fechas leídas de columnas TIMESTAMPTZ.
func utc(t time.Time) time.Time {
	return t.UTC()
}
