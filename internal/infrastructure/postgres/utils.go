package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isCheckViolation detecta el CHECK (quantity >= 0) de la tabla de inventario (23514).
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// nullIfEmpty convierte "" en NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullCategory(c entity.Category) *string {
	return nullIfEmpty(string(c))
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
