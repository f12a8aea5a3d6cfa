package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// LedgerFilter filtros opcionales para consultar el kardex de un producto.
type LedgerFilter struct {
	Types []entity.EventType
	From  *time.Time // fecha de evento >= From
	To    *time.Time // fecha de evento <= To
}

// LedgerCursor posición de paginación por keyset (created_at DESC, id DESC).
// nil = primera página.
type LedgerCursor struct {
	CreatedAt time.Time
	ID        string
}

// LedgerRepository define el puerto del kardex. Solo inserción y lectura: no existe update ni delete.
type LedgerRepository interface {
	Append(ctx context.Context, entry *entity.LedgerEntry) error
	// HasProductEntries indica si el producto ya tiene algún asiento en la empresa.
	HasProductEntries(ctx context.Context, companyID, productID string) (bool, error)
	ListByProduct(ctx context.Context, companyID, productID string, filter LedgerFilter, after *LedgerCursor, limit int) ([]entity.LedgerEntry, error)
	ListByCompany(ctx context.Context, companyID string, after *LedgerCursor, limit int) ([]entity.LedgerEntry, error)
}
