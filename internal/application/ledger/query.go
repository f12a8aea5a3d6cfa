package ledger

import (
	"context"
	"iter"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// DefaultPageSize tamaño de página al recorrer el kardex.
const DefaultPageSize = 200

// QueryUseCase lectura del kardex (solo reportes; nunca modifica estado).
type QueryUseCase struct {
	ledgerRepo repository.LedgerRepository
	pageSize   int
}

// NewQueryUseCase construye el caso de uso. pageSize <= 0 usa DefaultPageSize.
func NewQueryUseCase(ledgerRepo repository.LedgerRepository, pageSize int) *QueryUseCase {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &QueryUseCase{ledgerRepo: ledgerRepo, pageSize: pageSize}
}

// QueryByProduct devuelve una secuencia perezosa, finita y reiniciable de asientos del producto,
// ordenada por fecha de creación descendente. Cada recorrido vuelve a consultar desde la primera página;
// las páginas se piden solo a medida que el consumidor avanza.
func (uc *QueryUseCase) QueryByProduct(ctx context.Context, companyID, productID string, filter repository.LedgerFilter) iter.Seq2[entity.LedgerEntry, error] {
	return paginate(ctx, uc.pageSize, func(after *repository.LedgerCursor, limit int) ([]entity.LedgerEntry, error) {
		return uc.ledgerRepo.ListByProduct(ctx, companyID, productID, filter, after, limit)
	})
}

// QueryByCompany recorre todo el kardex de la empresa (usado por la conciliación).
func (uc *QueryUseCase) QueryByCompany(ctx context.Context, companyID string) iter.Seq2[entity.LedgerEntry, error] {
	return paginate(ctx, uc.pageSize, func(after *repository.LedgerCursor, limit int) ([]entity.LedgerEntry, error) {
		return uc.ledgerRepo.ListByCompany(ctx, companyID, after, limit)
	})
}

// Collect materializa hasta limit asientos de la secuencia (limit <= 0 = todos).
func Collect(seq iter.Seq2[entity.LedgerEntry, error], limit int) ([]entity.LedgerEntry, error) {
	var out []entity.LedgerEntry
	for e, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func paginate(ctx context.Context, pageSize int, fetch func(after *repository.LedgerCursor, limit int) ([]entity.LedgerEntry, error)) iter.Seq2[entity.LedgerEntry, error] {
	return func(yield func(entity.LedgerEntry, error) bool) {
		var after *repository.LedgerCursor
		for {
			if err := ctx.Err(); err != nil {
				yield(entity.LedgerEntry{}, &domain.StorageError{Op: "query ledger", Err: err})
				return
			}
			page, err := fetch(after, pageSize)
			if err != nil {
				yield(entity.LedgerEntry{}, &domain.StorageError{Op: "query ledger", Err: err})
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			last := page[len(page)-1]
			after = &repository.LedgerCursor{CreatedAt: last.CreatedAt, ID: last.ID}
		}
	}
}
