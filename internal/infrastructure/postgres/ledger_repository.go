package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const ledgerColumns = `id, company_id, product_id, type, quantity, from_category, to_category,
	note, reference, event_date, created_at, created_by`

// LedgerRepo implementación del kardex sobre PostgreSQL. Solo INSERT y SELECT.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador del kardex. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append inserta un asiento.
func (r *LedgerRepo) Append(ctx context.Context, e *entity.LedgerEntry) error {
	query := `
		INSERT INTO stock_ledger (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.CompanyID, e.ProductID, string(e.Type), e.Quantity,
		nullCategory(e.FromCategory), nullCategory(e.ToCategory),
		e.Note, nullIfEmpty(e.Reference), e.EventDate, e.CreatedAt, nullIfEmpty(e.CreatedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// HasProductEntries indica si el producto ya tiene asientos en la empresa.
func (r *LedgerRepo) HasProductEntries(ctx context.Context, companyID, productID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM stock_ledger WHERE company_id = $1 AND product_id = $2)`
	var exists bool
	if err := r.q.QueryRow(ctx, query, companyID, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ledger exists: %w", err)
	}
	return exists, nil
}

// ListByProduct página del kardex de un producto, más reciente primero.
func (r *LedgerRepo) ListByProduct(ctx context.Context, companyID, productID string, filter repository.LedgerFilter, after *repository.LedgerCursor, limit int) ([]entity.LedgerEntry, error) {
	conds := []string{"company_id = $1", "product_id = $2"}
	args := []any{companyID, productID}
	pos := 3
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		conds = append(conds, fmt.Sprintf("type = ANY($%d)", pos))
		args = append(args, types)
		pos++
	}
	if filter.From != nil {
		conds = append(conds, fmt.Sprintf("event_date >= $%d", pos))
		args = append(args, *filter.From)
		pos++
	}
	if filter.To != nil {
		conds = append(conds, fmt.Sprintf("event_date <= $%d", pos))
		args = append(args, *filter.To)
		pos++
	}
	return r.page(ctx, "list ledger by product", conds, args, pos, after, limit)
}

// ListByCompany página del kardex completo de la empresa, más reciente primero.
func (r *LedgerRepo) ListByCompany(ctx context.Context, companyID string, after *repository.LedgerCursor, limit int) ([]entity.LedgerEntry, error) {
	return r.page(ctx, "list ledger by company", []string{"company_id = $1"}, []any{companyID}, 2, after, limit)
}

func (r *LedgerRepo) page(ctx context.Context, op string, conds []string, args []any, pos int, after *repository.LedgerCursor, limit int) ([]entity.LedgerEntry, error) {
	if after != nil {
		conds = append(conds, fmt.Sprintf("(created_at, id) < ($%d, $%d)", pos, pos+1))
		args = append(args, after.CreatedAt, after.ID)
		pos += 2
	}
	query := "SELECT " + ledgerColumns + " FROM stock_ledger WHERE " + strings.Join(conds, " AND ") +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", pos)
	args = append(args, limit)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []entity.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func scanLedgerEntry(row pgx.Row) (entity.LedgerEntry, error) {
	var (
		e                        entity.LedgerEntry
		eventType                string
		from, to, ref, createdBy *string
	)
	err := row.Scan(&e.ID, &e.CompanyID, &e.ProductID, &eventType, &e.Quantity, &from, &to,
		&e.Note, &ref, &e.EventDate, &e.CreatedAt, &createdBy)
	if err != nil {
		return e, err
	}
	e.Type = entity.EventType(eventType)
	e.FromCategory = entity.Category(derefString(from))
	e.ToCategory = entity.Category(derefString(to))
	e.Reference = derefString(ref)
	e.CreatedBy = derefString(createdBy)
	e.EventDate = e.EventDate.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}
