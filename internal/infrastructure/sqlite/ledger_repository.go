package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const ledgerColumns = `id, company_id, product_id, type, quantity, from_category, to_category,
	note, reference, event_date, created_at, created_by`

// LedgerRepo kardex sobre SQLite. Los triggers del esquema rechazan UPDATE y DELETE.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador del kardex.
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

func (r *LedgerRepo) Append(ctx context.Context, e *entity.LedgerEntry) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO stock_ledger (`+ledgerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CompanyID, e.ProductID, string(e.Type), e.Quantity,
		nullIfEmpty(string(e.FromCategory)), nullIfEmpty(string(e.ToCategory)),
		e.Note, nullIfEmpty(e.Reference), toNanos(e.EventDate), toNanos(e.CreatedAt), nullIfEmpty(e.CreatedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (r *LedgerRepo) HasProductEntries(ctx context.Context, companyID, productID string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM stock_ledger WHERE company_id = ? AND product_id = ?)`,
		companyID, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ledger exists: %w", err)
	}
	return exists, nil
}

func (r *LedgerRepo) ListByProduct(ctx context.Context, companyID, productID string, filter repository.LedgerFilter, after *repository.LedgerCursor, limit int) ([]entity.LedgerEntry, error) {
	conds := []string{"company_id = ?", "product_id = ?"}
	args := []any{companyID, productID}
	if len(filter.Types) > 0 {
		marks := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			marks[i] = "?"
			args = append(args, string(t))
		}
		conds = append(conds, "type IN ("+strings.Join(marks, ", ")+")")
	}
	if filter.From != nil {
		conds = append(conds, "event_date >= ?")
		args = append(args, toNanos(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, "event_date <= ?")
		args = append(args, toNanos(*filter.To))
	}
	return r.page(ctx, "list ledger by product", conds, args, after, limit)
}

func (r *LedgerRepo) ListByCompany(ctx context.Context, companyID string, after *repository.LedgerCursor, limit int) ([]entity.LedgerEntry, error) {
	return r.page(ctx, "list ledger by company", []string{"company_id = ?"}, []any{companyID}, after, limit)
}

func (r *LedgerRepo) page(ctx context.Context, op string, conds []string, args []any, after *repository.LedgerCursor, limit int) ([]entity.LedgerEntry, error) {
	if after != nil {
		conds = append(conds, "(created_at, id) < (?, ?)")
		args = append(args, toNanos(after.CreatedAt), after.ID)
	}
	query := "SELECT " + ledgerColumns + " FROM stock_ledger WHERE " + strings.Join(conds, " AND ") +
		" ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []entity.LedgerEntry
	for rows.Next() {
		var (
			e                        entity.LedgerEntry
			eventType                string
			from, to, ref, createdBy sql.NullString
			eventDate, createdAt     int64
		)
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.ProductID, &eventType, &e.Quantity, &from, &to,
			&e.Note, &ref, &eventDate, &createdAt, &createdBy); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		e.Type = entity.EventType(eventType)
		e.FromCategory = entity.Category(from.String)
		e.ToCategory = entity.Category(to.String)
		e.Reference = ref.String
		e.CreatedBy = createdBy.String
		e.EventDate = fromNanos(eventDate)
		e.CreatedAt = fromNanos(createdAt)
		list = append(list, e)
	}
	return list, rows.Err()
}
