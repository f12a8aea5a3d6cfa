package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, company_id, number, customer_name, status, payment_status, notes, total,
	stock_deducted, stock_deducted_at, created_at, updated_at`

// InvoiceRepo InvoiceRepository sobre SQLite.
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador de facturas.
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	var deductedAt sql.NullInt64
	if inv.StockDeductedAt != nil {
		deductedAt = sql.NullInt64{Int64: toNanos(*inv.StockDeductedAt), Valid: true}
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO invoices (`+invoiceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.CompanyID, inv.Number, inv.CustomerName, inv.Status, inv.PaymentStatus,
		inv.Notes, inv.Total, inv.StockDeducted, deductedAt, toNanos(inv.CreatedAt), toNanos(inv.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return r.insertItems(ctx, inv.ID, inv.Items)
}

// GetForUpdate igual que GetByID: la transacción IMMEDIATE ya tiene el bloqueo de escritura.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r *InvoiceRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	var (
		inv                  entity.Invoice
		deductedAt           sql.NullInt64
		createdAt, updatedAt int64
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ? AND company_id = ?`, id, companyID,
	).Scan(&inv.ID, &inv.CompanyID, &inv.Number, &inv.CustomerName, &inv.Status, &inv.PaymentStatus,
		&inv.Notes, &inv.Total, &inv.StockDeducted, &deductedAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if deductedAt.Valid {
		t := fromNanos(deductedAt.Int64)
		inv.StockDeductedAt = &t
	}
	inv.CreatedAt = fromNanos(createdAt)
	inv.UpdatedAt = fromNanos(updatedAt)

	items, err := r.items(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return &inv, nil
}

func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE invoices
		SET status = ?, payment_status = ?, notes = ?, customer_name = ?, total = ?, updated_at = ?
		WHERE id = ?`,
		inv.Status, inv.PaymentStatus, inv.Notes, inv.CustomerName, inv.Total, toNanos(inv.UpdatedAt), inv.ID,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) ReplaceItems(ctx context.Context, invoiceID string, items []entity.InvoiceItem) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = ?`, invoiceID); err != nil {
		return fmt.Errorf("delete invoice items: %w", err)
	}
	return r.insertItems(ctx, invoiceID, items)
}

func (r *InvoiceRepo) ClaimStockDeduction(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE invoices SET stock_deducted = 1, stock_deducted_at = ? WHERE id = ? AND stock_deducted = 0`,
		toNanos(at), id,
	)
	if err != nil {
		return false, fmt.Errorf("claim stock deduction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim stock deduction: %w", err)
	}
	return n == 1, nil
}

func (r *InvoiceRepo) insertItems(ctx context.Context, invoiceID string, items []entity.InvoiceItem) error {
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO invoice_items (id, invoice_id, product_id, quantity, unit_price, subtotal)
			VALUES (?, ?, ?, ?, ?, ?)`,
			it.ID, invoiceID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}
	return nil
}

func (r *InvoiceRepo) items(ctx context.Context, invoiceID string) ([]entity.InvoiceItem, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, invoice_id, product_id, quantity, unit_price, subtotal
		FROM invoice_items WHERE invoice_id = ? ORDER BY rowid`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	var list []entity.InvoiceItem
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}
