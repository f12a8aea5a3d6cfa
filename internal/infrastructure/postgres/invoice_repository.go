package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, company_id, number, customer_name, status, payment_status, notes, total,
	stock_deducted, stock_deducted_at, created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera y sus líneas.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.CompanyID, invoice.Number, invoice.CustomerName,
		invoice.Status, invoice.PaymentStatus, invoice.Notes, invoice.Total,
		invoice.StockDeducted, invoice.StockDeductedAt, invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return r.insertItems(ctx, invoice.ID, invoice.Items)
}

// GetForUpdate carga la factura bloqueando la cabecera (SELECT FOR UPDATE).
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	return r.get(ctx, companyID, id, true)
}

// GetByID obtiene una factura completa por ID dentro de la empresa.
func (r *InvoiceRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	return r.get(ctx, companyID, id, false)
}

func (r *InvoiceRepo) get(ctx context.Context, companyID, id string, lock bool) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND company_id = $2`
	if lock {
		query += ` FOR UPDATE`
	}
	var inv entity.Invoice
	err := r.q.QueryRow(ctx, query, id, companyID).Scan(
		&inv.ID, &inv.CompanyID, &inv.Number, &inv.CustomerName,
		&inv.Status, &inv.PaymentStatus, &inv.Notes, &inv.Total,
		&inv.StockDeducted, &inv.StockDeductedAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	items, err := r.items(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return &inv, nil
}

// Update actualiza los campos editables de la cabecera.
func (r *InvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET status         = $2,
		    payment_status = $3,
		    notes          = $4,
		    customer_name  = $5,
		    total          = $6,
		    updated_at     = $7
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.Status, invoice.PaymentStatus, invoice.Notes,
		invoice.CustomerName, invoice.Total, invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// ReplaceItems borra las líneas actuales e inserta las nuevas.
func (r *InvoiceRepo) ReplaceItems(ctx context.Context, invoiceID string, items []entity.InvoiceItem) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return fmt.Errorf("delete invoice items: %w", err)
	}
	return r.insertItems(ctx, invoiceID, items)
}

// ClaimStockDeduction marca stock_deducted de forma condicional.
func (r *InvoiceRepo) ClaimStockDeduction(ctx context.Context, id string, at time.Time) (bool, error) {
	cmd, err := r.q.Exec(ctx,
		`UPDATE invoices SET stock_deducted = TRUE, stock_deducted_at = $2 WHERE id = $1 AND stock_deducted = FALSE`,
		id, at,
	)
	if err != nil {
		return false, fmt.Errorf("claim stock deduction: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *InvoiceRepo) insertItems(ctx context.Context, invoiceID string, items []entity.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (id, invoice_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		if _, err := r.q.Exec(ctx, query, it.ID, invoiceID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal); err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}
	return nil
}

func (r *InvoiceRepo) items(ctx context.Context, invoiceID string) ([]entity.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, product_id, quantity, unit_price, subtotal
		FROM invoice_items WHERE invoice_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, invoiceID)
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
