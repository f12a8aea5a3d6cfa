package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo InventoryRepository sobre SQLite (usable con db o tx).
type InventoryRepo struct {
	q   Querier
	now func() time.Time
}

// NewInventoryRepository construye el adaptador de inventario.
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q, now: time.Now}
}

func (r *InventoryRepo) GetQuantity(ctx context.Context, companyID, productID string, category entity.Category) (int64, error) {
	var qty int64
	err := r.q.QueryRowContext(ctx,
		`SELECT quantity FROM warehouse_inventory WHERE company_id = ? AND product_id = ? AND category = ?`,
		companyID, productID, string(category),
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get inventory: %w", err)
	}
	return qty, nil
}

// GetForUpdate crea la fila en 0 si falta. El bloqueo lo da la transacción IMMEDIATE.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, companyID, productID string, category entity.Category) (int64, error) {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO warehouse_inventory (company_id, product_id, category, quantity, updated_at)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT (company_id, product_id, category) DO NOTHING`,
		companyID, productID, string(category), toNanos(r.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("ensure inventory row: %w", err)
	}
	return r.GetQuantity(ctx, companyID, productID, category)
}

func (r *InventoryRepo) SetQuantity(ctx context.Context, companyID, productID string, category entity.Category, quantity int64, actorID string) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO warehouse_inventory (company_id, product_id, category, quantity, updated_by, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (company_id, product_id, category)
		DO UPDATE SET quantity = excluded.quantity, updated_by = excluded.updated_by, updated_at = excluded.updated_at`,
		companyID, productID, string(category), quantity, nullIfEmpty(actorID), toNanos(r.now()),
	)
	if err != nil {
		return fmt.Errorf("set inventory: %w", err)
	}
	return nil
}

func (r *InventoryRepo) Increment(ctx context.Context, companyID, productID string, category entity.Category, delta int64, actorID string) (int64, error) {
	var qty int64
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO warehouse_inventory (company_id, product_id, category, quantity, updated_by, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (company_id, product_id, category)
		DO UPDATE SET quantity = warehouse_inventory.quantity + excluded.quantity,
			updated_by = excluded.updated_by, updated_at = excluded.updated_at
		RETURNING quantity`,
		companyID, productID, string(category), delta, nullIfEmpty(actorID), toNanos(r.now()),
	).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("increment inventory: %w", err)
	}
	return qty, nil
}

func (r *InventoryRepo) DecrementIfAvailable(ctx context.Context, companyID, productID string, category entity.Category, quantity int64, actorID string) (int64, bool, error) {
	var qty int64
	err := r.q.QueryRowContext(ctx, `
		UPDATE warehouse_inventory
		SET quantity = quantity - ?, updated_by = ?, updated_at = ?
		WHERE company_id = ? AND product_id = ? AND category = ? AND quantity >= ?
		RETURNING quantity`,
		quantity, nullIfEmpty(actorID), toNanos(r.now()), companyID, productID, string(category), quantity,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("decrement inventory: %w", err)
	}
	return qty, true, nil
}

// LockProduct solo comprueba que el producto exista: BEGIN IMMEDIATE ya serializa a los escritores.
func (r *InventoryRepo) LockProduct(ctx context.Context, companyID, productID string) error {
	var id string
	err := r.q.QueryRowContext(ctx, `SELECT id FROM products WHERE id = ? AND company_id = ?`, productID, companyID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock product: %w", err)
	}
	return nil
}

func (r *InventoryRepo) ListByProduct(ctx context.Context, companyID, productID string) ([]entity.InventoryRecord, error) {
	return r.list(ctx, "list inventory by product", `
		SELECT company_id, product_id, category, quantity, updated_by, updated_at
		FROM warehouse_inventory WHERE company_id = ? AND product_id = ?
		ORDER BY category`, companyID, productID)
}

func (r *InventoryRepo) ListByCompany(ctx context.Context, companyID string) ([]entity.InventoryRecord, error) {
	return r.list(ctx, "list inventory by company", `
		SELECT company_id, product_id, category, quantity, updated_by, updated_at
		FROM warehouse_inventory WHERE company_id = ?
		ORDER BY product_id, category`, companyID)
}

func (r *InventoryRepo) list(ctx context.Context, op, query string, args ...any) ([]entity.InventoryRecord, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []entity.InventoryRecord
	for rows.Next() {
		var (
			rec       entity.InventoryRecord
			category  string
			updatedBy sql.NullString
			updatedAt int64
		)
		if err := rows.Scan(&rec.CompanyID, &rec.ProductID, &category, &rec.Quantity, &updatedBy, &updatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rec.Category = entity.Category(category)
		rec.UpdatedBy = updatedBy.String
		rec.UpdatedAt = fromNanos(updatedAt)
		list = append(list, rec)
	}
	return list, rows.Err()
}
