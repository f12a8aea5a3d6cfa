package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo implementación de InventoryRepository sobre PostgreSQL (usable con pool o tx).
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador de inventario. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

// GetQuantity cantidad actual; 0 si el par nunca tuvo movimientos.
func (r *InventoryRepo) GetQuantity(ctx context.Context, companyID, productID string, category entity.Category) (int64, error) {
	query := `
		SELECT quantity FROM warehouse_inventory
		WHERE company_id = $1 AND product_id = $2 AND category = $3`
	var qty int64
	err := r.q.QueryRow(ctx, query, companyID, productID, string(category)).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get inventory: %w", err)
	}
	return qty, nil
}

// GetForUpdate crea la fila en 0 si no existe y la bloquea (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, companyID, productID string, category entity.Category) (int64, error) {
	ensure := `
		INSERT INTO warehouse_inventory (company_id, product_id, category, quantity, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (company_id, product_id, category) DO NOTHING`
	if _, err := r.q.Exec(ctx, ensure, companyID, productID, string(category)); err != nil {
		return 0, fmt.Errorf("ensure inventory row: %w", err)
	}
	query := `
		SELECT quantity FROM warehouse_inventory
		WHERE company_id = $1 AND product_id = $2 AND category = $3
		FOR UPDATE`
	var qty int64
	if err := r.q.QueryRow(ctx, query, companyID, productID, string(category)).Scan(&qty); err != nil {
		return 0, fmt.Errorf("get inventory for update: %w", err)
	}
	return qty, nil
}

// SetQuantity inserta o reemplaza la cantidad del par.
func (r *InventoryRepo) SetQuantity(ctx context.Context, companyID, productID string, category entity.Category, quantity int64, actorID string) error {
	query := `
		INSERT INTO warehouse_inventory (company_id, product_id, category, quantity, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (company_id, product_id, category)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_by = EXCLUDED.updated_by, updated_at = now()`
	_, err := r.q.Exec(ctx, query, companyID, productID, string(category), quantity, nullIfEmpty(actorID))
	if err != nil {
		if isCheckViolation(err) {
			return domain.NewValidationError("quantity", "la cantidad no puede ser negativa")
		}
		return fmt.Errorf("set inventory: %w", err)
	}
	return nil
}

// Increment suma delta con un upsert atómico y devuelve la cantidad resultante.
func (r *InventoryRepo) Increment(ctx context.Context, companyID, productID string, category entity.Category, delta int64, actorID string) (int64, error) {
	query := `
		INSERT INTO warehouse_inventory (company_id, product_id, category, quantity, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (company_id, product_id, category)
		DO UPDATE SET quantity = warehouse_inventory.quantity + EXCLUDED.quantity,
			updated_by = EXCLUDED.updated_by, updated_at = now()
		RETURNING quantity`
	var qty int64
	err := r.q.QueryRow(ctx, query, companyID, productID, string(category), delta, nullIfEmpty(actorID)).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("increment inventory: %w", err)
	}
	return qty, nil
}

// DecrementIfAvailable resta solo si quantity >= q; sin fila afectada devuelve ok=false.
func (r *InventoryRepo) DecrementIfAvailable(ctx context.Context, companyID, productID string, category entity.Category, quantity int64, actorID string) (int64, bool, error) {
	query := `
		UPDATE warehouse_inventory
		SET quantity = quantity - $4, updated_by = $5, updated_at = now()
		WHERE company_id = $1 AND product_id = $2 AND category = $3 AND quantity >= $4
		RETURNING quantity`
	var qty int64
	err := r.q.QueryRow(ctx, query, companyID, productID, string(category), quantity, nullIfEmpty(actorID)).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("decrement inventory: %w", err)
	}
	return qty, true, nil
}

// LockProduct bloquea la fila del producto. FOR NO KEY UPDATE no choca con los FOR KEY SHARE
// de claves foráneas; sí con otra entrada del mismo producto, que espera al commit.
func (r *InventoryRepo) LockProduct(ctx context.Context, companyID, productID string) error {
	query := `SELECT id FROM products WHERE id = $1 AND company_id = $2 FOR NO KEY UPDATE`
	var id string
	if err := r.q.QueryRow(ctx, query, productID, companyID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock product: %w", err)
	}
	return nil
}

// ListByProduct registros existentes del producto (una fila por categoría tocada).
func (r *InventoryRepo) ListByProduct(ctx context.Context, companyID, productID string) ([]entity.InventoryRecord, error) {
	query := `
		SELECT company_id, product_id, category, quantity, updated_by, updated_at
		FROM warehouse_inventory
		WHERE company_id = $1 AND product_id = $2
		ORDER BY category`
	return r.list(ctx, "list inventory by product", query, companyID, productID)
}

// ListByCompany todos los registros de la empresa, usado por la conciliación.
func (r *InventoryRepo) ListByCompany(ctx context.Context, companyID string) ([]entity.InventoryRecord, error) {
	query := `
		SELECT company_id, product_id, category, quantity, updated_by, updated_at
		FROM warehouse_inventory
		WHERE company_id = $1
		ORDER BY product_id, category`
	return r.list(ctx, "list inventory by company", query, companyID)
}

func (r *InventoryRepo) list(ctx context.Context, op, query string, args ...any) ([]entity.InventoryRecord, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []entity.InventoryRecord
	for rows.Next() {
		var (
			rec       entity.InventoryRecord
			category  string
			updatedBy *string
		)
		if err := rows.Scan(&rec.CompanyID, &rec.ProductID, &category, &rec.Quantity, &updatedBy, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rec.Category = entity.Category(category)
		rec.UpdatedBy = derefString(updatedBy)
		list = append(list, rec)
	}
	return list, rows.Err()
}
