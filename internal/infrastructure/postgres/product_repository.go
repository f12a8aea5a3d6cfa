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

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, company_id, code, name, unit, purchase_price, sale_price, safe_stock, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.CompanyID, product.Code, product.Name, product.Unit,
		product.PurchasePrice, product.SalePrice, product.SafeStock, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetByCompanyAndCode obtiene un producto por empresa y código.
func (r *ProductRepo) GetByCompanyAndCode(ctx context.Context, companyID, code string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE company_id = $1 AND code = $2`
	p, err := scanProduct(r.q.QueryRow(ctx, query, companyID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by code: %w", err)
	}
	return p, nil
}

// Update actualiza datos de catálogo. Las cantidades no viven aquí (se manejan vía movimientos).
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products SET name = $2, unit = $3, purchase_price = $4, sale_price = $5, safe_stock = $6, updated_at = $7
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.Name, product.Unit, product.PurchasePrice, product.SalePrice,
		product.SafeStock, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// ListByCompany lista productos por empresa con paginación.
func (r *ProductRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products WHERE company_id = $1 ORDER BY code LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.CompanyID, &p.Code, &p.Name, &p.Unit,
		&p.PurchasePrice, &p.SalePrice, &p.SafeStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
