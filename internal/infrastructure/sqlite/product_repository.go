package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, company_id, code, name, unit, purchase_price, sale_price, safe_stock, created_at, updated_at`

// ProductRepo ProductRepository sobre SQLite.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de productos.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CompanyID, p.Code, p.Name, p.Unit, p.PurchasePrice, p.SalePrice, p.SafeStock,
		toNanos(p.CreatedAt), toNanos(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *ProductRepo) GetByCompanyAndCode(ctx context.Context, companyID, code string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE company_id = ? AND code = ?`, companyID, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by code: %w", err)
	}
	return p, nil
}

func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE products SET name = ?, unit = ?, purchase_price = ?, sale_price = ?, safe_stock = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Unit, p.PurchasePrice, p.SalePrice, p.SafeStock, toNanos(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *ProductRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Product, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE company_id = ? ORDER BY code LIMIT ? OFFSET ?`,
		companyID, limit, offset)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	var (
		p                    entity.Product
		createdAt, updatedAt int64
	)
	err := row.Scan(&p.ID, &p.CompanyID, &p.Code, &p.Name, &p.Unit,
		&p.PurchasePrice, &p.SalePrice, &p.SafeStock, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = fromNanos(createdAt)
	p.UpdatedAt = fromNanos(updatedAt)
	return &p, nil
}
