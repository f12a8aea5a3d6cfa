package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// ProductUseCase casos de uso del catálogo de productos. El stock se maneja solo vía movimientos.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un nuevo producto. El código es único por empresa.
func (uc *ProductUseCase) Create(ctx context.Context, companyID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" || in.Name == "" {
		return nil, domain.NewValidationError("code", "code y name son requeridos")
	}
	if err := validatePrices(in.PurchasePrice, in.SalePrice, in.SafeStock); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByCompanyAndCode(ctx, companyID, in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if in.Unit == "" {
		in.Unit = "pcs"
	}
	now := time.Now().UTC()
	product := &entity.Product{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		Code:          in.Code,
		Name:          in.Name,
		Unit:          in.Unit,
		PurchasePrice: in.PurchasePrice,
		SalePrice:     in.SalePrice,
		SafeStock:     in.SafeStock,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto de la empresa. (nil, nil) si no existe o es de otra empresa.
func (uc *ProductUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.CompanyID != companyID {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// Update actualiza datos de catálogo; nunca toca cantidades.
func (uc *ProductUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.CompanyID != companyID {
		return nil, nil
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "name no puede quedar vacío")
		}
		product.Name = name
	}
	if in.Unit != nil {
		product.Unit = *in.Unit
	}
	if in.PurchasePrice != nil {
		product.PurchasePrice = *in.PurchasePrice
	}
	if in.SalePrice != nil {
		product.SalePrice = *in.SalePrice
	}
	if in.SafeStock != nil {
		product.SafeStock = *in.SafeStock
	}
	if err := validatePrices(product.PurchasePrice, product.SalePrice, product.SafeStock); err != nil {
		return nil, err
	}
	product.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos por empresa con paginación.
func (uc *ProductUseCase) List(ctx context.Context, companyID string, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func validatePrices(purchase, sale decimal.Decimal, safeStock int64) error {
	if purchase.LessThan(decimal.Zero) {
		return domain.NewValidationError("purchase_price", "no puede ser negativo")
	}
	if sale.LessThan(decimal.Zero) {
		return domain.NewValidationError("sale_price", "no puede ser negativo")
	}
	if safeStock < 0 {
		return domain.NewValidationError("safe_stock", "no puede ser negativo")
	}
	return nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:            p.ID,
		CompanyID:     p.CompanyID,
		Code:          p.Code,
		Name:          p.Name,
		Unit:          p.Unit,
		PurchasePrice: p.PurchasePrice,
		SalePrice:     p.SalePrice,
		SafeStock:     p.SafeStock,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
