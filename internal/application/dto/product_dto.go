package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	Code          string          `json:"code" validate:"required,min=1,max=100"`
	Name          string          `json:"name" validate:"required,min=1,max=200"`
	Unit          string          `json:"unit"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	SafeStock     int64           `json:"safe_stock"`
}

// UpdateProductRequest entrada para actualizar un producto (el stock solo cambia vía movimientos).
type UpdateProductRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Unit          *string          `json:"unit"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SalePrice     *decimal.Decimal `json:"sale_price"`
	SafeStock     *int64           `json:"safe_stock"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"company_id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	SafeStock     int64           `json:"safe_stock"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResponse listado paginado.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
