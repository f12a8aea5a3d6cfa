package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product artículo almacenable. El catálogo lo mantiene; inventario y kardex solo lo referencian.
type Product struct {
	ID            string
	CompanyID     string
	Code          string // único por empresa
	Name          string
	Unit          string // unidad de medida (pcs, box, m)
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	SafeStock     int64 // umbral de stock de seguridad; 0 = sin umbral
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
