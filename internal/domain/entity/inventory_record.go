package entity

import "time"

// InventoryRecord cantidad actual de un producto en una categoría, para una empresa.
// Proyección materializada del kardex: (company, product, category) es la clave efectiva.
type InventoryRecord struct {
	CompanyID string
	ProductID string
	Category  Category
	Quantity  int64 // nunca negativo
	UpdatedBy string
	UpdatedAt time.Time
}
