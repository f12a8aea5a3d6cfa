package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// InventoryRepository define el puerto del almacén de inventario: cantidad por (empresa, producto, categoría).
// Las lecturas de pares sin registro devuelven 0, nunca error.
type InventoryRepository interface {
	GetQuantity(ctx context.Context, companyID, productID string, category entity.Category) (int64, error)
	// GetForUpdate lee la cantidad bloqueando la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, companyID, productID string, category entity.Category) (int64, error)
	// SetQuantity upsert sin validar: el caller garantiza quantity >= 0.
	SetQuantity(ctx context.Context, companyID, productID string, category entity.Category, quantity int64, actorID string) error
	// Increment suma delta (>0) con upsert atómico y devuelve la cantidad resultante.
	Increment(ctx context.Context, companyID, productID string, category entity.Category, delta int64, actorID string) (int64, error)
	// DecrementIfAvailable resta quantity solo si hay existencia suficiente (UPDATE condicional).
	// ok=false significa que no se escribió nada.
	DecrementIfAvailable(ctx context.Context, companyID, productID string, category entity.Category, quantity int64, actorID string) (newQty int64, ok bool, err error)
	// LockProduct serializa, hasta el fin de la transacción, las entradas concurrentes de un producto.
	// Devuelve domain.ErrNotFound si el producto no existe en la empresa.
	LockProduct(ctx context.Context, companyID, productID string) error
	ListByProduct(ctx context.Context, companyID, productID string) ([]entity.InventoryRecord, error)
	ListByCompany(ctx context.Context, companyID string) ([]entity.InventoryRecord, error)
}
