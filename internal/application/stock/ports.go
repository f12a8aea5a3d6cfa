package stock

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Inventario y kardex se confirman juntos o no se confirman.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		invRepo repository.InventoryRepository,
		ledgerRepo repository.LedgerRepository,
	) error) error
}
