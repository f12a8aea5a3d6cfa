package ledger

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// SnapshotRunner ejecuta fn en una transacción de solo lectura: inventario y kardex se leen
// de la misma foto de la base, sin ver escrituras confirmadas después de empezar.
type SnapshotRunner interface {
	RunSnapshot(ctx context.Context, fn func(
		invRepo repository.InventoryRepository,
		ledgerRepo repository.LedgerRepository,
	) error) error
}
