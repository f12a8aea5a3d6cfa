package ledger

import (
	"context"
	"errors"
	"sort"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// Drift diferencia entre el inventario materializado y lo que dicta el kardex.
type Drift struct {
	ProductID string `json:"product_id"`
	Category  string `json:"category"`
	Recorded  int64  `json:"recorded"` // cantidad en inventario
	Expected  int64  `json:"expected"` // neto del kardex
}

// ReconcileUseCase compara el inventario con la reproducción del kardex.
type ReconcileUseCase struct {
	snapshots SnapshotRunner
	pageSize  int
}

// NewReconcileUseCase construye el caso de uso. pageSize <= 0 usa DefaultPageSize.
func NewReconcileUseCase(snapshots SnapshotRunner, pageSize int) *ReconcileUseCase {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ReconcileUseCase{snapshots: snapshots, pageSize: pageSize}
}

// Reconcile reproduce el kardex de la empresa y devuelve los pares cuyo saldo no coincide.
// Kardex e inventario se leen en la misma transacción; lista vacía = inventario consistente.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context, companyID string) ([]Drift, error) {
	projection := make(inventory.Projection)
	var records []entity.InventoryRecord
	err := uc.snapshots.RunSnapshot(ctx, func(invRepo repository.InventoryRepository, ledgerRepo repository.LedgerRepository) error {
		query := NewQueryUseCase(ledgerRepo, uc.pageSize)
		for e, err := range query.QueryByCompany(ctx, companyID) {
			if err != nil {
				return err
			}
			projection.Apply(e)
		}
		var err error
		if records, err = invRepo.ListByCompany(ctx, companyID); err != nil {
			return &domain.StorageError{Op: "reconcile", Err: err}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStorage) {
			return nil, err
		}
		return nil, &domain.StorageError{Op: "reconcile", Err: err}
	}

	var drifts []Drift
	seen := make(map[inventory.Key]struct{}, len(records))
	for _, r := range records {
		k := inventory.Key{ProductID: r.ProductID, Category: r.Category}
		seen[k] = struct{}{}
		if expected := projection[k]; expected != r.Quantity {
			drifts = append(drifts, Drift{ProductID: r.ProductID, Category: r.Category.String(), Recorded: r.Quantity, Expected: expected})
		}
	}
	for k, expected := range projection {
		if _, ok := seen[k]; ok || expected == 0 {
			continue
		}
		drifts = append(drifts, Drift{ProductID: k.ProductID, Category: k.Category.String(), Recorded: 0, Expected: expected})
	}

	sort.Slice(drifts, func(i, j int) bool {
		if drifts[i].ProductID != drifts[j].ProductID {
			return drifts[i].ProductID < drifts[j].ProductID
		}
		return drifts[i].Category < drifts[j].Category
	})
	return drifts, nil
}
