package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jhoicas/stock-ledger-api/internal/application/invoice"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ stock.TxRunner = (*TxRunner)(nil)
var _ invoice.TxRunner = (*TxRunner)(nil)
var _ ledger.SnapshotRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción SQLite (BEGIN IMMEDIATE).
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner construye el runner.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// Run ejecuta fn con inventario y kardex atados a la misma transacción.
func (r *TxRunner) Run(ctx context.Context, fn func(
	invRepo repository.InventoryRepository,
	ledgerRepo repository.LedgerRepository,
) error) error {
	return r.run(ctx, func(tx *sql.Tx) error {
		return fn(NewInventoryRepository(tx), NewLedgerRepository(tx))
	})
}

// RunInvoice ejecuta fn con el repositorio de facturas atado a la transacción.
func (r *TxRunner) RunInvoice(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error {
	return r.run(ctx, func(tx *sql.Tx) error {
		return fn(NewInvoiceRepository(tx))
	})
}

// RunSnapshot lee inventario y kardex dentro de una sola transacción; con una única conexión
// ningún escritor puede intercalarse entre las dos lecturas.
func (r *TxRunner) RunSnapshot(ctx context.Context, fn func(
	invRepo repository.InventoryRepository,
	ledgerRepo repository.LedgerRepository,
) error) error {
	return r.run(ctx, func(tx *sql.Tx) error {
		return fn(NewInventoryRepository(tx), NewLedgerRepository(tx))
	})
}

func (r *TxRunner) run(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
