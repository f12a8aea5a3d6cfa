package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger-api/internal/application/invoice"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TxRunner cumple los puertos transaccionales de stock e invoice.
var _ stock.TxRunner = (*TxRunner)(nil)
var _ invoice.TxRunner = (*TxRunner)(nil)
var _ ledger.SnapshotRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con inventario y kardex atados a la tx y hace Commit o Rollback.
// Si fn devuelve error no queda escrito ni el saldo ni el asiento.
func (r *TxRunner) Run(ctx context.Context, fn func(
	invRepo repository.InventoryRepository,
	ledgerRepo repository.LedgerRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewInventoryRepository(tx), NewLedgerRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunInvoice inicia una transacción con el repositorio de facturas (para UpdateAndDeduct).
func (r *TxRunner) RunInvoice(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewInvoiceRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunSnapshot abre una transacción REPEATABLE READ de solo lectura: todas las consultas de fn
// ven la misma foto, aunque otras transacciones confirmen mientras tanto.
func (r *TxRunner) RunSnapshot(ctx context.Context, fn func(
	invRepo repository.InventoryRepository,
	ledgerRepo repository.LedgerRepository,
) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewInventoryRepository(tx), NewLedgerRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}
