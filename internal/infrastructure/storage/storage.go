// Package storage elige el backend de persistencia (PostgreSQL o SQLite) según DB_DRIVER
// y expone los repositorios listos para inyectar en los casos de uso.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/invoice"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/sqlite"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
)

// TxRunner transacciones de stock, de facturas y lecturas de conciliación sobre el mismo backend.
type TxRunner interface {
	stock.TxRunner
	invoice.TxRunner
	ledger.SnapshotRunner
}

// Store repositorios y transacciones de un backend abierto.
type Store struct {
	Driver    string
	Products  repository.ProductRepository
	Inventory repository.InventoryRepository
	Ledger    repository.LedgerRepository
	Profiles  repository.ProfileRepository
	Invoices  repository.InvoiceRepository
	TxRunner  TxRunner

	close func()
}

// Open conecta al backend configurado y crea el esquema si no existe.
func Open(ctx context.Context, cfg config.DBConfig, log zerolog.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("esquema PostgreSQL: %w", err)
		}
		log.Info().Str("driver", cfg.Driver).Msg("base de datos lista")
		return &Store{
			Driver:    cfg.Driver,
			Products:  postgres.NewProductRepository(pool),
			Inventory: postgres.NewInventoryRepository(pool),
			Ledger:    postgres.NewLedgerRepository(pool),
			Profiles:  postgres.NewProfileRepository(pool),
			Invoices:  postgres.NewInvoiceRepository(pool),
			TxRunner:  postgres.NewTxRunner(pool),
			close:     pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("conexión a SQLite: %w", err)
		}
		if err := sqlite.EnsureSchema(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("esquema SQLite: %w", err)
		}
		log.Info().Str("driver", cfg.Driver).Str("path", cfg.SQLitePath).Msg("base de datos lista")
		return &Store{
			Driver:    cfg.Driver,
			Products:  sqlite.NewProductRepository(db),
			Inventory: sqlite.NewInventoryRepository(db),
			Ledger:    sqlite.NewLedgerRepository(db),
			Profiles:  sqlite.NewProfileRepository(db),
			Invoices:  sqlite.NewInvoiceRepository(db),
			TxRunner:  sqlite.NewTxRunner(db),
			close:     func() { _ = db.Close() },
		}, nil
	}
	return nil, fmt.Errorf("DB_DRIVER no soportado: %q", cfg.Driver)
}

// Close libera las conexiones.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}
