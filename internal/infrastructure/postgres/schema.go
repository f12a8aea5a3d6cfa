package postgres

import (
	"context"
	"fmt"
)

// schemaStatements esquema completo. Idempotente: se puede ejecutar en cada arranque.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id             TEXT PRIMARY KEY,
		company_id     TEXT NOT NULL,
		code           TEXT NOT NULL,
		name           TEXT NOT NULL,
		unit           TEXT NOT NULL DEFAULT 'pcs',
		purchase_price NUMERIC(18,2) NOT NULL DEFAULT 0,
		sale_price     NUMERIC(18,2) NOT NULL DEFAULT 0,
		safe_stock     BIGINT NOT NULL DEFAULT 0 CHECK (safe_stock >= 0),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (company_id, code)
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id    TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		full_name  TEXT NOT NULL DEFAULT '',
		role       TEXT NOT NULL CHECK (role IN ('admin', 'staff', 'technician')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS warehouse_inventory (
		company_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		category   TEXT NOT NULL,
		quantity   BIGINT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		updated_by TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (company_id, product_id, category)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_ledger (
		id            TEXT PRIMARY KEY,
		company_id    TEXT NOT NULL,
		product_id    TEXT NOT NULL,
		type          TEXT NOT NULL CHECK (type IN ('initial', 'in', 'out', 'transfer', 'adjustment')),
		quantity      BIGINT NOT NULL CHECK (quantity >= 0),
		from_category TEXT,
		to_category   TEXT,
		note          TEXT NOT NULL DEFAULT '',
		reference     TEXT,
		event_date    TIMESTAMPTZ NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by    TEXT,
		CHECK (type <> 'transfer' OR (from_category IS NOT NULL AND to_category IS NOT NULL AND from_category <> to_category))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_ledger_product
		ON stock_ledger (company_id, product_id, created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_ledger_company
		ON stock_ledger (company_id, created_at DESC, id DESC)`,
	`CREATE OR REPLACE FUNCTION stock_ledger_append_only() RETURNS trigger AS $$
	BEGIN
		RAISE EXCEPTION 'stock_ledger es append-only';
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS stock_ledger_no_mutation ON stock_ledger`,
	`CREATE TRIGGER stock_ledger_no_mutation
		BEFORE UPDATE OR DELETE ON stock_ledger
		FOR EACH ROW EXECUTE FUNCTION stock_ledger_append_only()`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id                TEXT PRIMARY KEY,
		company_id        TEXT NOT NULL,
		number            TEXT NOT NULL,
		customer_name     TEXT NOT NULL DEFAULT '',
		status            TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'sent', 'completed', 'cancelled')),
		payment_status    TEXT NOT NULL DEFAULT 'unpaid' CHECK (payment_status IN ('unpaid', 'partial', 'paid')),
		notes             TEXT NOT NULL DEFAULT '',
		total             NUMERIC(18,2) NOT NULL DEFAULT 0,
		stock_deducted    BOOLEAN NOT NULL DEFAULT FALSE,
		stock_deducted_at TIMESTAMPTZ,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (company_id, number)
	)`,
	`CREATE TABLE IF NOT EXISTS invoice_items (
		id         TEXT PRIMARY KEY,
		invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL,
		quantity   BIGINT NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(18,2) NOT NULL DEFAULT 0,
		subtotal   NUMERIC(18,2) NOT NULL DEFAULT 0
	)`,
}

// EnsureSchema crea tablas, índices y el trigger append-only del kardex si no existen.
func EnsureSchema(ctx context.Context, q Querier) error {
	for i, stmt := range schemaStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
