package sqlite

import (
	"database/sql"
	"fmt"
)

// schema esquema completo; mismas tablas y restricciones que el backend postgres.
const schema = `
CREATE TABLE IF NOT EXISTS products (
    id             TEXT PRIMARY KEY,
    company_id     TEXT NOT NULL,
    code           TEXT NOT NULL,
    name           TEXT NOT NULL,
    unit           TEXT NOT NULL DEFAULT 'pcs',
    purchase_price TEXT NOT NULL DEFAULT '0',
    sale_price     TEXT NOT NULL DEFAULT '0',
    safe_stock     INTEGER NOT NULL DEFAULT 0 CHECK (safe_stock >= 0),
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL,
    UNIQUE (company_id, code)
);

CREATE TABLE IF NOT EXISTS profiles (
    user_id    TEXT PRIMARY KEY,
    company_id TEXT NOT NULL,
    full_name  TEXT NOT NULL DEFAULT '',
    role       TEXT NOT NULL CHECK (role IN ('admin', 'staff', 'technician')),
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS warehouse_inventory (
    company_id TEXT NOT NULL,
    product_id TEXT NOT NULL,
    category   TEXT NOT NULL,
    quantity   INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    updated_by TEXT,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (company_id, product_id, category)
);

CREATE TABLE IF NOT EXISTS stock_ledger (
    id            TEXT PRIMARY KEY,
    company_id    TEXT NOT NULL,
    product_id    TEXT NOT NULL,
    type          TEXT NOT NULL CHECK (type IN ('initial', 'in', 'out', 'transfer', 'adjustment')),
    quantity      INTEGER NOT NULL CHECK (quantity >= 0),
    from_category TEXT,
    to_category   TEXT,
    note          TEXT NOT NULL DEFAULT '',
    reference     TEXT,
    event_date    INTEGER NOT NULL,
    created_at    INTEGER NOT NULL,
    created_by    TEXT,
    CHECK (type <> 'transfer' OR (from_category IS NOT NULL AND to_category IS NOT NULL AND from_category <> to_category))
);

CREATE INDEX IF NOT EXISTS idx_stock_ledger_product
    ON stock_ledger (company_id, product_id, created_at DESC, id DESC);

CREATE INDEX IF NOT EXISTS idx_stock_ledger_company
    ON stock_ledger (company_id, created_at DESC, id DESC);

CREATE TRIGGER IF NOT EXISTS stock_ledger_no_update
    BEFORE UPDATE ON stock_ledger
BEGIN
    SELECT RAISE(ABORT, 'stock_ledger es append-only');
END;

CREATE TRIGGER IF NOT EXISTS stock_ledger_no_delete
    BEFORE DELETE ON stock_ledger
BEGIN
    SELECT RAISE(ABORT, 'stock_ledger es append-only');
END;

CREATE TABLE IF NOT EXISTS invoices (
    id                TEXT PRIMARY KEY,
    company_id        TEXT NOT NULL,
    number            TEXT NOT NULL,
    customer_name     TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'sent', 'completed', 'cancelled')),
    payment_status    TEXT NOT NULL DEFAULT 'unpaid' CHECK (payment_status IN ('unpaid', 'partial', 'paid')),
    notes             TEXT NOT NULL DEFAULT '',
    total             TEXT NOT NULL DEFAULT '0',
    stock_deducted    INTEGER NOT NULL DEFAULT 0,
    stock_deducted_at INTEGER,
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL,
    UNIQUE (company_id, number)
);

CREATE TABLE IF NOT EXISTS invoice_items (
    id         TEXT PRIMARY KEY,
    invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
    product_id TEXT NOT NULL,
    quantity   INTEGER NOT NULL CHECK (quantity > 0),
    unit_price TEXT NOT NULL DEFAULT '0',
    subtotal   TEXT NOT NULL DEFAULT '0'
);
`

// EnsureSchema crea las tablas si no existen.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
