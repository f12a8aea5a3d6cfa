package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	// GetForUpdate carga cabecera y líneas bloqueando la cabecera. (nil, nil) si no existe.
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.Invoice, error)
	GetByID(ctx context.Context, companyID, id string) (*entity.Invoice, error)
	// Update actualiza campos editables: status, payment_status, notes, customer_name, total.
	Update(ctx context.Context, invoice *entity.Invoice) error
	ReplaceItems(ctx context.Context, invoiceID string, items []entity.InvoiceItem) error
	// ClaimStockDeduction marca stock_deducted solo si aún no estaba marcado.
	// claimed=false indica que otra petición ya disparó el descuento.
	ClaimStockDeduction(ctx context.Context, id string, at time.Time) (claimed bool, err error)
}
