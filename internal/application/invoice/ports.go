package invoice

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción con el repositorio de facturas atado a ella.
type TxRunner interface {
	RunInvoice(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error
}

// StockIssuer salida de stock usada al liquidar la factura. Lo implementa *stock.Service.
type StockIssuer interface {
	Issue(ctx context.Context, in stock.IssueInput) (*stock.Result, error)
}
