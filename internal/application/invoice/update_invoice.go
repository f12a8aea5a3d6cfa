package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// UpdateUseCase actualiza una factura y, cuando pasa a pagada+completada por primera vez,
// descuenta del inventario cada línea en la categoría configurada.
type UpdateUseCase struct {
	txRunner       TxRunner
	issuer         StockIssuer
	deductCategory entity.Category
	log            zerolog.Logger
	now            func() time.Time
}

// NewUpdateUseCase construye el caso de uso.
func NewUpdateUseCase(txRunner TxRunner, issuer StockIssuer, deductCategory entity.Category, log zerolog.Logger) *UpdateUseCase {
	return &UpdateUseCase{
		txRunner:       txRunner,
		issuer:         issuer,
		deductCategory: deductCategory,
		log:            log,
		now:            time.Now,
	}
}

// UpdateAndDeduct aplica los cambios en una transacción y reclama el descuento de stock con un
// UPDATE condicional (stock_deducted = false), así dos peticiones simultáneas no descuentan dos veces.
// Tras el commit cada línea se descuenta en su propia transacción; los fallos se registran y se
// devuelven en FailedItems sin revertir la factura.
func (uc *UpdateUseCase) UpdateAndDeduct(ctx context.Context, companyID, actorID string, in dto.UpdateInvoiceRequest) (*dto.UpdateInvoiceResponse, error) {
	if err := validateUpdate(in); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	var (
		inv     *entity.Invoice
		claimed bool
	)
	err := uc.txRunner.RunInvoice(ctx, func(invoiceRepo repository.InvoiceRepository) error {
		current, err := invoiceRepo.GetForUpdate(ctx, companyID, in.InvoiceID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if in.Items != nil && current.StockDeducted {
			return domain.ErrConflict
		}

		applyUpdate(current, in)
		current.UpdatedAt = now
		if in.Items != nil {
			current.Items = buildItems(current.ID, in.Items)
			current.Total = totalOf(current.Items)
			if err := invoiceRepo.ReplaceItems(ctx, current.ID, current.Items); err != nil {
				return err
			}
		}
		if err := invoiceRepo.Update(ctx, current); err != nil {
			return err
		}

		if current.IsSettled() && !current.StockDeducted {
			ok, err := invoiceRepo.ClaimStockDeduction(ctx, current.ID, now)
			if err != nil {
				return err
			}
			if ok {
				claimed = true
				current.StockDeducted = true
				current.StockDeductedAt = &now
			}
		}
		inv = current
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, &domain.StorageError{Op: "update invoice", Err: err}
	}

	out := &dto.UpdateInvoiceResponse{Invoice: dto.ToInvoiceResponse(inv)}
	if !claimed {
		return out, nil
	}
	out.StockDeducted = true

	for _, item := range inv.Items {
		_, err := uc.issuer.Issue(ctx, stock.IssueInput{
			CompanyID: companyID,
			ActorID:   actorID,
			ProductID: item.ProductID,
			Category:  uc.deductCategory.String(),
			Quantity:  item.Quantity,
			Note:      fmt.Sprintf("factura %s", inv.Number),
			Reference: inv.ID,
		})
		if err != nil {
			uc.log.Error().Err(err).
				Str("invoice_id", inv.ID).
				Str("product_id", item.ProductID).
				Int64("quantity", item.Quantity).
				Msg("descuento de stock por factura falló")
			out.FailedItems = append(out.FailedItems, dto.FailedItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Error:     err.Error(),
			})
			continue
		}
		out.DeductedItems = append(out.DeductedItems, dto.DeductedItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out, nil
}

func validateUpdate(in dto.UpdateInvoiceRequest) error {
	if in.InvoiceID == "" {
		return domain.NewValidationError("invoice_id", "factura requerida")
	}
	if in.Status != nil && !entity.ValidInvoiceStatus(*in.Status) {
		return domain.NewValidationError("status", "estado de factura inválido")
	}
	if in.PaymentStatus != nil && !entity.ValidPaymentStatus(*in.PaymentStatus) {
		return domain.NewValidationError("payment_status", "estado de pago inválido")
	}
	for _, item := range in.Items {
		if item.ProductID == "" {
			return domain.NewValidationError("items.product_id", "producto requerido")
		}
		if item.Quantity <= 0 {
			return domain.NewValidationError("items.quantity", "la cantidad debe ser mayor que cero")
		}
		if item.UnitPrice.LessThan(decimal.Zero) {
			return domain.NewValidationError("items.unit_price", "el precio no puede ser negativo")
		}
	}
	return nil
}

func applyUpdate(inv *entity.Invoice, in dto.UpdateInvoiceRequest) {
	if in.Status != nil {
		inv.Status = *in.Status
	}
	if in.PaymentStatus != nil {
		inv.PaymentStatus = *in.PaymentStatus
	}
	if in.Notes != nil {
		inv.Notes = *in.Notes
	}
	if in.CustomerName != nil {
		inv.CustomerName = *in.CustomerName
	}
}

func buildItems(invoiceID string, in []dto.InvoiceItemInput) []entity.InvoiceItem {
	items := make([]entity.InvoiceItem, 0, len(in))
	for _, it := range in {
		items = append(items, entity.InvoiceItem{
			ID:        uuid.New().String(),
			InvoiceID: invoiceID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)),
		})
	}
	return items
}

func totalOf(items []entity.InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}
