package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// InvoiceItemInput línea de factura en una actualización (reemplazo completo).
type InvoiceItemInput struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// UpdateInvoiceRequest body para POST /functions/update-invoice-and-deduct-stock.
// Campos nil no se modifican; Items != nil reemplaza todas las líneas.
type UpdateInvoiceRequest struct {
	InvoiceID     string             `json:"invoice_id"`
	Status        *string            `json:"status,omitempty"`
	PaymentStatus *string            `json:"payment_status,omitempty"`
	Notes         *string            `json:"notes,omitempty"`
	CustomerName  *string            `json:"customer_name,omitempty"`
	Items         []InvoiceItemInput `json:"items,omitempty"`
}

// InvoiceItemResponse línea de factura.
type InvoiceItemResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// InvoiceResponse salida de una factura.
type InvoiceResponse struct {
	ID              string                `json:"id"`
	Number          string                `json:"number"`
	CustomerName    string                `json:"customer_name,omitempty"`
	Status          string                `json:"status"`
	PaymentStatus   string                `json:"payment_status"`
	Notes           string                `json:"notes,omitempty"`
	Total           decimal.Decimal       `json:"total"`
	StockDeducted   bool                  `json:"stock_deducted"`
	StockDeductedAt *time.Time            `json:"stock_deducted_at,omitempty"`
	Items           []InvoiceItemResponse `json:"items"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// DeductedItem línea descontada del inventario.
type DeductedItem struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// FailedItem línea cuyo descuento falló (la factura no se revierte).
type FailedItem struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Error     string `json:"error"`
}

// UpdateInvoiceResponse resultado de la actualización. StockDeducted indica que esta llamada disparó el descuento.
type UpdateInvoiceResponse struct {
	Invoice       InvoiceResponse `json:"invoice"`
	StockDeducted bool            `json:"stock_deducted"`
	DeductedItems []DeductedItem  `json:"deducted_items,omitempty"`
	FailedItems   []FailedItem    `json:"failed_items,omitempty"`
}

// ToInvoiceResponse adapta la entidad al DTO.
func ToInvoiceResponse(inv *entity.Invoice) InvoiceResponse {
	out := InvoiceResponse{
		ID:              inv.ID,
		Number:          inv.Number,
		CustomerName:    inv.CustomerName,
		Status:          inv.Status,
		PaymentStatus:   inv.PaymentStatus,
		Notes:           inv.Notes,
		Total:           inv.Total,
		StockDeducted:   inv.StockDeducted,
		StockDeductedAt: inv.StockDeductedAt,
		Items:           make([]InvoiceItemResponse, 0, len(inv.Items)),
		UpdatedAt:       inv.UpdatedAt,
	}
	for _, it := range inv.Items {
		out.Items = append(out.Items, InvoiceItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	return out
}
