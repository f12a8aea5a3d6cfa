package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la factura.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusCompleted = "completed"
	InvoiceStatusCancelled = "cancelled"
)

// Estados de pago.
const (
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
)

// Invoice cabecera de factura. StockDeducted evita descontar inventario dos veces.
type Invoice struct {
	ID              string
	CompanyID       string
	Number          string
	CustomerName    string
	Status          string
	PaymentStatus   string
	Notes           string
	Total           decimal.Decimal
	StockDeducted   bool
	StockDeductedAt *time.Time
	Items           []InvoiceItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// InvoiceItem línea de factura.
type InvoiceItem struct {
	ID        string
	InvoiceID string
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// IsSettled factura pagada y completada: dispara el descuento de inventario.
func (i *Invoice) IsSettled() bool {
	return i.Status == InvoiceStatusCompleted && i.PaymentStatus == PaymentStatusPaid
}

// ValidInvoiceStatus valida el estado de factura.
func ValidInvoiceStatus(s string) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusCompleted, InvoiceStatusCancelled:
		return true
	}
	return false
}

// ValidPaymentStatus valida el estado de pago.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}
