package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// ReceiveStockRequest body para POST /api/stock/receive.
type ReceiveStockRequest struct {
	ProductID string     `json:"product_id"`
	Category  string     `json:"category"`
	Quantity  int64      `json:"quantity"`
	Notes     string     `json:"notes,omitempty"`
	Reference string     `json:"reference,omitempty"`
	EventDate *time.Time `json:"event_date,omitempty"`
}

// IssueStockRequest body para POST /api/stock/issue.
type IssueStockRequest struct {
	ProductID string     `json:"product_id"`
	Category  string     `json:"category"`
	Quantity  int64      `json:"quantity"`
	Notes     string     `json:"notes,omitempty"`
	Reference string     `json:"reference,omitempty"`
	EventDate *time.Time `json:"event_date,omitempty"`
}

// TransferStockRequest body para POST /api/stock/transfer y para la función atomic-stock-transfer.
type TransferStockRequest struct {
	ProductID    string     `json:"product_id"`
	FromCategory string     `json:"from_category"`
	ToCategory   string     `json:"to_category"`
	Quantity     int64      `json:"quantity"`
	Notes        string     `json:"notes,omitempty"`
	EventDate    *time.Time `json:"event_date,omitempty"`
}

// AdjustStockRequest body para POST /api/stock/adjust.
type AdjustStockRequest struct {
	ProductID   string     `json:"product_id"`
	Category    string     `json:"category"`
	NewQuantity *int64     `json:"new_quantity"`
	Reason      string     `json:"reason"`
	EventDate   *time.Time `json:"event_date,omitempty"`
}

// LedgerEntryResponse asiento del kardex.
type LedgerEntryResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	Type         string    `json:"type"`
	Quantity     int64     `json:"quantity"`
	FromCategory string    `json:"from_category,omitempty"`
	ToCategory   string    `json:"to_category,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Reference    string    `json:"reference,omitempty"`
	EventDate    time.Time `json:"event_date"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedBy    string    `json:"created_by,omitempty"`
}

// StockMutationResponse salida de receive/issue/transfer/adjust.
type StockMutationResponse struct {
	Entry          LedgerEntryResponse `json:"entry"`
	Balances       map[string]int64    `json:"balances"`
	BelowSafeStock bool                `json:"below_safe_stock"`
}

// BalanceResponse cantidad de un producto en una categoría.
type BalanceResponse struct {
	Category  string     `json:"category"`
	Quantity  int64      `json:"quantity"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ProductBalancesResponse saldos de un producto en todas las categorías.
type ProductBalancesResponse struct {
	ProductID string            `json:"product_id"`
	Total     int64             `json:"total"`
	Balances  []BalanceResponse `json:"balances"`
}

// LedgerPageResponse listado de asientos.
type LedgerPageResponse struct {
	ProductID string                `json:"product_id"`
	Entries   []LedgerEntryResponse `json:"entries"`
	Count     int                   `json:"count"`
}

// ToLedgerEntryResponse adapta la entidad al DTO.
func ToLedgerEntryResponse(e entity.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:           e.ID,
		ProductID:    e.ProductID,
		Type:         string(e.Type),
		Quantity:     e.Quantity,
		FromCategory: e.FromCategory.String(),
		ToCategory:   e.ToCategory.String(),
		Notes:        e.Note,
		Reference:    e.Reference,
		EventDate:    e.EventDate,
		CreatedAt:    e.CreatedAt,
		CreatedBy:    e.CreatedBy,
	}
}

// ToProductBalancesResponse adapta los registros de inventario al DTO.
func ToProductBalancesResponse(productID string, records []entity.InventoryRecord) ProductBalancesResponse {
	out := ProductBalancesResponse{ProductID: productID, Balances: make([]BalanceResponse, 0, len(records))}
	for _, r := range records {
		b := BalanceResponse{Category: r.Category.String(), Quantity: r.Quantity}
		if !r.UpdatedAt.IsZero() {
			t := r.UpdatedAt
			b.UpdatedAt = &t
		}
		out.Total += r.Quantity
		out.Balances = append(out.Balances, b)
	}
	return out
}
