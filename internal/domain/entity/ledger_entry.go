package entity

import "time"

// EventType tipo de evento del kardex.
type EventType string

// Tipos de evento que afectan stock.
const (
	EventInitial    EventType = "initial"    // primera entrada del producto
	EventIn         EventType = "in"         // entrada
	EventOut        EventType = "out"        // salida
	EventTransfer   EventType = "transfer"   // traslado entre categorías
	EventAdjustment EventType = "adjustment" // ajuste por conteo físico
)

// ParseEventType valida un tipo de evento recibido como texto.
func ParseEventType(s string) (EventType, bool) {
	switch t := EventType(s); t {
	case EventInitial, EventIn, EventOut, EventTransfer, EventAdjustment:
		return t, true
	}
	return "", false
}

// LedgerEntry registro inmutable de un evento de stock (append-only).
// Quantity siempre positiva (o cero en ajustes sin diferencia); la dirección
// la dan Type y las categorías origen/destino. Categoría vacía = no aplica.
type LedgerEntry struct {
	ID           string
	CompanyID    string
	ProductID    string
	Type         EventType
	Quantity     int64
	FromCategory Category
	ToCategory   Category
	Note         string
	Reference    string // ej. ID de factura
	EventDate    time.Time
	CreatedAt    time.Time
	CreatedBy    string
}
