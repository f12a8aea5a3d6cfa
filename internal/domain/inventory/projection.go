package inventory

import (
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// Key identifica un registro de inventario dentro de una empresa.
type Key struct {
	ProductID string
	Category  entity.Category
}

// Effect variación con signo que un asiento del kardex aplica sobre una categoría.
type Effect struct {
	Category entity.Category
	Delta    int64
}

// Effects traduce un asiento a sus variaciones: entradas suman en destino, salidas restan en origen,
// traslados restan en origen y suman en destino, ajustes usan la categoría que tengan poblada.
func Effects(e entity.LedgerEntry) []Effect {
	switch e.Type {
	case entity.EventInitial, entity.EventIn:
		return []Effect{{Category: e.ToCategory, Delta: e.Quantity}}
	case entity.EventOut:
		return []Effect{{Category: e.FromCategory, Delta: -e.Quantity}}
	case entity.EventTransfer:
		return []Effect{
			{Category: e.FromCategory, Delta: -e.Quantity},
			{Category: e.ToCategory, Delta: e.Quantity},
		}
	case entity.EventAdjustment:
		if e.FromCategory != "" {
			return []Effect{{Category: e.FromCategory, Delta: -e.Quantity}}
		}
		return []Effect{{Category: e.ToCategory, Delta: e.Quantity}}
	}
	return nil
}

// Projection saldos reconstruidos desde el kardex.
type Projection map[Key]int64

// Apply suma los efectos de un asiento a la proyección.
func (p Projection) Apply(e entity.LedgerEntry) {
	for _, eff := range Effects(e) {
		p[Key{ProductID: e.ProductID, Category: eff.Category}] += eff.Delta
	}
}

// Project reconstruye los saldos por (producto, categoría) a partir de los asientos.
func Project(entries []entity.LedgerEntry) Projection {
	p := make(Projection)
	for _, e := range entries {
		p.Apply(e)
	}
	return p
}

// ValidateEntry verifica los invariantes de campos por tipo de evento.
func ValidateEntry(e entity.LedgerEntry) error {
	if e.ProductID == "" {
		return domain.NewValidationError("product_id", "producto requerido")
	}
	if e.Quantity < 0 {
		return domain.NewValidationError("quantity", "la cantidad del asiento no puede ser negativa")
	}
	switch e.Type {
	case entity.EventInitial, entity.EventIn:
		if e.ToCategory == "" || e.FromCategory != "" {
			return domain.NewValidationError("to_category", "las entradas solo llevan categoría destino")
		}
	case entity.EventOut:
		if e.FromCategory == "" || e.ToCategory != "" {
			return domain.NewValidationError("from_category", "las salidas solo llevan categoría origen")
		}
	case entity.EventTransfer:
		if e.FromCategory == "" || e.ToCategory == "" {
			return domain.NewValidationError("category", "el traslado requiere origen y destino")
		}
		if e.FromCategory == e.ToCategory {
			return domain.NewValidationError("to_category", "origen y destino deben ser distintos")
		}
	case entity.EventAdjustment:
		if (e.FromCategory == "") == (e.ToCategory == "") {
			return domain.NewValidationError("category", "el ajuste lleva exactamente una categoría")
		}
	default:
		return domain.NewValidationError("type", "tipo de evento desconocido")
	}
	if e.Type != entity.EventAdjustment && e.Quantity == 0 {
		return domain.NewValidationError("quantity", "la cantidad debe ser mayor que cero")
	}
	return nil
}
