package entity

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// Category partición de bodega para un producto (siap_jual, riset, retur, backup_teknisi).
// Es una etiqueta de un conjunto cerrado, no una entidad con ciclo de vida propio.
type Category string

// Categorías por defecto.
const (
	CategoryReadyToSell     Category = "siap_jual"      // listo para la venta
	CategoryResearch        Category = "riset"          // investigación / pruebas
	CategoryReturns         Category = "retur"          // devoluciones
	CategoryTechnicianStock Category = "backup_teknisi" // respaldo en manos de técnicos
)

// DefaultCategories conjunto usado cuando la configuración no define STOCK_CATEGORIES.
var DefaultCategories = []Category{
	CategoryReadyToSell,
	CategoryResearch,
	CategoryReturns,
	CategoryTechnicianStock,
}

func (c Category) String() string { return string(c) }

// CategorySet conjunto cerrado de categorías válidas, en el orden configurado.
type CategorySet struct {
	ordered []Category
	index   map[Category]struct{}
}

var lower = cases.Lower(language.Und)

// NewCategorySet construye el conjunto; rechaza códigos vacíos o repetidos.
func NewCategorySet(codes ...string) (CategorySet, error) {
	set := CategorySet{index: make(map[Category]struct{}, len(codes))}
	for _, raw := range codes {
		c := normalize(raw)
		if c == "" {
			return CategorySet{}, fmt.Errorf("categoría vacía en la configuración")
		}
		if _, dup := set.index[c]; dup {
			return CategorySet{}, fmt.Errorf("categoría repetida: %s", c)
		}
		set.index[c] = struct{}{}
		set.ordered = append(set.ordered, c)
	}
	if len(set.ordered) == 0 {
		return CategorySet{}, fmt.Errorf("se requiere al menos una categoría")
	}
	return set, nil
}

// MustCategorySet igual que NewCategorySet pero hace panic; útil para valores por defecto y tests.
func MustCategorySet(codes ...Category) CategorySet {
	raw := make([]string, len(codes))
	for i, c := range codes {
		raw[i] = string(c)
	}
	set, err := NewCategorySet(raw...)
	if err != nil {
		panic(err)
	}
	return set
}

// Parse normaliza (trim + minúsculas) y valida contra el conjunto cerrado.
func (s CategorySet) Parse(raw string) (Category, error) {
	c := normalize(raw)
	if c == "" {
		return "", domain.NewValidationError("category", "categoría requerida")
	}
	if !s.Contains(c) {
		return "", domain.NewValidationError("category", fmt.Sprintf("categoría desconocida %q", c))
	}
	return c, nil
}

// Contains indica si la categoría pertenece al conjunto.
func (s CategorySet) Contains(c Category) bool {
	_, ok := s.index[c]
	return ok
}

// All devuelve las categorías en el orden configurado.
func (s CategorySet) All() []Category {
	out := make([]Category, len(s.ordered))
	copy(out, s.ordered)
	return out
}

func normalize(raw string) Category {
	return Category(lower.String(strings.TrimSpace(raw)))
}
