package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrStorage           = errors.New("error de almacenamiento")
	ErrTimeout           = errors.New("tiempo de espera agotado")
)

// ValidationError entrada malformada (cantidad no positiva, campo faltante, categorías iguales).
// Se rechaza antes de cualquier escritura.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError construye un ValidationError para el campo indicado.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// InsufficientStockError la categoría origen no tiene la cantidad solicitada.
type InsufficientStockError struct {
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: disponible %d, solicitado %d", e.Available, e.Requested)
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// StorageError falla de lectura/escritura en el inventario o el kardex.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrStorage).
func (e *StorageError) Is(target error) bool { return target == ErrStorage }
