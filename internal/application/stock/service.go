package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// Service es el único componente que modifica registros de inventario.
// Cada operación corre en una sola transacción con actualizaciones condicionales,
// de modo que la cantidad nunca queda negativa aunque haya llamadas concurrentes.
type Service struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	invRepo     repository.InventoryRepository
	categories  entity.CategorySet
	timeout     time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

// NewService construye el servicio de movimientos de stock.
// invRepo se usa solo para lecturas fuera de transacción (saldos).
func NewService(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	invRepo repository.InventoryRepository,
	categories entity.CategorySet,
	timeout time.Duration,
	log zerolog.Logger,
) *Service {
	return &Service{
		txRunner:    txRunner,
		productRepo: productRepo,
		invRepo:     invRepo,
		categories:  categories,
		timeout:     timeout,
		log:         log,
		now:         time.Now,
	}
}

// ReceiveInput entrada para Receive.
type ReceiveInput struct {
	CompanyID string
	ActorID   string
	ProductID string
	Category  string
	Quantity  int64
	Note      string
	Reference string
	EventDate time.Time // cero = ahora
}

// IssueInput entrada para Issue.
type IssueInput struct {
	CompanyID string
	ActorID   string
	ProductID string
	Category  string
	Quantity  int64
	Note      string
	Reference string
	EventDate time.Time
}

// TransferInput entrada para Transfer.
type TransferInput struct {
	CompanyID    string
	ActorID      string
	ProductID    string
	FromCategory string
	ToCategory   string
	Quantity     int64
	Note         string
	Reference    string
	EventDate    time.Time
}

// AdjustInput entrada para Adjust. Reason es obligatorio.
type AdjustInput struct {
	CompanyID   string
	ActorID     string
	ProductID   string
	Category    string
	NewQuantity int64
	Reason      string
	EventDate   time.Time
}

// Result resultado de una operación: asiento registrado y saldos de las categorías tocadas.
type Result struct {
	Entry          entity.LedgerEntry
	Balances       map[entity.Category]int64
	BelowSafeStock bool
}

// Categories devuelve el conjunto cerrado de categorías configurado.
func (s *Service) Categories() entity.CategorySet { return s.categories }

// Receive suma quantity a la categoría y registra un asiento "in" ("initial" si es la primera entrada del producto).
func (s *Service) Receive(ctx context.Context, in ReceiveInput) (*Result, error) {
	cat, err := s.categories.Parse(in.Category)
	if err != nil {
		return nil, err
	}
	if err := requireBase(in.CompanyID, in.ProductID); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "la cantidad debe ser mayor que cero")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.loadProduct(ctx, in.CompanyID, in.ProductID); err != nil {
		return nil, s.classify(ctx, "receive", err)
	}

	res := &Result{Balances: make(map[entity.Category]int64, 1)}
	err = s.txRunner.Run(ctx, func(invRepo repository.InventoryRepository, ledgerRepo repository.LedgerRepository) error {
		// Sin el bloqueo dos primeras entradas concurrentes registrarían ambas "initial".
		if err := invRepo.LockProduct(ctx, in.CompanyID, in.ProductID); err != nil {
			return err
		}
		seen, err := ledgerRepo.HasProductEntries(ctx, in.CompanyID, in.ProductID)
		if err != nil {
			return err
		}
		newQty, err := invRepo.Increment(ctx, in.CompanyID, in.ProductID, cat, in.Quantity, in.ActorID)
		if err != nil {
			return err
		}
		eventType := entity.EventIn
		if !seen {
			eventType = entity.EventInitial
		}
		entry := s.newEntry(in.CompanyID, in.ProductID, in.ActorID, eventType, in.Quantity, in.EventDate)
		entry.ToCategory = cat
		entry.Note = in.Note
		entry.Reference = in.Reference
		if err := appendEntry(ctx, ledgerRepo, &entry); err != nil {
			return err
		}
		res.Entry = entry
		res.Balances[cat] = newQty
		return nil
	})
	if err != nil {
		return nil, s.classify(ctx, "receive", err)
	}
	return res, nil
}

// Issue resta quantity de la categoría. Si no hay existencia suficiente devuelve
// *domain.InsufficientStockError sin escribir nada.
func (s *Service) Issue(ctx context.Context, in IssueInput) (*Result, error) {
	cat, err := s.categories.Parse(in.Category)
	if err != nil {
		return nil, err
	}
	if err := requireBase(in.CompanyID, in.ProductID); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "la cantidad debe ser mayor que cero")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	product, err := s.loadProduct(ctx, in.CompanyID, in.ProductID)
	if err != nil {
		return nil, s.classify(ctx, "issue", err)
	}

	res := &Result{Balances: make(map[entity.Category]int64, 1)}
	err = s.txRunner.Run(ctx, func(invRepo repository.InventoryRepository, ledgerRepo repository.LedgerRepository) error {
		newQty, err := decrement(ctx, invRepo, in.CompanyID, in.ProductID, cat, in.Quantity, in.ActorID)
		if err != nil {
			return err
		}
		entry := s.newEntry(in.CompanyID, in.ProductID, in.ActorID, entity.EventOut, in.Quantity, in.EventDate)
		entry.FromCategory = cat
		entry.Note = in.Note
		entry.Reference = in.Reference
		if err := appendEntry(ctx, ledgerRepo, &entry); err != nil {
			return err
		}
		res.Entry = entry
		res.Balances[cat] = newQty
		return nil
	})
	if err != nil {
		return nil, s.classify(ctx, "issue", err)
	}
	res.BelowSafeStock = s.checkSafeStock(product, cat, res.Balances[cat])
	return res, nil
}

// Transfer mueve quantity de una categoría a otra sin cambiar el total del producto.
// Descuento del origen, abono al destino y asiento "transfer" se confirman en la misma transacción.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (*Result, error) {
	from, err := s.categories.Parse(in.FromCategory)
	if err != nil {
		return nil, withField(err, "from_category")
	}
	to, err := s.categories.Parse(in.ToCategory)
	if err != nil {
		return nil, withField(err, "to_category")
	}
	if err := requireBase(in.CompanyID, in.ProductID); err != nil {
		return nil, err
	}
	if from == to {
		return nil, domain.NewValidationError("to_category", "origen y destino deben ser distintos")
	}
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "la cantidad debe ser mayor que cero")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	product, err := s.loadProduct(ctx, in.CompanyID, in.ProductID)
	if err != nil {
		return nil, s.classify(ctx, "transfer", err)
	}

	res := &Result{Balances: make(map[entity.Category]int64, 2)}
	err = s.txRunner.Run(ctx, func(invRepo repository.InventoryRepository, ledgerRepo repository.LedgerRepository) error {
		// Bloqueo en orden fijo para que traslados cruzados (A→B y B→A) no se bloqueen mutuamente.
		locked := []entity.Category{from, to}
		sort.Slice(locked, func(i, j int) bool { return locked[i] < locked[j] })
		for _, c := range locked {
			if _, err := invRepo.GetForUpdate(ctx, in.CompanyID, in.ProductID, c); err != nil {
				return err
			}
		}

		srcQty, err := decrement(ctx, invRepo, in.CompanyID, in.ProductID, from, in.Quantity, in.ActorID)
		if err != nil {
			return err
		}
		dstQty, err := invRepo.Increment(ctx, in.CompanyID, in.ProductID, to, in.Quantity, in.ActorID)
		if err != nil {
			return err
		}
		entry := s.newEntry(in.CompanyID, in.ProductID, in.ActorID, entity.EventTransfer, in.Quantity, in.EventDate)
		entry.FromCategory = from
		entry.ToCategory = to
		entry.Note = in.Note
		entry.Reference = in.Reference
		if err := appendEntry(ctx, ledgerRepo, &entry); err != nil {
			return err
		}
		res.Entry = entry
		res.Balances[from] = srcQty
		res.Balances[to] = dstQty
		return nil
	})
	if err != nil {
		return nil, s.classify(ctx, "transfer", err)
	}
	res.BelowSafeStock = s.checkSafeStock(product, from, res.Balances[from])
	return res, nil
}

// Adjust fija la cantidad de la categoría a NewQuantity (conteo físico).
// Convención del asiento: delta >= 0 → categoría destino; delta < 0 → categoría origen.
// Un delta cero también se registra para que el conteo quede auditado.
func (s *Service) Adjust(ctx context.Context, in AdjustInput) (*Result, error) {
	cat, err := s.categories.Parse(in.Category)
	if err != nil {
		return nil, err
	}
	if err := requireBase(in.CompanyID, in.ProductID); err != nil {
		return nil, err
	}
	if in.NewQuantity < 0 {
		return nil, domain.NewValidationError("new_quantity", "la cantidad no puede ser negativa")
	}
	if in.Reason == "" {
		return nil, domain.NewValidationError("reason", "el motivo del ajuste es obligatorio")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	product, err := s.loadProduct(ctx, in.CompanyID, in.ProductID)
	if err != nil {
		return nil, s.classify(ctx, "adjust", err)
	}

	res := &Result{Balances: make(map[entity.Category]int64, 1)}
	err = s.txRunner.Run(ctx, func(invRepo repository.InventoryRepository, ledgerRepo repository.LedgerRepository) error {
		current, err := invRepo.GetForUpdate(ctx, in.CompanyID, in.ProductID, cat)
		if err != nil {
			return err
		}
		if err := invRepo.SetQuantity(ctx, in.CompanyID, in.ProductID, cat, in.NewQuantity, in.ActorID); err != nil {
			return err
		}
		delta := in.NewQuantity - current
		qty := delta
		if qty < 0 {
			qty = -qty
		}
		entry := s.newEntry(in.CompanyID, in.ProductID, in.ActorID, entity.EventAdjustment, qty, in.EventDate)
		if delta < 0 {
			entry.FromCategory = cat
		} else {
			entry.ToCategory = cat
		}
		entry.Note = fmt.Sprintf("%d -> %d: %s", current, in.NewQuantity, in.Reason)
		if err := appendEntry(ctx, ledgerRepo, &entry); err != nil {
			return err
		}
		res.Entry = entry
		res.Balances[cat] = in.NewQuantity
		return nil
	})
	if err != nil {
		return nil, s.classify(ctx, "adjust", err)
	}
	res.BelowSafeStock = s.checkSafeStock(product, cat, in.NewQuantity)
	return res, nil
}

// GetQuantity cantidad actual del par (0 si nunca hubo movimientos).
func (s *Service) GetQuantity(ctx context.Context, companyID, productID, category string) (int64, error) {
	cat, err := s.categories.Parse(category)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	qty, err := s.invRepo.GetQuantity(ctx, companyID, productID, cat)
	if err != nil {
		return 0, s.classify(ctx, "get quantity", err)
	}
	return qty, nil
}

// Balances devuelve un registro por cada categoría configurada, en 0 las que nunca se tocaron.
func (s *Service) Balances(ctx context.Context, companyID, productID string) ([]entity.InventoryRecord, error) {
	if err := requireBase(companyID, productID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.loadProduct(ctx, companyID, productID); err != nil {
		return nil, s.classify(ctx, "balances", err)
	}
	records, err := s.invRepo.ListByProduct(ctx, companyID, productID)
	if err != nil {
		return nil, s.classify(ctx, "balances", err)
	}
	byCat := make(map[entity.Category]entity.InventoryRecord, len(records))
	for _, r := range records {
		byCat[r.Category] = r
	}
	out := make([]entity.InventoryRecord, 0, len(s.categories.All()))
	for _, c := range s.categories.All() {
		r, ok := byCat[c]
		if !ok {
			r = entity.InventoryRecord{CompanyID: companyID, ProductID: productID, Category: c}
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Service) loadProduct(ctx context.Context, companyID, productID string) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if product.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return product, nil
}

func (s *Service) newEntry(companyID, productID, actorID string, t entity.EventType, qty int64, eventDate time.Time) entity.LedgerEntry {
	now := s.now().UTC()
	if eventDate.IsZero() {
		eventDate = now
	}
	return entity.LedgerEntry{
		ID:        uuid.Must(uuid.NewV7()).String(),
		CompanyID: companyID,
		ProductID: productID,
		Type:      t,
		Quantity:  qty,
		EventDate: eventDate.UTC(),
		CreatedAt: now,
		CreatedBy: actorID,
	}
}

func (s *Service) checkSafeStock(product *entity.Product, cat entity.Category, qty int64) bool {
	if product == nil || product.SafeStock <= 0 || qty >= product.SafeStock {
		return false
	}
	s.log.Warn().
		Str("product_id", product.ID).
		Str("product_code", product.Code).
		Str("category", cat.String()).
		Int64("quantity", qty).
		Int64("safe_stock", product.SafeStock).
		Msg("stock por debajo del nivel de seguridad")
	return true
}

// classify traduce errores de infraestructura a la taxonomía de dominio.
func (s *Service) classify(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrTimeout),
		errors.Is(err, domain.ErrStorage):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, domain.ErrTimeout)
	}
	return &domain.StorageError{Op: op, Err: err}
}

func decrement(ctx context.Context, invRepo repository.InventoryRepository, companyID, productID string, cat entity.Category, qty int64, actorID string) (int64, error) {
	newQty, ok, err := invRepo.DecrementIfAvailable(ctx, companyID, productID, cat, qty, actorID)
	if err != nil {
		return 0, err
	}
	if !ok {
		available, err := invRepo.GetQuantity(ctx, companyID, productID, cat)
		if err != nil {
			return 0, err
		}
		return 0, &domain.InsufficientStockError{Available: available, Requested: qty}
	}
	return newQty, nil
}

func appendEntry(ctx context.Context, ledgerRepo repository.LedgerRepository, entry *entity.LedgerEntry) error {
	if err := inventory.ValidateEntry(*entry); err != nil {
		return err
	}
	return ledgerRepo.Append(ctx, entry)
}

func requireBase(companyID, productID string) error {
	if companyID == "" {
		return domain.NewValidationError("company_id", "empresa requerida")
	}
	if productID == "" {
		return domain.NewValidationError("product_id", "producto requerido")
	}
	return nil
}

func withField(err error, field string) error {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return domain.NewValidationError(field, vErr.Message)
	}
	return err
}
