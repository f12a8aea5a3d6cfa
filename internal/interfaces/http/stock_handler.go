package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

const (
	defaultLedgerLimit = 50
	maxLedgerLimit     = 500
)

// StockHandler maneja movimientos de stock, saldos y kardex (protegido).
type StockHandler struct {
	svc       *stock.Service
	query     *ledger.QueryUseCase
	reconcile *ledger.ReconcileUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(svc *stock.Service, query *ledger.QueryUseCase, reconcile *ledger.ReconcileUseCase) *StockHandler {
	return &StockHandler{svc: svc, query: query, reconcile: reconcile}
}

// Receive godoc
// @Summary      Registrar entrada de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveStockRequest  true  "product_id, category, quantity"
// @Success      201   {object}  dto.StockMutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/receive [post]
func (h *StockHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.svc.Receive(c.UserContext(), stock.ReceiveInput{
		CompanyID: GetCompanyID(c),
		ActorID:   GetUserID(c),
		ProductID: in.ProductID,
		Category:  in.Category,
		Quantity:  in.Quantity,
		Note:      in.Notes,
		Reference: in.Reference,
		EventDate: timeOrZero(in.EventDate),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMutationResponse(res))
}

// Issue godoc
// @Summary      Registrar salida de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IssueStockRequest  true  "product_id, category, quantity"
// @Success      201   {object}  dto.StockMutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/issue [post]
func (h *StockHandler) Issue(c *fiber.Ctx) error {
	var in dto.IssueStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.svc.Issue(c.UserContext(), stock.IssueInput{
		CompanyID: GetCompanyID(c),
		ActorID:   GetUserID(c),
		ProductID: in.ProductID,
		Category:  in.Category,
		Quantity:  in.Quantity,
		Note:      in.Notes,
		Reference: in.Reference,
		EventDate: timeOrZero(in.EventDate),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMutationResponse(res))
}

// Transfer godoc
// @Summary      Trasladar stock entre categorías
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferStockRequest  true  "product_id, from_category, to_category, quantity"
// @Success      201   {object}  dto.StockMutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/transfer [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.svc.Transfer(c.UserContext(), toTransferInput(c, in))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMutationResponse(res))
}

// Adjust godoc
// @Summary      Ajustar stock por conteo físico
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, category, new_quantity, reason"
// @Success      201   {object}  dto.StockMutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.NewQuantity == nil {
		return writeError(c, domain.NewValidationError("new_quantity", "new_quantity es requerido"))
	}
	res, err := h.svc.Adjust(c.UserContext(), stock.AdjustInput{
		CompanyID:   GetCompanyID(c),
		ActorID:     GetUserID(c),
		ProductID:   in.ProductID,
		Category:    in.Category,
		NewQuantity: *in.NewQuantity,
		Reason:      in.Reason,
		EventDate:   timeOrZero(in.EventDate),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMutationResponse(res))
}

// Balances godoc
// @Summary      Saldos de un producto por categoría
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductBalancesResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id} [get]
func (h *StockHandler) Balances(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	records, err := h.svc.Balances(c.UserContext(), GetCompanyID(c), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToProductBalancesResponse(productID, records))
}

// Ledger godoc
// @Summary      Kardex de un producto
// @Description  Asientos más recientes primero. type admite varios valores separados por coma.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "ID del producto"
// @Param        type        query  string  false  "initial,in,out,transfer,adjustment"
// @Param        from        query  string  false  "Fecha de evento desde (RFC3339 o YYYY-MM-DD)"
// @Param        to          query  string  false  "Fecha de evento hasta (RFC3339 o YYYY-MM-DD)"
// @Param        limit       query  int     false  "Máximo de asientos"  default(50)
// @Success      200  {object}  dto.LedgerPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id}/ledger [get]
func (h *StockHandler) Ledger(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	filter, err := parseLedgerFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	limit := c.QueryInt("limit", defaultLedgerLimit)
	if limit <= 0 {
		limit = defaultLedgerLimit
	}
	if limit > maxLedgerLimit {
		limit = maxLedgerLimit
	}

	entries, err := ledger.Collect(h.query.QueryByProduct(c.UserContext(), GetCompanyID(c), productID, filter), limit)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.LedgerPageResponse{ProductID: productID, Entries: make([]dto.LedgerEntryResponse, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, dto.ToLedgerEntryResponse(e))
	}
	out.Count = len(out.Entries)
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Conciliar inventario contra kardex
// @Description  Recalcula los saldos desde el kardex y devuelve las diferencias con el inventario.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stock/reconcile [get]
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	drift, err := h.reconcile.Reconcile(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	if drift == nil {
		drift = []ledger.Drift{}
	}
	return c.JSON(fiber.Map{"consistent": len(drift) == 0, "drift": drift})
}

func parseLedgerFilter(c *fiber.Ctx) (repository.LedgerFilter, error) {
	var filter repository.LedgerFilter
	if raw := c.Query("type"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			t, ok := entity.ParseEventType(strings.TrimSpace(part))
			if !ok {
				return filter, domain.NewValidationError("type", "tipo de evento desconocido: "+part)
			}
			filter.Types = append(filter.Types, t)
		}
	}
	if raw := c.Query("from"); raw != "" {
		t, err := parseDate(raw, false)
		if err != nil {
			return filter, domain.NewValidationError("from", "fecha inválida")
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseDate(raw, true)
		if err != nil {
			return filter, domain.NewValidationError("to", "fecha inválida")
		}
		filter.To = &t
	}
	return filter, nil
}

// parseDate acepta RFC3339 o YYYY-MM-DD; con endOfDay la fecha simple cubre el día completo.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func toTransferInput(c *fiber.Ctx, in dto.TransferStockRequest) stock.TransferInput {
	return stock.TransferInput{
		CompanyID:    GetCompanyID(c),
		ActorID:      GetUserID(c),
		ProductID:    in.ProductID,
		FromCategory: in.FromCategory,
		ToCategory:   in.ToCategory,
		Quantity:     in.Quantity,
		Note:         in.Notes,
		EventDate:    timeOrZero(in.EventDate),
	}
}

func toMutationResponse(res *stock.Result) dto.StockMutationResponse {
	balances := make(map[string]int64, len(res.Balances))
	for cat, qty := range res.Balances {
		balances[cat.String()] = qty
	}
	return dto.StockMutationResponse{
		Entry:          dto.ToLedgerEntryResponse(res.Entry),
		Balances:       balances,
		BelowSafeStock: res.BelowSafeStock,
	}
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
