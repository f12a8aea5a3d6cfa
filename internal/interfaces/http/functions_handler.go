package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/invoice"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
)

// FunctionsHandler funciones privilegiadas (rol admin/staff según perfil).
// Respuestas {"message": "..."} o {"error": "..."}.
type FunctionsHandler struct {
	stock   *stock.Service
	invoice *invoice.UpdateUseCase
}

// NewFunctionsHandler construye el handler.
func NewFunctionsHandler(stockSvc *stock.Service, invoiceUC *invoice.UpdateUseCase) *FunctionsHandler {
	return &FunctionsHandler{stock: stockSvc, invoice: invoiceUC}
}

// AtomicStockTransfer godoc
// @Summary      Traslado atómico entre categorías
// @Tags         functions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferStockRequest  true  "product_id, from_category, to_category, quantity, notes"
// @Success      200   {object}  dto.FunctionMessage
// @Failure      400   {object}  dto.FunctionError
// @Failure      401   {object}  dto.FunctionError
// @Failure      403   {object}  dto.FunctionError
// @Failure      500   {object}  dto.FunctionError
// @Router       /functions/atomic-stock-transfer [post]
func (h *FunctionsHandler) AtomicStockTransfer(c *fiber.Ctx) error {
	var in dto.TransferStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.FunctionError{Error: "cuerpo inválido"})
	}
	res, err := h.stock.Transfer(c.UserContext(), toTransferInput(c, in))
	if err != nil {
		return writeFunctionError(c, err)
	}
	return c.JSON(dto.FunctionMessage{Message: fmt.Sprintf(
		"traslado de %d unidades de %s a %s registrado", res.Entry.Quantity, res.Entry.FromCategory, res.Entry.ToCategory,
	)})
}

// UpdateInvoiceAndDeductStock godoc
// @Summary      Actualizar factura y descontar inventario
// @Description  Al quedar pagada y completada por primera vez descuenta cada línea del inventario.
// @Description  Las líneas que no se pudieron descontar se devuelven en failed_items.
// @Tags         functions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateInvoiceRequest  true  "Cambios de la factura"
// @Success      200   {object}  dto.UpdateInvoiceResponse
// @Failure      400   {object}  dto.FunctionError
// @Failure      401   {object}  dto.FunctionError
// @Failure      403   {object}  dto.FunctionError
// @Failure      500   {object}  dto.FunctionError
// @Router       /functions/update-invoice-and-deduct-stock [post]
func (h *FunctionsHandler) UpdateInvoiceAndDeductStock(c *fiber.Ctx) error {
	var in dto.UpdateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.FunctionError{Error: "cuerpo inválido"})
	}
	out, err := h.invoice.UpdateAndDeduct(c.UserContext(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return writeFunctionError(c, err)
	}
	return c.JSON(out)
}
