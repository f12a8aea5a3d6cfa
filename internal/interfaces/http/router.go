package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/invoice"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockService *stock.Service
	LedgerQuery  *ledger.QueryUseCase
	Reconcile    *ledger.ReconcileUseCase
	ProductUC    *usecase.ProductUseCase
	InvoiceUC    *invoice.UpdateUseCase
	Profiles     repository.ProfileRepository
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Rutas protegidas (requieren Bearer Token; autorización por claim role)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	managers := RequireRole(entity.RoleAdmin, entity.RoleStaff)
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleStaff, entity.RoleTechnician)

	// Stock
	stockGroup := api.Group("/stock")
	stockHandler := NewStockHandler(deps.StockService, deps.LedgerQuery, deps.Reconcile)
	stockGroup.Post("/receive", managers, stockHandler.Receive)
	stockGroup.Post("/issue", managers, stockHandler.Issue)
	stockGroup.Post("/transfer", managers, stockHandler.Transfer)
	stockGroup.Post("/adjust", managers, stockHandler.Adjust)
	stockGroup.Get("/reconcile", RequireRole(entity.RoleAdmin), stockHandler.Reconcile)
	stockGroup.Get("/:product_id", anyRole, stockHandler.Balances)
	stockGroup.Get("/:product_id/ledger", anyRole, stockHandler.Ledger)

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", managers, productHandler.Create)
	products.Get("/", anyRole, productHandler.List)
	products.Get("/:id", anyRole, productHandler.GetByID)
	products.Put("/:id", managers, productHandler.Update)

	// Funciones privilegiadas: el rol sale del perfil, no del token
	functions := app.Group("/functions", RequireProfileRole(deps.JWTSecret, deps.Profiles, entity.RoleAdmin, entity.RoleStaff))
	functionsHandler := NewFunctionsHandler(deps.StockService, deps.InvoiceUC)
	functions.Post("/atomic-stock-transfer", functionsHandler.AtomicStockTransfer)
	functions.Post("/update-invoice-and-deduct-stock", functionsHandler.UpdateInvoiceAndDeductStock)
}
