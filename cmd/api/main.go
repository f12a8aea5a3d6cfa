package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/stock-ledger-api/docs"
	"github.com/jhoicas/stock-ledger-api/internal/application/invoice"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	infraredis "github.com/jhoicas/stock-ledger-api/internal/infrastructure/redis"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// @title                       Stock Ledger API
// @version                     1.0
// @description                 Kardex de inventario por categorías de bodega.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.DB, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("abrir base de datos")
	}
	defer store.Close()

	categories, err := entity.NewCategorySet(cfg.Stock.Categories...)
	if err != nil {
		log.Fatal().Err(err).Msg("STOCK_CATEGORIES inválido")
	}
	deductCategory, err := categories.Parse(cfg.Stock.DeductCategory)
	if err != nil {
		log.Fatal().Err(err).Msg("INVOICE_DEDUCT_CATEGORY no pertenece a STOCK_CATEGORIES")
	}

	// Perfiles: Redis opcional delante de la base
	var profiles repository.ProfileRepository = store.Profiles
	if cfg.Redis.Enabled() {
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, perfiles sin caché")
		} else {
			defer client.Close()
			profiles = infraredis.NewProfileCache(client, store.Profiles, cfg.Redis.ProfileTTL, log.Zerolog())
			log.Info().Str("addr", cfg.Redis.Addr).Msg("caché de perfiles activa")
		}
	}

	stockSvc := stock.NewService(
		store.TxRunner, store.Products, store.Inventory,
		categories, cfg.Stock.OperationTimeout,
		log.With().Str("component", "stock").Logger(),
	)
	ledgerQuery := ledger.NewQueryUseCase(store.Ledger, ledger.DefaultPageSize)
	reconcileUC := ledger.NewReconcileUseCase(store.TxRunner, ledger.DefaultPageSize)
	productUC := usecase.NewProductUseCase(store.Products)
	invoiceUC := invoice.NewUpdateUseCase(
		store.TxRunner, stockSvc, deductCategory,
		log.With().Str("component", "invoice").Logger(),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log.Zerolog()))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	// Documento OpenAPI servido desde el registro de swag (versión y host en tiempo de ejecución)
	docs.SwaggerInfo.Title = cfg.App.Name
	app.Get("/swagger/doc.json", func(c *fiber.Ctx) error {
		c.Type("json")
		return c.SendString(docs.SwaggerInfo.ReadDoc())
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "db_driver": store.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockService: stockSvc,
		LedgerQuery:  ledgerQuery,
		Reconcile:    reconcileUC,
		ProductUC:    productUC,
		InvoiceUC:    invoiceUC,
		Profiles:     profiles,
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
