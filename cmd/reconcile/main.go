// Command reconcile reproduce el kardex de una empresa y lo compara con el inventario materializado.
// Sale con código 1 si encuentra diferencias.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/storage"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

func main() {
	companyID := flag.String("company", "", "ID de la empresa a conciliar")
	timeout := flag.Duration("timeout", 5*time.Minute, "tiempo máximo de la conciliación")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	if *companyID == "" {
		log.Fatal().Msg("-company es obligatorio")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := storage.Open(ctx, cfg.DB, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("abrir base de datos")
	}

	uc := ledger.NewReconcileUseCase(store.TxRunner, ledger.DefaultPageSize)
	drift, err := uc.Reconcile(ctx, *companyID)
	store.Close()
	if err != nil {
		log.Fatal().Err(err).Str("company_id", *companyID).Msg("conciliación fallida")
	}

	for _, d := range drift {
		log.Warn().
			Str("product_id", d.ProductID).
			Str("category", d.Category).
			Int64("recorded", d.Recorded).
			Int64("expected", d.Expected).
			Msg("inventario no coincide con el kardex")
	}
	if len(drift) > 0 {
		log.Error().Int("drift", len(drift)).Str("company_id", *companyID).Msg("inventario inconsistente")
		os.Exit(1)
	}
	log.Info().Str("company_id", *companyID).Msg("inventario consistente")
}
