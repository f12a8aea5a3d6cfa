package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test (requieren un PostgreSQL real en POSTGRES_TEST_URL)
// ──────────────────────────────────────────────────────────────────────────────

const actorID = "user-1"

// pgFixture cada test usa su propia empresa: el kardex es append-only y no se puede limpiar.
type pgFixture struct {
	pool      *pgxpool.Pool
	companyID string
	svc       *stock.Service
	reconcile *ledger.ReconcileUseCase
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{
		DatabaseURL:      url,
		MaxConns:         40,
		MinConns:         1,
		StatementTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.EnsureSchema(ctx, pool))

	txRunner := postgres.NewTxRunner(pool)
	return &pgFixture{
		pool:      pool,
		companyID: "test-" + uuid.NewString(),
		svc: stock.NewService(
			txRunner, postgres.NewProductRepository(pool), postgres.NewInventoryRepository(pool),
			entity.MustCategorySet(entity.DefaultCategories...), 10*time.Second, zerolog.Nop(),
		),
		reconcile: ledger.NewReconcileUseCase(txRunner, 50),
	}
}

func (f *pgFixture) product(t *testing.T) string {
	t.Helper()
	now := time.Now().UTC()
	p := &entity.Product{
		ID: uuid.NewString(), CompanyID: f.companyID, Code: "code-" + uuid.NewString()[:8], Name: "ONU",
		Unit: "pcs", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, postgres.NewProductRepository(f.pool).Create(context.Background(), p))
	return p.ID
}

func (f *pgFixture) receive(t *testing.T, productID, category string, qty int64) {
	t.Helper()
	_, err := f.svc.Receive(context.Background(), stock.ReceiveInput{
		CompanyID: f.companyID, ActorID: actorID, ProductID: productID, Category: category, Quantity: qty,
	})
	require.NoError(t, err)
}

func (f *pgFixture) qty(t *testing.T, productID, category string) int64 {
	t.Helper()
	q, err := f.svc.GetQuantity(context.Background(), f.companyID, productID, category)
	require.NoError(t, err)
	return q
}

func (f *pgFixture) assertConsistent(t *testing.T) {
	t.Helper()
	drift, err := f.reconcile.Reconcile(context.Background(), f.companyID)
	require.NoError(t, err)
	assert.Empty(t, drift, "el inventario debe coincidir con la reproducción del kardex")
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestPostgres_DespachosConcurrentesNuncaQuedanNegativos(t *testing.T) {
	f := newPGFixture(t)
	productID := f.product(t)
	f.receive(t, productID, "siap_jual", 10)

	const workers = 25
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
		unexpected   []error
	)
	start := make(chan struct{})
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Issue(context.Background(), stock.IssueInput{
				CompanyID: f.companyID, ActorID: actorID, ProductID: productID, Category: "siap_jual", Quantity: 1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Empty(t, unexpected)
	assert.Equal(t, 10, ok, "solo pueden salir las 10 unidades existentes")
	assert.Equal(t, workers-10, rejected)
	assert.Equal(t, int64(0), f.qty(t, productID, "siap_jual"))
	f.assertConsistent(t)
}

func TestPostgres_TrasladosCruzadosSinInterbloqueo(t *testing.T) {
	f := newPGFixture(t)
	productID := f.product(t)
	f.receive(t, productID, "siap_jual", 50)
	f.receive(t, productID, "riset", 50)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	start := make(chan struct{})
	for i := range workers {
		from, to := "siap_jual", "riset"
		if i%2 == 1 {
			from, to = to, from
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Transfer(context.Background(), stock.TransferInput{
				CompanyID: f.companyID, ActorID: actorID, ProductID: productID,
				FromCategory: from, ToCategory: to, Quantity: 3,
			})
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err, "los traslados en sentidos opuestos bloquean en el mismo orden")
	}
	assert.Equal(t, int64(50), f.qty(t, productID, "siap_jual"))
	assert.Equal(t, int64(50), f.qty(t, productID, "riset"))
	f.assertConsistent(t)
}

func TestPostgres_PrimerasEntradasConcurrentesUnSoloInitial(t *testing.T) {
	f := newPGFixture(t)
	productID := f.product(t)

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan *stock.Result, workers)
	start := make(chan struct{})
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := f.svc.Receive(context.Background(), stock.ReceiveInput{
				CompanyID: f.companyID, ActorID: actorID, ProductID: productID, Category: "siap_jual", Quantity: 1,
			})
			assert.NoError(t, err)
			results <- res
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	initial := 0
	for res := range results {
		if res != nil && res.Entry.Type == entity.EventInitial {
			initial++
		}
	}
	assert.Equal(t, 1, initial)
	assert.Equal(t, int64(workers), f.qty(t, productID, "siap_jual"))
}

func TestPostgres_ConciliacionDuranteEscriturasNoReportaDeriva(t *testing.T) {
	f := newPGFixture(t)
	productID := f.product(t)
	f.receive(t, productID, "siap_jual", 100)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				_, _ = f.svc.Transfer(context.Background(), stock.TransferInput{
					CompanyID: f.companyID, ActorID: actorID, ProductID: productID,
					FromCategory: "siap_jual", ToCategory: "riset", Quantity: 1,
				})
				_, _ = f.svc.Receive(context.Background(), stock.ReceiveInput{
					CompanyID: f.companyID, ActorID: actorID, ProductID: productID, Category: "siap_jual", Quantity: 1,
				})
			}
		}()
	}

	for range 15 {
		drift, err := f.reconcile.Reconcile(context.Background(), f.companyID)
		require.NoError(t, err)
		assert.Empty(t, drift, "kardex e inventario salen de la misma foto")
	}
	close(stop)
	wg.Wait()
	f.assertConsistent(t)
}

// ──────────────────────────────────────────────────────────────────────────────
// Kardex append-only y reclamo de descuento
// ──────────────────────────────────────────────────────────────────────────────

func TestPostgres_KardexRechazaUpdateYDelete(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()
	entry := &entity.LedgerEntry{
		ID: uuid.NewString(), CompanyID: f.companyID, ProductID: "p-1", Type: entity.EventIn, Quantity: 5,
		ToCategory: entity.CategoryReadyToSell, EventDate: now, CreatedAt: now, CreatedBy: actorID,
	}
	require.NoError(t, postgres.NewLedgerRepository(f.pool).Append(ctx, entry))

	_, err := f.pool.Exec(ctx, `UPDATE stock_ledger SET quantity = 50 WHERE id = $1`, entry.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append-only")

	_, err = f.pool.Exec(ctx, `DELETE FROM stock_ledger WHERE id = $1`, entry.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append-only")

	var qty int64
	require.NoError(t, f.pool.QueryRow(ctx, `SELECT quantity FROM stock_ledger WHERE id = $1`, entry.ID).Scan(&qty))
	assert.Equal(t, int64(5), qty)
}

func TestPostgres_ClaimStockDeductionConcurrenteSoloUnaVez(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	repo := postgres.NewInvoiceRepository(f.pool)
	now := time.Now().UTC()
	inv := &entity.Invoice{
		CompanyID:     f.companyID,
		Number:        "F-001",
		Status:        entity.InvoiceStatusCompleted,
		PaymentStatus: entity.PaymentStatusPaid,
		Total:         decimal.NewFromInt(30),
		Items: []entity.InvoiceItem{
			{ID: uuid.NewString(), ProductID: "p-1", Quantity: 3, UnitPrice: decimal.NewFromInt(10), Subtotal: decimal.NewFromInt(30)},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, inv))

	const workers = 5
	var wg sync.WaitGroup
	claims := make(chan bool, workers)
	start := make(chan struct{})
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := repo.ClaimStockDeduction(ctx, inv.ID, time.Now().UTC())
			assert.NoError(t, err)
			claims <- ok
		}()
	}
	close(start)
	wg.Wait()
	close(claims)

	won := 0
	for ok := range claims {
		if ok {
			won++
		}
	}
	assert.Equal(t, 1, won)

	got, err := repo.GetByID(ctx, f.companyID, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.StockDeducted)
}
