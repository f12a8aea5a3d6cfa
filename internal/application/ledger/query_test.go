package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/sqlite"
)

const companyID = "company-1"

// countingRepo registra cuántas páginas se pidieron al almacenamiento.
type countingRepo struct {
	repository.LedgerRepository
	pages int
	fail  error
}

func (r *countingRepo) ListByProduct(ctx context.Context, companyID, productID string, filter repository.LedgerFilter, after *repository.LedgerCursor, limit int) ([]entity.LedgerEntry, error) {
	r.pages++
	if r.fail != nil {
		return nil, r.fail
	}
	return r.LedgerRepository.ListByProduct(ctx, companyID, productID, filter, after, limit)
}

// seed inserta n asientos del producto con created_at creciente; devuelve los IDs en orden de inserción.
func seed(t *testing.T, repo repository.LedgerRepository, productID string, types []entity.EventType) []string {
	t.Helper()
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	ids := make([]string, 0, len(types))
	for i, typ := range types {
		e := entity.LedgerEntry{
			ID:        fmt.Sprintf("e-%02d", i),
			CompanyID: companyID,
			ProductID: productID,
			Type:      typ,
			Quantity:  int64(i + 1),
			EventDate: base.Add(time.Duration(i) * time.Hour),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		switch typ {
		case entity.EventOut:
			e.FromCategory = entity.CategoryReadyToSell
		case entity.EventTransfer:
			e.FromCategory = entity.CategoryReadyToSell
			e.ToCategory = entity.CategoryResearch
		default:
			e.ToCategory = entity.CategoryReadyToSell
		}
		require.NoError(t, repo.Append(context.Background(), &e))
		ids = append(ids, e.ID)
	}
	return ids
}

func TestQueryByProduct_OrdenDescendentePorCreacion(t *testing.T) {
	repo := sqlite.NewLedgerRepository(sqlite.NewTestDB(t))
	ids := seed(t, repo, "p1", []entity.EventType{entity.EventInitial, entity.EventOut, entity.EventIn, entity.EventTransfer, entity.EventOut})
	uc := ledger.NewQueryUseCase(repo, 2)

	got, err := ledger.Collect(uc.QueryByProduct(context.Background(), companyID, "p1", repository.LedgerFilter{}), 0)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, e := range got {
		assert.Equal(t, ids[len(ids)-1-i], e.ID)
	}
}

func TestQueryByProduct_FiltraPorTipoYFecha(t *testing.T) {
	repo := sqlite.NewLedgerRepository(sqlite.NewTestDB(t))
	seed(t, repo, "p1", []entity.EventType{entity.EventInitial, entity.EventOut, entity.EventIn, entity.EventOut, entity.EventOut})
	uc := ledger.NewQueryUseCase(repo, 10)
	ctx := context.Background()

	outs, err := ledger.Collect(uc.QueryByProduct(ctx, companyID, "p1", repository.LedgerFilter{Types: []entity.EventType{entity.EventOut}}), 0)
	require.NoError(t, err)
	assert.Len(t, outs, 3)
	for _, e := range outs {
		assert.Equal(t, entity.EventOut, e.Type)
	}

	from := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC)
	window, err := ledger.Collect(uc.QueryByProduct(ctx, companyID, "p1", repository.LedgerFilter{From: &from, To: &to}), 0)
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "e-03", window[0].ID)
	assert.Equal(t, "e-02", window[1].ID)
}

func TestQueryByProduct_ProductoSinAsientos(t *testing.T) {
	uc := ledger.NewQueryUseCase(sqlite.NewLedgerRepository(sqlite.NewTestDB(t)), 0)

	got, err := ledger.Collect(uc.QueryByProduct(context.Background(), companyID, "nada", repository.LedgerFilter{}), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQueryByProduct_SecuenciaReiniciable(t *testing.T) {
	repo := sqlite.NewLedgerRepository(sqlite.NewTestDB(t))
	seed(t, repo, "p1", []entity.EventType{entity.EventInitial, entity.EventIn, entity.EventOut})
	seq := ledger.NewQueryUseCase(repo, 2).QueryByProduct(context.Background(), companyID, "p1", repository.LedgerFilter{})

	first, err := ledger.Collect(seq, 0)
	require.NoError(t, err)
	second, err := ledger.Collect(seq, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestQueryByProduct_PidePaginasSoloAlAvanzar(t *testing.T) {
	inner := sqlite.NewLedgerRepository(sqlite.NewTestDB(t))
	seed(t, inner, "p1", []entity.EventType{entity.EventInitial, entity.EventIn, entity.EventIn, entity.EventOut, entity.EventOut, entity.EventOut})
	repo := &countingRepo{LedgerRepository: inner}
	seq := ledger.NewQueryUseCase(repo, 2).QueryByProduct(context.Background(), companyID, "p1", repository.LedgerFilter{})
	assert.Zero(t, repo.pages, "construir la secuencia no consulta el almacenamiento")

	got, err := ledger.Collect(seq, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 2, repo.pages)
}

func TestQueryByProduct_ErrorDeAlmacenamiento(t *testing.T) {
	repo := &countingRepo{LedgerRepository: sqlite.NewLedgerRepository(sqlite.NewTestDB(t)), fail: errors.New("disk I/O error")}
	seq := ledger.NewQueryUseCase(repo, 2).QueryByProduct(context.Background(), companyID, "p1", repository.LedgerFilter{})

	_, err := ledger.Collect(seq, 0)
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestQueryByProduct_ContextoCancelado(t *testing.T) {
	repo := &countingRepo{LedgerRepository: sqlite.NewLedgerRepository(sqlite.NewTestDB(t))}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ledger.Collect(ledger.NewQueryUseCase(repo, 2).QueryByProduct(ctx, companyID, "p1", repository.LedgerFilter{}), 0)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, repo.pages)
}
