package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/sqlite"
)

const company = "company-1"

func TestInventoryRepo_ParSinRegistroDevuelveCero(t *testing.T) {
	db := sqlite.NewTestDB(t)
	repo := sqlite.NewInventoryRepository(db)

	qty, err := repo.GetQuantity(context.Background(), company, "p-1", entity.CategoryReadyToSell)
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)
}

func TestInventoryRepo_IncrementYDecrementCondicional(t *testing.T) {
	ctx := context.Background()
	db := sqlite.NewTestDB(t)
	repo := sqlite.NewInventoryRepository(db)

	qty, err := repo.Increment(ctx, company, "p-1", entity.CategoryReadyToSell, 10, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), qty)

	qty, err = repo.Increment(ctx, company, "p-1", entity.CategoryReadyToSell, 5, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), qty)

	qty, ok, err := repo.DecrementIfAvailable(ctx, company, "p-1", entity.CategoryReadyToSell, 15, "u-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(0), qty)

	_, ok, err = repo.DecrementIfAvailable(ctx, company, "p-1", entity.CategoryReadyToSell, 1, "u-1")
	require.NoError(t, err)
	assert.False(t, ok)

	qty, err = repo.GetQuantity(ctx, company, "p-1", entity.CategoryReadyToSell)
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)
}

func TestInventoryRepo_GetForUpdateCreaFila(t *testing.T) {
	ctx := context.Background()
	db := sqlite.NewTestDB(t)
	repo := sqlite.NewInventoryRepository(db)

	qty, err := repo.GetForUpdate(ctx, company, "p-1", entity.CategoryResearch)
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)

	records, err := repo.ListByProduct(ctx, company, "p-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entity.CategoryResearch, records[0].Category)
}

func TestInventoryRepo_SetQuantityAislaPorEmpresa(t *testing.T) {
	ctx := context.Background()
	db := sqlite.NewTestDB(t)
	repo := sqlite.NewInventoryRepository(db)

	require.NoError(t, repo.SetQuantity(ctx, company, "p-1", entity.CategoryReturns, 7, "u-1"))
	require.NoError(t, repo.SetQuantity(ctx, "company-2", "p-1", entity.CategoryReturns, 3, "u-2"))

	records, err := repo.ListByCompany(ctx, company)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(7), records[0].Quantity)
	assert.Equal(t, "u-1", records[0].UpdatedBy)
}

func TestLedgerRepo_PaginaPorKeyset(t *testing.T) {
	ctx := context.Background()
	db := sqlite.NewTestDB(t)
	repo := sqlite.NewLedgerRepository(db)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Append(ctx, &entity.LedgerEntry{
			ID:         string(rune('a' + i)),
			CompanyID:  company,
			ProductID:  "p-1",
			Type:       entity.EventIn,
			Quantity:   int64(i + 1),
			ToCategory: entity.CategoryReadyToSell,
			EventDate:  ts,
			CreatedAt:  ts,
		}))
	}

	first, err := repo.ListByProduct(ctx, company, "p-1", repository.LedgerFilter{}, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "e", first[0].ID)
	assert.Equal(t, "d", first[1].ID)

	last := first[len(first)-1]
	next, err := repo.ListByProduct(ctx, company, "p-1", repository.LedgerFilter{},
		&repository.LedgerCursor{CreatedAt: last.CreatedAt, ID: last.ID}, 10)
	require.NoError(t, err)
	require.Len(t, next, 3)
	assert.Equal(t, "c", next[0].ID)
	assert.Equal(t, "a", next[2].ID)
	assert.Empty(t, next[2].FromCategory)
}

func TestLedgerRepo_FiltraPorTipoYFecha(t *testing.T) {
	ctx := context.Background()
	db := sqlite.NewTestDB(t)
	repo := sqlite.NewLedgerRepository(db)

	day := func(d int) time.Time { return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC) }
	entries := []entity.LedgerEntry{
		{ID: "1", Type: entity.EventInitial, Quantity: 10, ToCategory: entity.CategoryReadyToSell, EventDate: day(1)},
		{ID: "2", Type: entity.EventOut, Quantity: 2, FromCategory: entity.CategoryReadyToSell, EventDate: day(2)},
		{ID: "3", Type: entity.EventTransfer, Quantity: 3, FromCategory: entity.CategoryReadyToSell, ToCategory: entity.CategoryResearch, EventDate: day(3)},
		{ID: "4", Type: entity.EventOut, Quantity: 1, FromCategory: entity.CategoryResearch, EventDate: day(4)},
	}
	for i := range entries {
		entries[i].CompanyID = company
		entries[i].ProductID = "p-1"
		entries[i].CreatedAt = entries[i].EventDate
		require.NoError(t, repo.Append(ctx, &entries[i]))
	}

	from, to := day(2), day(3)
	got, err := repo.ListByProduct(ctx, company, "p-1", repository.LedgerFilter{
		Types: []entity.EventType{entity.EventOut, entity.EventTransfer},
		From:  &from,
		To:    &to,
	}, nil, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
}

func TestLedgerRepo_EsAppendOnly(t *testing.T) {
	ctx := context.Background()
	db := sqlite.NewTestDB(t)
	repo := sqlite.NewLedgerRepository(db)

	now := time.Now().UTC()
	require.NoError(t, repo.Append(ctx, &entity.LedgerEntry{
		ID: "x", CompanyID: company, ProductID: "p-1", Type: entity.EventIn, Quantity: 1,
		ToCategory: entity.CategoryReadyToSell, EventDate: now, CreatedAt: now,
	}))

	_, err := db.ExecContext(ctx, `UPDATE stock_ledger SET quantity = 99 WHERE id = 'x'`)
	assert.Error(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM stock_ledger WHERE id = 'x'`)
	assert.Error(t, err)

	err = repo.Append(ctx, &entity.LedgerEntry{
		ID: "x", CompanyID: company, ProductID: "p-1", Type: entity.EventIn, Quantity: 1,
		ToCategory: entity.CategoryReadyToSell, EventDate: now, CreatedAt: now,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	seen, err := repo.HasProductEntries(ctx, company, "p-1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestInvoiceRepo_ClaimStockDeductionSoloUnaVez(t *testing.T) {
	ctx := context.Background()
	db := sqlite.NewTestDB(t)
	repo := sqlite.NewInvoiceRepository(db)

	now := time.Now().UTC()
	inv := &entity.Invoice{
		CompanyID:     company,
		Number:        "F-001",
		Status:        entity.InvoiceStatusDraft,
		PaymentStatus: entity.PaymentStatusUnpaid,
		Total:         decimal.NewFromInt(30),
		Items: []entity.InvoiceItem{
			{ProductID: "p-1", Quantity: 3, UnitPrice: decimal.NewFromInt(10), Subtotal: decimal.NewFromInt(30)},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, inv))

	ok, err := repo.ClaimStockDeduction(ctx, inv.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ClaimStockDeduction(ctx, inv.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, company, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.StockDeducted)
	require.NotNil(t, got.StockDeductedAt)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(30)))

	other, err := repo.GetByID(ctx, "company-2", inv.ID)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestInventoryRepo_LockProductExigeProductoDeLaEmpresa(t *testing.T) {
	ctx := context.Background()
	db := sqlite.NewTestDB(t)
	now := time.Now().UTC()
	require.NoError(t, sqlite.NewProductRepository(db).Create(ctx, &entity.Product{
		ID: "p-1", CompanyID: company, Code: "ONU-01", Name: "ONU", Unit: "pcs", CreatedAt: now, UpdatedAt: now,
	}))
	repo := sqlite.NewInventoryRepository(db)

	assert.NoError(t, repo.LockProduct(ctx, company, "p-1"))
	assert.ErrorIs(t, repo.LockProduct(ctx, "company-2", "p-1"), domain.ErrNotFound)
	assert.ErrorIs(t, repo.LockProduct(ctx, company, "p-x"), domain.ErrNotFound)
}
