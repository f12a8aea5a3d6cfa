package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/invoice"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/stock"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/sqlite"
	apphttp "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

const testProductID = "prod-1"

type apiFixture struct {
	app      *fiber.App
	invoices *sqlite.InvoiceRepo
}

// newAPI arma la aplicación completa sobre SQLite con un producto y perfiles para cada rol.
func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	db := sqlite.NewTestDB(t)
	ctx := context.Background()

	products := sqlite.NewProductRepository(db)
	invRepo := sqlite.NewInventoryRepository(db)
	profiles := sqlite.NewProfileRepository(db)
	txRunner := sqlite.NewTxRunner(db)

	now := time.Now().UTC()
	require.NoError(t, products.Create(ctx, &entity.Product{
		ID: testProductID, CompanyID: testCompanyID, Code: "ONU-01", Name: "ONU", Unit: "pcs", CreatedAt: now, UpdatedAt: now,
	}))
	for userID, role := range map[string]string{"u-admin": entity.RoleAdmin, "u-staff": entity.RoleStaff, "u-tech": entity.RoleTechnician} {
		require.NoError(t, profiles.Upsert(ctx, &entity.Profile{UserID: userID, CompanyID: testCompanyID, Role: role, CreatedAt: now, UpdatedAt: now}))
	}

	svc := stock.NewService(txRunner, products, invRepo, entity.MustCategorySet(entity.DefaultCategories...), 5*time.Second, zerolog.Nop())
	query := ledger.NewQueryUseCase(sqlite.NewLedgerRepository(db), 0)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		StockService: svc,
		LedgerQuery:  query,
		Reconcile:    ledger.NewReconcileUseCase(txRunner, 0),
		ProductUC:    usecase.NewProductUseCase(products),
		InvoiceUC:    invoice.NewUpdateUseCase(txRunner, svc, entity.CategoryReadyToSell, zerolog.Nop()),
		Profiles:     profiles,
		JWTSecret:    testJWTSecret,
	})
	return &apiFixture{app: app, invoices: sqlite.NewInvoiceRepository(db)}
}

// bearer firma un token; el rol del claim puede diferir del rol del perfil.
func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, pkgjwt.Identity{UserID: userID, CompanyID: testCompanyID, Role: role}, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func call(t *testing.T, app *fiber.App, method, path, auth string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestStockAPI_RecibirDespacharYConsultar(t *testing.T) {
	f := newAPI(t)
	admin := bearer(t, "u-admin", entity.RoleAdmin)

	var mut dto.StockMutationResponse
	status := call(t, f.app, http.MethodPost, "/api/stock/receive", admin,
		dto.ReceiveStockRequest{ProductID: testProductID, Category: "siap_jual", Quantity: 100}, &mut)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "initial", mut.Entry.Type)
	assert.Equal(t, int64(100), mut.Balances["siap_jual"])

	status = call(t, f.app, http.MethodPost, "/api/stock/issue", admin,
		dto.IssueStockRequest{ProductID: testProductID, Category: "siap_jual", Quantity: 30}, &mut)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, int64(70), mut.Balances["siap_jual"])

	var errBody dto.ErrorResponse
	status = call(t, f.app, http.MethodPost, "/api/stock/issue", admin,
		dto.IssueStockRequest{ProductID: testProductID, Category: "siap_jual", Quantity: 999}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)

	tech := bearer(t, "u-tech", entity.RoleTechnician)
	var balances dto.ProductBalancesResponse
	status = call(t, f.app, http.MethodGet, "/api/stock/"+testProductID, tech, nil, &balances)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(70), balances.Total)
	assert.Len(t, balances.Balances, 4)

	var page dto.LedgerPageResponse
	status = call(t, f.app, http.MethodGet, "/api/stock/"+testProductID+"/ledger?type=out&limit=10", tech, nil, &page)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, page.Count)
	assert.Equal(t, "out", page.Entries[0].Type)

	var rec struct {
		Consistent bool `json:"consistent"`
	}
	status = call(t, f.app, http.MethodGet, "/api/stock/reconcile", admin, nil, &rec)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, rec.Consistent)
}

func TestStockAPI_Permisos(t *testing.T) {
	f := newAPI(t)
	tech := bearer(t, "u-tech", entity.RoleTechnician)
	staff := bearer(t, "u-staff", entity.RoleStaff)
	body := dto.ReceiveStockRequest{ProductID: testProductID, Category: "siap_jual", Quantity: 1}

	assert.Equal(t, http.StatusUnauthorized, call(t, f.app, http.MethodPost, "/api/stock/receive", "", body, nil))
	assert.Equal(t, http.StatusForbidden, call(t, f.app, http.MethodPost, "/api/stock/receive", tech, body, nil))
	assert.Equal(t, http.StatusForbidden, call(t, f.app, http.MethodGet, "/api/stock/reconcile", staff, nil, nil))
	assert.Equal(t, http.StatusCreated, call(t, f.app, http.MethodPost, "/api/stock/receive", staff, body, nil))
}

func TestStockAPI_ErroresDeValidacion(t *testing.T) {
	f := newAPI(t)
	admin := bearer(t, "u-admin", entity.RoleAdmin)

	var errBody dto.ErrorResponse
	status := call(t, f.app, http.MethodPost, "/api/stock/transfer", admin,
		dto.TransferStockRequest{ProductID: testProductID, FromCategory: "riset", ToCategory: "riset", Quantity: 1}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errBody.Code)

	status = call(t, f.app, http.MethodPost, "/api/stock/adjust", admin,
		dto.AdjustStockRequest{ProductID: testProductID, Category: "riset", Reason: "conteo"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)

	status = call(t, f.app, http.MethodPost, "/api/stock/receive", admin,
		dto.ReceiveStockRequest{ProductID: "no-existe", Category: "riset", Quantity: 1}, &errBody)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errBody.Code)

	status = call(t, f.app, http.MethodGet, "/api/stock/"+testProductID+"/ledger?from=ayer", admin, nil, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFunctions_AtomicStockTransfer(t *testing.T) {
	f := newAPI(t)
	admin := bearer(t, "u-admin", entity.RoleAdmin)
	require.Equal(t, http.StatusCreated, call(t, f.app, http.MethodPost, "/api/stock/receive", admin,
		dto.ReceiveStockRequest{ProductID: testProductID, Category: "siap_jual", Quantity: 70}, nil))
	body := dto.TransferStockRequest{ProductID: testProductID, FromCategory: "siap_jual", ToCategory: "riset", Quantity: 20}

	var msg dto.FunctionMessage
	status := call(t, f.app, http.MethodPost, "/functions/atomic-stock-transfer", bearer(t, "u-staff", entity.RoleStaff), body, &msg)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "traslado de 20 unidades de siap_jual a riset registrado", msg.Message)

	var fnErr dto.FunctionError
	body.Quantity = 999
	status = call(t, f.app, http.MethodPost, "/functions/atomic-stock-transfer", admin, body, &fnErr)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, fnErr.Error, "stock insuficiente")

	status = call(t, f.app, http.MethodPost, "/functions/atomic-stock-transfer", "", body, &fnErr)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotEmpty(t, fnErr.Error)
}

func TestFunctions_RolSaleDelPerfilNoDelToken(t *testing.T) {
	f := newAPI(t)
	body := dto.TransferStockRequest{ProductID: testProductID, FromCategory: "siap_jual", ToCategory: "riset", Quantity: 1}

	// el token dice admin pero el perfil es técnico
	var fnErr dto.FunctionError
	status := call(t, f.app, http.MethodPost, "/functions/atomic-stock-transfer", bearer(t, "u-tech", entity.RoleAdmin), body, &fnErr)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "rol sin permiso para esta operación", fnErr.Error)

	status = call(t, f.app, http.MethodPost, "/functions/atomic-stock-transfer", bearer(t, "sin-perfil", entity.RoleAdmin), body, &fnErr)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestFunctions_UpdateInvoiceAndDeductStock(t *testing.T) {
	f := newAPI(t)
	admin := bearer(t, "u-admin", entity.RoleAdmin)
	require.Equal(t, http.StatusCreated, call(t, f.app, http.MethodPost, "/api/stock/receive", admin,
		dto.ReceiveStockRequest{ProductID: testProductID, Category: "siap_jual", Quantity: 10}, nil))

	now := time.Now().UTC()
	require.NoError(t, f.invoices.Create(context.Background(), &entity.Invoice{
		ID: "inv-1", CompanyID: testCompanyID, Number: "FV-1",
		Status: entity.InvoiceStatusSent, PaymentStatus: entity.PaymentStatusUnpaid, Total: decimal.NewFromInt(2000),
		Items: []entity.InvoiceItem{{
			ID: "item-1", InvoiceID: "inv-1", ProductID: testProductID, Quantity: 2,
			UnitPrice: decimal.NewFromInt(1000), Subtotal: decimal.NewFromInt(2000),
		}},
		CreatedAt: now, UpdatedAt: now,
	}))

	status, paid := entity.InvoiceStatusCompleted, entity.PaymentStatusPaid
	var out dto.UpdateInvoiceResponse
	code := call(t, f.app, http.MethodPost, "/functions/update-invoice-and-deduct-stock", admin,
		dto.UpdateInvoiceRequest{InvoiceID: "inv-1", Status: &status, PaymentStatus: &paid}, &out)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, out.StockDeducted)
	assert.Equal(t, []dto.DeductedItem{{ProductID: testProductID, Quantity: 2}}, out.DeductedItems)

	var balances dto.ProductBalancesResponse
	require.Equal(t, http.StatusOK, call(t, f.app, http.MethodGet, "/api/stock/"+testProductID, admin, nil, &balances))
	assert.Equal(t, int64(8), balances.Total)

	var fnErr dto.FunctionError
	code = call(t, f.app, http.MethodPost, "/functions/update-invoice-and-deduct-stock", admin,
		dto.UpdateInvoiceRequest{InvoiceID: "no-existe", Status: &status}, &fnErr)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestProductsAPI_CrearDuplicadoYConsultar(t *testing.T) {
	f := newAPI(t)
	staff := bearer(t, "u-staff", entity.RoleStaff)
	tech := bearer(t, "u-tech", entity.RoleTechnician)
	body := dto.CreateProductRequest{Code: "CBL-10", Name: "Cable drop 10m", SalePrice: decimal.NewFromInt(15000)}

	var created dto.ProductResponse
	require.Equal(t, http.StatusCreated, call(t, f.app, http.MethodPost, "/api/products", staff, body, &created))
	assert.Equal(t, testCompanyID, created.CompanyID)

	var errBody dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, call(t, f.app, http.MethodPost, "/api/products", staff, body, &errBody))
	assert.Equal(t, "DUPLICATE", errBody.Code)
	assert.Equal(t, http.StatusForbidden, call(t, f.app, http.MethodPost, "/api/products", tech, body, nil))

	var got dto.ProductResponse
	require.Equal(t, http.StatusOK, call(t, f.app, http.MethodGet, "/api/products/"+created.ID, tech, nil, &got))
	assert.Equal(t, "CBL-10", got.Code)
	assert.Equal(t, http.StatusNotFound, call(t, f.app, http.MethodGet, "/api/products/no-existe", tech, nil, nil))

	var list dto.ProductListResponse
	require.Equal(t, http.StatusOK, call(t, f.app, http.MethodGet, "/api/products", tech, nil, &list))
	assert.Len(t, list.Items, 2)
}
