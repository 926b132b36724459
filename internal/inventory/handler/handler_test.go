package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicstock/backend/internal/inventory/domain"
	"github.com/clinicstock/backend/internal/inventory/handler"
	"github.com/clinicstock/backend/internal/inventory/repository/memory"
	"github.com/clinicstock/backend/internal/inventory/service"
	"github.com/clinicstock/backend/pkg/actor"
	"github.com/clinicstock/backend/pkg/httputil"
	"github.com/clinicstock/backend/pkg/logger"
	"github.com/clinicstock/backend/pkg/testutil"
)

var now = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

// envelope mirrors httputil.Response with a typed payload.
type envelope[T any] struct {
	Success bool                `json:"success"`
	Data    T                   `json:"data"`
	Error   *httputil.ErrorBody `json:"error"`
	Meta    *httputil.Meta      `json:"meta"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logger.Nop()
	store := memory.New()
	clock := service.WithClock(func() time.Time { return now })

	ledger := service.NewLedger(store, log, clock)
	svc := handler.Services{
		Catalog:   service.NewCatalog(store, log, clock),
		Ledger:    ledger,
		Analytics: service.NewAnalytics(store, log, clock),
		Alerts:    service.NewAlertGenerator(store, log, clock),
		Orders:    service.NewPurchaseOrderManager(store, ledger, log, clock),
	}

	r := chi.NewRouter()
	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, httputil.WithActor(r, &actor.Actor{ID: uuid.NewString(), Username: "pharm.lee", Role: "pharmacist"}))
			})
		})
		handler.Register(r, svc, log)
	})
	return r
}

func call(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.ExecuteRequest(h, testutil.NewHTTPRequest(method, "/api/v1/inventory"+path, body))
}

func parse[T any](t *testing.T, rr *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	testutil.ParseJSONBody(t, rr, &env)
	return env
}

func createProduct(t *testing.T, h http.Handler, sku string, reorderLevel int) domain.Product {
	t.Helper()
	rr := call(t, h, http.MethodPost, "/products", map[string]interface{}{
		"sku":           sku,
		"name":          "Product " + sku,
		"category":      "consumables",
		"unit_price":    "2.50",
		"cost_price":    "1.25",
		"reorder_level": reorderLevel,
	})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return parse[domain.Product](t, rr).Data
}

func receive(t *testing.T, h http.Handler, productID uuid.UUID, number string, qty int, expiry string) domain.Batch {
	t.Helper()
	rr := call(t, h, http.MethodPost, "/batches", map[string]interface{}{
		"product_id":    productID,
		"batch_number":  number,
		"quantity":      qty,
		"expiry_date":   expiry,
		"cost_per_unit": "1.25",
	})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return parse[domain.Batch](t, rr).Data
}

func TestStockLifecycle(t *testing.T) {
	h := newRouter(t)
	product := createProduct(t, h, "GLV-M", 10)
	batch := receive(t, h, product.ID, "LOT-1", 25, "2026-01-31")

	assert.Equal(t, domain.BatchActive, batch.Status)
	assert.Equal(t, 25, batch.QuantityRemaining)

	rr := call(t, h, http.MethodPost, "/batches/"+batch.ID.String()+"/consume", map[string]interface{}{"quantity": 20, "note": "ward 3"})
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, 5, parse[domain.Batch](t, rr).Data.QuantityRemaining)

	rr = call(t, h, http.MethodGet, "/products/"+product.ID.String()+"/stock", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, 5, parse[handler.StockResponse](t, rr).Data.TotalStock)

	rr = call(t, h, http.MethodGet, "/movements?batch_id="+batch.ID.String(), nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	movements := parse[[]domain.Movement](t, rr)
	require.Len(t, movements.Data, 2)
	assert.Equal(t, int64(2), movements.Meta.Total)
	assert.Equal(t, domain.MovementConsumption, movements.Data[0].Type)
	assert.Equal(t, -20, movements.Data[0].Delta)
	assert.Equal(t, "pharm.lee", movements.Data[0].Actor)

	rr = call(t, h, http.MethodGet, "/analytics/low-stock", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	low := parse[[]service.StockLevel](t, rr).Data
	require.Len(t, low, 1)
	assert.Equal(t, product.ID, low[0].Product.ID)

	rr = call(t, h, http.MethodGet, "/analytics/valuation", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "6.25", parse[handler.ValuationResponse](t, rr).Data.TotalValue.String())
}

func TestBatchErrors(t *testing.T) {
	h := newRouter(t)
	product := createProduct(t, h, "SYR-5", 0)
	batch := receive(t, h, product.ID, "LOT-9", 4, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"malformed id", http.MethodGet, "/batches/not-a-uuid", nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown batch", http.MethodGet, "/batches/" + uuid.NewString(), nil, http.StatusNotFound, "NOT_FOUND"},
		{"consume too much", http.MethodPost, "/batches/" + batch.ID.String() + "/consume", map[string]int{"quantity": 5}, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"consume nothing", http.MethodPost, "/batches/" + batch.ID.String() + "/consume", map[string]int{"quantity": 0}, http.StatusUnprocessableEntity, "INVALID_QUANTITY"},
		{"write off unexpired", http.MethodPost, "/batches/" + batch.ID.String() + "/write-off", nil, http.StatusConflict, "INVALID_STATUS_TRANSITION"},
		{"receive for unknown product", http.MethodPost, "/batches", map[string]interface{}{
			"product_id": uuid.NewString(), "batch_number": "X", "quantity": 1,
		}, http.StatusNotFound, "UNKNOWN_PRODUCT"},
		{"receive bad expiry", http.MethodPost, "/batches", map[string]interface{}{
			"product_id": product.ID, "batch_number": "X", "quantity": 1, "expiry_date": "31/01/2026",
		}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"receive duplicate lot", http.MethodPost, "/batches", map[string]interface{}{
			"product_id": product.ID, "batch_number": "LOT-9", "quantity": 1,
		}, http.StatusConflict, "DUPLICATE_BATCH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := call(t, h, tt.method, tt.path, tt.body)
			testutil.AssertStatus(t, rr, tt.status)
			env := parse[json.RawMessage](t, rr)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}

	rr := call(t, h, http.MethodGet, "/batches/"+batch.ID.String(), nil)
	assert.Equal(t, 4, parse[domain.Batch](t, rr).Data.QuantityRemaining)
}

func TestRecallAndAdjust(t *testing.T) {
	h := newRouter(t)
	product := createProduct(t, h, "BND-1", 0)
	batch := receive(t, h, product.ID, "LOT-3", 10, "2026-05-01")

	rr := call(t, h, http.MethodPost, "/batches/"+batch.ID.String()+"/adjust", map[string]interface{}{"quantity": -3, "note": "count"})
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, 7, parse[domain.Batch](t, rr).Data.QuantityRemaining)

	rr = call(t, h, http.MethodPost, "/batches/"+batch.ID.String()+"/recall", map[string]string{"note": "manufacturer notice"})
	testutil.AssertStatus(t, rr, http.StatusOK)
	recalled := parse[domain.Batch](t, rr).Data
	assert.Equal(t, domain.BatchRecalled, recalled.Status)
	assert.Contains(t, recalled.Notes, "manufacturer notice")

	rr = call(t, h, http.MethodPost, "/batches/"+batch.ID.String()+"/consume", map[string]int{"quantity": 1})
	testutil.AssertStatus(t, rr, http.StatusConflict)
	assert.Equal(t, "INACTIVE_BATCH", parse[json.RawMessage](t, rr).Error.Code)
}

func TestProductEndpoints(t *testing.T) {
	h := newRouter(t)
	product := createProduct(t, h, "GAU-10", 5)
	receive(t, h, product.ID, "LATE", 6, "2025-12-01")
	receive(t, h, product.ID, "EARLY", 6, "2025-04-01")

	rr := call(t, h, http.MethodGet, "/products/"+product.ID.String()+"/batches", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	batches := parse[[]domain.Batch](t, rr).Data
	require.Len(t, batches, 2)
	assert.Equal(t, "EARLY", batches[0].BatchNumber)

	rr = call(t, h, http.MethodGet, "/products/"+product.ID.String()+"/reorder-suggestion?months=2", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	suggestion := parse[handler.ReorderResponse](t, rr).Data
	assert.Equal(t, 2, suggestion.Months)
	assert.Positive(t, suggestion.SuggestedQuantity)

	rr = call(t, h, http.MethodGet, "/products/"+product.ID.String()+"/reorder-suggestion?months=0", nil)
	testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)

	rr = call(t, h, http.MethodPatch, "/products/"+product.ID.String()+"/pricing", map[string]interface{}{
		"unit_price":    "3.10",
		"reorder_level": 20,
	})
	testutil.AssertStatus(t, rr, http.StatusOK)
	updated := parse[domain.Product](t, rr).Data
	assert.Equal(t, "3.1", updated.UnitPrice.String())
	assert.Equal(t, 20, updated.ReorderLevel)
	assert.Equal(t, "1.25", updated.CostPrice.String())

	rr = call(t, h, http.MethodPost, "/products", map[string]interface{}{"sku": "GAU-10", "name": "Again"})
	testutil.AssertStatus(t, rr, http.StatusConflict)

	rr = call(t, h, http.MethodPost, "/products", map[string]interface{}{"name": "No SKU"})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_ERROR", parse[json.RawMessage](t, rr).Error.Code)

	rr = call(t, h, http.MethodGet, "/products", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, int64(1), parse[[]domain.Product](t, rr).Meta.Total)
}

func TestPurchaseOrderFlow(t *testing.T) {
	h := newRouter(t)

	rr := call(t, h, http.MethodPost, "/suppliers", map[string]interface{}{
		"name":           "MedSupply GmbH",
		"email":          "orders@medsupply.example",
		"lead_time_days": 5,
	})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	supplier := parse[domain.Supplier](t, rr).Data

	product := createProduct(t, h, "CAN-22G", 0)

	rr = call(t, h, http.MethodPost, "/purchase-orders", map[string]interface{}{
		"supplier_id": supplier.ID,
		"priority":    "high",
		"items": []map[string]interface{}{
			{"product_id": product.ID, "quantity": 10, "unit_price": "0.80"},
		},
	})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	order := parse[domain.PurchaseOrder](t, rr).Data
	assert.Equal(t, domain.POPending, order.Status)
	assert.Equal(t, "8", order.TotalAmount.String())
	assert.Equal(t, "pharm.lee", order.CreatedBy)
	require.Len(t, order.Items, 1)

	base := "/purchase-orders/" + order.ID.String()
	receipt := map[string]interface{}{
		"item_id":      order.Items[0].ID,
		"quantity":     10,
		"batch_number": "CAN-2503",
		"expiry_date":  "2027-03-01",
	}

	rr = call(t, h, http.MethodPost, base+"/receipts", receipt)
	testutil.AssertStatus(t, rr, http.StatusConflict)

	for _, step := range []string{"/approve", "/order"} {
		rr = call(t, h, http.MethodPost, base+step, nil)
		testutil.AssertStatus(t, rr, http.StatusOK)
	}

	rr = call(t, h, http.MethodPost, base+"/receipts", receipt)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	recorded := parse[service.Receipt](t, rr).Data
	assert.Equal(t, domain.POReceived, recorded.Order.Status)
	assert.Equal(t, 10, recorded.Batch.QuantityRemaining)
	assert.Equal(t, "0.8", recorded.Batch.CostPerUnit.String())

	rr = call(t, h, http.MethodPost, base+"/cancel", nil)
	testutil.AssertStatus(t, rr, http.StatusConflict)

	rr = call(t, h, http.MethodGet, "/purchase-orders?status=received", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Len(t, parse[[]domain.PurchaseOrder](t, rr).Data, 1)

	rr = call(t, h, http.MethodPost, "/purchase-orders", map[string]interface{}{
		"supplier_id": supplier.ID,
		"priority":    "whenever",
		"items":       []map[string]interface{}{{"product_id": product.ID, "quantity": 1}},
	})
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestAlertEndpoints(t *testing.T) {
	h := newRouter(t)
	product := createProduct(t, h, "IV-500", 10)
	receive(t, h, product.ID, "IV-1", 4, "2025-03-14")

	rr := call(t, h, http.MethodPost, "/alerts/scan", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, 2, parse[handler.ScanResponse](t, rr).Data.Raised)

	rr = call(t, h, http.MethodPost, "/alerts/scan", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, 0, parse[handler.ScanResponse](t, rr).Data.Raised)

	rr = call(t, h, http.MethodGet, "/alerts?resolved=false", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	alerts := parse[[]domain.Alert](t, rr).Data
	require.Len(t, alerts, 2)
	assert.Equal(t, domain.SeverityCritical, alerts[0].Severity)

	rr = call(t, h, http.MethodPut, "/alerts/"+alerts[0].ID.String()+"/resolve", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	resolved := parse[domain.Alert](t, rr).Data
	assert.True(t, resolved.Resolved)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, "pharm.lee", *resolved.ResolvedBy)

	rr = call(t, h, http.MethodGet, "/alerts?resolved=maybe", nil)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = call(t, h, http.MethodGet, "/analytics/dashboard?days=30", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	summary := parse[service.Summary](t, rr).Data
	assert.Equal(t, 1, summary.ExpiringCount)
	assert.Equal(t, 1, summary.OpenAlertCount)
	assert.Equal(t, 1, summary.LowStockCount)
}
