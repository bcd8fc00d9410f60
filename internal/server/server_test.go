package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/auth"
	clientrepo "github.com/smallbiznis/invoicely/internal/client/repository"
	clientsvc "github.com/smallbiznis/invoicely/internal/client/service"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/dbtest"
	estimaterepo "github.com/smallbiznis/invoicely/internal/estimate/repository"
	estimatesvc "github.com/smallbiznis/invoicely/internal/estimate/service"
	invoicerepo "github.com/smallbiznis/invoicely/internal/invoice/repository"
	invoicesvc "github.com/smallbiznis/invoicely/internal/invoice/service"
	"github.com/smallbiznis/invoicely/internal/observability"
	paymentrepo "github.com/smallbiznis/invoicely/internal/payment/repository"
	paymentsvc "github.com/smallbiznis/invoicely/internal/payment/service"
	productrepo "github.com/smallbiznis/invoicely/internal/product/repository"
	productsvc "github.com/smallbiznis/invoicely/internal/product/service"
	"github.com/smallbiznis/invoicely/internal/providers/email"
	"github.com/smallbiznis/invoicely/internal/providers/pdf"
	recurringrepo "github.com/smallbiznis/invoicely/internal/recurring/repository"
	recurringsvc "github.com/smallbiznis/invoicely/internal/recurring/service"
	reportsvc "github.com/smallbiznis/invoicely/internal/report/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	userA int64 = 11
	userB int64 = 22
)

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	issuer *auth.Issuer
	// foreignClient belongs to userB.
	foreignClient snowflake.ID
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	node := dbtest.Node(t)
	clk := clock.NewFakeClock(time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	cfg := config.Config{AuthJWTSecret: "server-test-secret", PDFFontPath: "/nonexistent/font.ttf"}

	authParams := auth.Params{Config: cfg, Clock: clk}
	resolver, err := auth.NewResolver(authParams)
	require.NoError(t, err)
	issuer, err := auth.NewIssuer(authParams)
	require.NoError(t, err)

	clients := clientsvc.New(clientsvc.Params{DB: db, Log: log, Repo: clientrepo.Provide()})
	products := productsvc.New(productsvc.Params{DB: db, Log: log, Repo: productrepo.Provide()})
	invoices := invoicesvc.New(invoicesvc.Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Repo:    invoicerepo.Provide(),
		Clock:   clk,
		Email:   email.NewLogProvider(log),
		Clients: clientrepo.Provide(),
	})
	payments := paymentsvc.New(paymentsvc.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Repo:     paymentrepo.Provide(),
		Invoices: invoicerepo.Provide(),
		Clock:    clk,
	})
	estimates := estimatesvc.New(estimatesvc.Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Repo:       estimaterepo.Provide(),
		Clock:      clk,
		InvoiceSvc: invoices,
		Clients:    clientrepo.Provide(),
	})
	recurring := recurringsvc.New(recurringsvc.Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Repo:    recurringrepo.Provide(),
		Clock:   clk,
		Clients: clientrepo.Provide(),
	})
	reports := reportsvc.New(reportsvc.Params{
		DB:       db,
		Log:      log,
		Clock:    clk,
		Clients:  clients,
		Products: products,
	})

	engine := NewEngine(observability.Config{Environment: "test", LogLevel: "info"}, nil)
	NewServer(ServerParams{
		Gin:          engine,
		Cfg:          cfg,
		Log:          log,
		Resolver:     resolver,
		Clock:        clk,
		InvoiceSvc:   invoices,
		PaymentSvc:   payments,
		EstimateSvc:  estimates,
		RecurringSvc: recurring,
		ReportSvc:    reports,
		Renderer:     pdf.NewRenderer(pdf.Params{Config: cfg, Log: log}),
	})

	dbtest.Client(t, db, node, userA, "Acme Co", "billing@acme.example", "active")
	dbtest.Client(t, db, node, userA, "Smith, Jones", "sj@example.com", "active")
	foreign := dbtest.Client(t, db, node, userB, "Other Tenant", "other@example.com", "active")

	return testServer{engine: engine, db: db, issuer: issuer, foreignClient: foreign}
}

func (ts testServer) do(t *testing.T, userID int64, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		token, err := ts.issuer.Issue(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *errorPayload   `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func assertEmptyList(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	var items []json.RawMessage
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &items))
	assert.Empty(t, items)
}

func invoiceBody() map[string]any {
	return map[string]any{
		"status": "sent",
		"items": []map[string]any{
			{"description": "Consulting", "quantity": "2", "price": "10.00"},
			{"description": "Hosting", "quantity": "1", "price": "10.00", "amount": "10.00"},
		},
	}
}

func createInvoice(t *testing.T, ts testServer, userID int64) string {
	t.Helper()
	rec := ts.do(t, userID, http.MethodPost, "/api/invoices", invoiceBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID            string `json:"id"`
		InvoiceNumber string `json:"invoice_number"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestHealthIsPublic(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, 0, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresBearerToken(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/invoices", "/api/estimates", "/api/recurring", "/api/reports/dashboard-stats"} {
		rec := ts.do(t, 0, http.MethodGet, path, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
		env := decode(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, "unauthorized", env.Error.Type)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInvoiceCreateComputesTotals(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, userA, http.MethodPost, "/api/invoices", invoiceBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		InvoiceNumber string `json:"invoice_number"`
		Total         string `json:"total"`
		Items         []struct {
			Amount string `json:"amount"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, "INV-1000", created.InvoiceNumber)
	assert.True(t, decimal.RequireFromString(created.Total).Equal(decimal.NewFromInt(30)), created.Total)
	require.Len(t, created.Items, 2)
	assert.True(t, decimal.RequireFromString(created.Items[0].Amount).Equal(decimal.NewFromInt(20)))
}

func TestInvoiceIsolationAcrossCallers(t *testing.T) {
	ts := newTestServer(t)
	id := createInvoice(t, ts, userA)

	rec := ts.do(t, userB, http.MethodGet, "/api/invoices/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec).Error.Type)

	rec = ts.do(t, userB, http.MethodPut, "/api/invoices/"+id, invoiceBody())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, userB, http.MethodDelete, "/api/invoices/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, userB, http.MethodGet, "/api/invoices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assertEmptyList(t, rec)

	rec = ts.do(t, userA, http.MethodGet, "/api/invoices/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInvoiceValidationEnvelope(t *testing.T) {
	ts := newTestServer(t)

	body := invoiceBody()
	body["items"] = []map[string]any{
		{"description": "Consulting", "quantity": "2", "price": "10.00", "amount": "25.00"},
	}
	rec := ts.do(t, userA, http.MethodPost, "/api/invoices", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Type)
	require.Len(t, env.Error.Errors, 1)
	assert.Equal(t, "amount_mismatch", env.Error.Errors[0].Code)
	assert.Equal(t, "items", env.Error.Errors[0].Field)

	body = invoiceBody()
	body["due_date"] = "June 1st"
	rec = ts.do(t, userA, http.MethodPost, "/api/invoices", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_due_date", decode(t, rec).Error.Errors[0].Code)

	rec = ts.do(t, userA, http.MethodGet, "/api/invoices/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_id", decode(t, rec).Error.Errors[0].Code)

	req := httptest.NewRequest(http.MethodPost, "/api/invoices", strings.NewReader("{"))
	token, err := ts.issuer.Issue(userA)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	out := httptest.NewRecorder()
	ts.engine.ServeHTTP(out, req)
	require.Equal(t, http.StatusBadRequest, out.Code)
	assert.Equal(t, "invalid_request", decode(t, out).Error.Errors[0].Code)
}

func TestInvoicePDFDownload(t *testing.T) {
	ts := newTestServer(t)
	id := createInvoice(t, ts, userA)

	rec := ts.do(t, userA, http.MethodGet, "/api/invoices/"+id+"/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, pdf.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoice_INV-1000.pdf"`, rec.Header().Get("Content-Disposition"))

	body := rec.Body.String()
	assert.Contains(t, body, "INVOICE #INV-1000")
	assert.Contains(t, body, "Date: 2024-06-03")
	assert.Contains(t, body, "TOTAL: $30.00")

	rec = ts.do(t, userB, http.MethodGet, "/api/invoices/"+id+"/pdf", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendInvoiceMarksSent(t *testing.T) {
	ts := newTestServer(t)

	body := invoiceBody()
	body["status"] = "draft"
	rec := ts.do(t, userA, http.MethodPost, "/api/invoices", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))

	rec = ts.do(t, userA, http.MethodPost, "/api/invoices/"+created.ID+"/send", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Invoice struct {
			Status string `json:"status"`
		} `json:"invoice"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &result))
	assert.Equal(t, "sent", result.Invoice.Status)
}

func TestEstimateConvertOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, userA, http.MethodPost, "/api/estimates", map[string]any{"total": "120.50"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID             string `json:"id"`
		EstimateNumber string `json:"estimate_number"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, "EST-1000", created.EstimateNumber)

	rec = ts.do(t, userB, http.MethodPost, "/api/estimates/"+created.ID+"/convert", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, userA, http.MethodPost, "/api/estimates/"+created.ID+"/convert", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var converted struct {
		InvoiceNumber string `json:"invoice_number"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &converted))
	assert.Equal(t, "INV-1000", converted.InvoiceNumber)

	rec = ts.do(t, userA, http.MethodPost, "/api/estimates/"+created.ID+"/convert", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "already_converted", decode(t, rec).Error.Errors[0].Code)
}

func TestRecurringCreateAndValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, userA, http.MethodPost, "/api/recurring", map[string]any{
		"interval":       "week",
		"interval_count": 2,
		"start_date":     "2024-06-10",
		"total":          "99.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		NextRun string `json:"next_run"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, "2024-06-10", created.NextRun)
	assert.Equal(t, "active", created.Status)

	rec = ts.do(t, userA, http.MethodPost, "/api/recurring", map[string]any{
		"interval":   "fortnight",
		"start_date": "2024-06-10",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "invalid_interval", env.Error.Errors[0].Code)
	assert.Equal(t, "interval", env.Error.Errors[0].Field)

	rec = ts.do(t, userB, http.MethodGet, "/api/recurring", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assertEmptyList(t, rec)
}

func TestExportCSV(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, userA, http.MethodGet, "/api/reports/export?type=clients", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Equal(t, `attachment; filename="clients_export.csv"`, rec.Header().Get("Content-Disposition"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "Name,Email,Phone\r\n"), body)
	assert.Contains(t, body, `"Smith, Jones",sj@example.com,`)
	assert.NotContains(t, body, "Other Tenant")
}

func TestExportJSONAndUnknownKind(t *testing.T) {
	ts := newTestServer(t)
	createInvoice(t, ts, userA)

	rec := ts.do(t, userA, http.MethodGet, "/api/reports/export?type=invoices&format=json", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var records []map[string]string
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "INV-1000", records[0]["invoice_number"])
	assert.Equal(t, "30.00", records[0]["total"])

	rec = ts.do(t, userA, http.MethodGet, "/api/reports/export?type=payments", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "unknown_export_kind", env.Error.Errors[0].Code)
	assert.Equal(t, "type", env.Error.Errors[0].Field)

	rec = ts.do(t, userA, http.MethodGet, "/api/reports/export?format=xml", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_export_format", decode(t, rec).Error.Errors[0].Code)
}

func TestRevenueRejectsBadRange(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, userA, http.MethodGet, "/api/reports/revenue?range=forever", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_range", decode(t, rec).Error.Errors[0].Code)

	rec = ts.do(t, userA, http.MethodGet, "/api/reports/revenue?range=30days&order=asc", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, 0, http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec).Error.Type)
}

func TestPaymentLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	id := createInvoice(t, ts, userA)
	paymentsPath := "/api/invoices/" + id + "/payments"

	rec := ts.do(t, userA, http.MethodPost, paymentsPath, map[string]any{
		"amount":           "12.50",
		"payment_date":     "2024-06-02",
		"payment_method":   "card",
		"reference_number": "ch_123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var recorded struct {
		Payment struct {
			ID              string `json:"id"`
			PaymentDate     string `json:"payment_date"`
			ReferenceNumber string `json:"reference_number"`
		} `json:"payment"`
		Invoice struct {
			Status     string `json:"status"`
			PaidAmount string `json:"paid_amount"`
		} `json:"invoice"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &recorded))
	assert.Equal(t, "2024-06-02", recorded.Payment.PaymentDate)
	assert.Equal(t, "ch_123", recorded.Payment.ReferenceNumber)
	assert.Equal(t, "partially_paid", recorded.Invoice.Status)
	assert.True(t, decimal.RequireFromString(recorded.Invoice.PaidAmount).Equal(decimal.RequireFromString("12.5")))

	rec = ts.do(t, userA, http.MethodPost, paymentsPath, map[string]any{"amount": "20.00"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	env := decode(t, rec)
	assert.Equal(t, "overpayment", env.Error.Errors[0].Code)
	assert.Equal(t, "amount", env.Error.Errors[0].Field)

	rec = ts.do(t, userA, http.MethodPost, paymentsPath, map[string]any{"amount": "1", "payment_date": "soon"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_payment_date", decode(t, rec).Error.Errors[0].Code)

	rec = ts.do(t, userB, http.MethodGet, paymentsPath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, userA, http.MethodGet, paymentsPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, recorded.Payment.ID, listed[0].ID)

	rec = ts.do(t, userA, http.MethodDelete, paymentsPath+"/"+recorded.Payment.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var deleted struct {
		Deleted bool `json:"deleted"`
		Invoice struct {
			Status string `json:"status"`
		} `json:"invoice"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &deleted))
	assert.True(t, deleted.Deleted)
	assert.Equal(t, "sent", deleted.Invoice.Status)

	rec = ts.do(t, userA, http.MethodDelete, paymentsPath+"/"+recorded.Payment.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForeignClientIsRejected(t *testing.T) {
	ts := newTestServer(t)
	foreign := ts.foreignClient.String()

	body := invoiceBody()
	body["client_id"] = foreign
	rec := ts.do(t, userA, http.MethodPost, "/api/invoices", body)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	env := decode(t, rec)
	assert.Equal(t, "invalid_client_id", env.Error.Errors[0].Code)
	assert.Equal(t, "client_id", env.Error.Errors[0].Field)

	rec = ts.do(t, userA, http.MethodPost, "/api/estimates", map[string]any{"client_id": foreign, "total": "5.00"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "invalid_client_id", decode(t, rec).Error.Errors[0].Code)

	rec = ts.do(t, userA, http.MethodPost, "/api/recurring", map[string]any{
		"client_id":  foreign,
		"interval":   "month",
		"start_date": "2024-06-10",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "invalid_client_id", decode(t, rec).Error.Errors[0].Code)
}

func TestRecurringItemsOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, userA, http.MethodPost, "/api/recurring", map[string]any{
		"interval":   "month",
		"start_date": "2024-06-10",
		"items": []map[string]any{
			{"description": "Retainer", "quantity": "1", "price": "250.00"},
			{"description": "Support", "quantity": "0.5", "price": "100.00"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID    string `json:"id"`
		Total string `json:"total"`
		Items []struct {
			Description string `json:"description"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.True(t, decimal.RequireFromString(created.Total).Equal(decimal.NewFromInt(300)), created.Total)
	require.Len(t, created.Items, 2)
	assert.Equal(t, "Retainer", created.Items[0].Description)

	rec = ts.do(t, userA, http.MethodGet, "/api/recurring/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var fetched struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &fetched))
	assert.Len(t, fetched.Items, 2)
}
