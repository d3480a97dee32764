//go:build integration

package e2e

// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Scenarios:
//   - Insured check-in: tier pricing, invoice with split consultation charge
//   - Review-tier pricing on a return visit
//   - Charge accumulation, partial + settling payments
//   - Overpayment and settled-invoice conflicts surfaced over HTTP
//   - Refund marks the invoice terminal
//   - Dispense decrements stock and bills the invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinicdesk/internal/config"
	"clinicdesk/internal/infra"
	"clinicdesk/internal/router"
	"clinicdesk/internal/worker"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

type invoiceBody struct {
	ID             string          `json:"id"`
	InvoiceNumber  string          `json:"invoice_number"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	Balance        decimal.Decimal `json:"balance"`
	RefundedAmount *decimal.Decimal `json:"refunded_amount"`
	Status         string          `json:"status"`
	Charges        []struct {
		Description   string          `json:"description"`
		Amount        decimal.Decimal `json:"amount"`
		CoveredAmount decimal.Decimal `json:"covered_amount"`
		PatientAmount decimal.Decimal `json:"patient_amount"`
		Sequence      int             `json:"sequence"`
	} `json:"charges"`
	Payments []struct {
		ReceiptNumber string          `json:"receipt_number"`
		Amount        decimal.Decimal `json:"amount"`
		Method        string          `json:"method"`
	} `json:"payments"`
}

type visitBody struct {
	ID              string          `json:"id"`
	Tier            string          `json:"tier"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	InsuranceUsed   decimal.Decimal `json:"insurance_used"`
	PatientTopup    decimal.Decimal `json:"patient_topup"`
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server   *httptest.Server
	token    string // admin JWT
	branchID string
	db       *gorm.DB
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("clinicdesk_test"),
		tcPostgres.WithUsername("clinicdesk"),
		tcPostgres.WithPassword("clinicdesk"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		PDFStoragePath:     t.TempDir(),
		ClinicName:         "ClinicDesk E2E",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	require.NoError(t, infra.RunMigrations(db))

	// Seed the admin user directly — everything else goes through the API.
	hash, err := bcrypt.GenerateFromPassword([]byte("clinicdesk2026"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
		INSERT INTO users (username, full_name, password_hash, role, active)
		VALUES ('admin@e2e.test', 'Admin E2E', ?, 'admin', true)
	`, string(hash)).Error)

	dispatcher := worker.NewDispatcher(rdb)
	r := router.New(cfg, db, rdb, dispatcher)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin@e2e.test", "password": "clinicdesk2026"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	env := &testEnv{server: srv, token: loginBody.AccessToken, db: db}

	// Global fee schedule + one branch
	feeResp := do(t, srv, "PUT", "/v1/fees/settings/global",
		jsonBody(t, map[string]any{
			"initial_fee":        "100",
			"review_fee":         "60",
			"subsequent_fee":     "80",
			"review_period_days": 14,
		}), env.token)
	require.Equal(t, http.StatusOK, feeResp.StatusCode)

	branchResp := do(t, srv, "POST", "/v1/branches",
		jsonBody(t, map[string]any{"code": "HQ", "name": "Main Clinic"}), env.token)
	require.Equal(t, http.StatusCreated, branchResp.StatusCode)
	var branch struct {
		ID string `json:"id"`
	}
	decodeJSON(t, branchResp, &branch)
	env.branchID = branch.ID

	return env
}

func (env *testEnv) registerPatient(t *testing.T, insurer *string) string {
	t.Helper()
	body := map[string]any{
		"first_name": "Ama",
		"last_name":  "Mensah",
		"branch_id":  env.branchID,
	}
	if insurer != nil {
		body["insurer"] = *insurer
	}
	resp := do(t, env.server, "POST", "/v1/patients", jsonBody(t, body), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var patient struct {
		ID         string `json:"id"`
		FileNumber string `json:"file_number"`
	}
	decodeJSON(t, resp, &patient)
	require.NotEmpty(t, patient.FileNumber)
	return patient.ID
}

func (env *testEnv) checkIn(t *testing.T, patientID, date string, insuranceLimit *string) visitBody {
	t.Helper()
	body := map[string]any{
		"patient_id":        patientID,
		"branch_id":         env.branchID,
		"visit_date":        date,
		"consultation_type": "general",
	}
	if insuranceLimit != nil {
		body["insurance_limit"] = *insuranceLimit
	}
	resp := do(t, env.server, "POST", "/v1/visits", jsonBody(t, body), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var visit visitBody
	decodeJSON(t, resp, &visit)
	return visit
}

func (env *testEnv) getInvoice(t *testing.T, visitID string) invoiceBody {
	t.Helper()
	resp := do(t, env.server, "GET", "/v1/visits/"+visitID+"/invoice", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var inv invoiceBody
	decodeJSON(t, resp, &inv)
	return inv
}

func strPtr(s string) *string { return &s }

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_InsuredCheckIn(t *testing.T) {
	env := setupTestEnv(t)
	patientID := env.registerPatient(t, strPtr("NHIS"))

	visit := env.checkIn(t, patientID, "2026-03-02", strPtr("70"))
	assert.Equal(t, "initial", visit.Tier)
	assert.True(t, visit.ConsultationFee.Equal(decimal.RequireFromString("100")))
	assert.True(t, visit.InsuranceUsed.Equal(decimal.RequireFromString("70")))
	assert.True(t, visit.PatientTopup.Equal(decimal.RequireFromString("30")))

	inv := env.getInvoice(t, visit.ID)
	assert.Equal(t, "PENDING", inv.Status)
	assert.Equal(t, "INV-000001", inv.InvoiceNumber)
	require.Len(t, inv.Charges, 1)
	assert.True(t, inv.Charges[0].CoveredAmount.Equal(decimal.RequireFromString("70")))
	assert.True(t, inv.Charges[0].PatientAmount.Equal(decimal.RequireFromString("30")))
	assert.True(t, inv.Balance.Equal(decimal.RequireFromString("100")))
}

func TestE2E_ReviewTierPricing(t *testing.T) {
	env := setupTestEnv(t)
	patientID := env.registerPatient(t, nil)

	first := env.checkIn(t, patientID, "2026-03-02", nil)
	assert.Equal(t, "initial", first.Tier)

	second := env.checkIn(t, patientID, "2026-03-10", nil)
	assert.Equal(t, "review", second.Tier)
	assert.True(t, second.ConsultationFee.Equal(decimal.RequireFromString("60")))

	third := env.checkIn(t, patientID, "2026-05-01", nil)
	assert.Equal(t, "subsequent", third.Tier)
	assert.True(t, third.ConsultationFee.Equal(decimal.RequireFromString("80")))
}

func TestE2E_PaymentLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	patientID := env.registerPatient(t, nil)
	visit := env.checkIn(t, patientID, "2026-03-02", nil)
	inv := env.getInvoice(t, visit.ID)

	// Partial payment
	payResp := do(t, env.server, "POST", "/v1/invoices/"+inv.ID+"/payments",
		jsonBody(t, map[string]any{"amount": "40", "method": "cash"}), env.token)
	require.Equal(t, http.StatusOK, payResp.StatusCode)
	var paid invoiceBody
	decodeJSON(t, payResp, &paid)
	assert.Equal(t, "PARTIAL", paid.Status)
	assert.True(t, paid.Balance.Equal(decimal.RequireFromString("60")))

	// Overpayment rejected with 422
	overResp := do(t, env.server, "POST", "/v1/invoices/"+inv.ID+"/payments",
		jsonBody(t, map[string]any{"amount": "100", "method": "cash"}), env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, overResp.StatusCode)
	overResp.Body.Close()

	// Settle
	settleResp := do(t, env.server, "POST", "/v1/invoices/"+inv.ID+"/payments",
		jsonBody(t, map[string]any{"amount": "60", "method": "card"}), env.token)
	require.Equal(t, http.StatusOK, settleResp.StatusCode)
	var settled invoiceBody
	decodeJSON(t, settleResp, &settled)
	assert.Equal(t, "PAID", settled.Status)
	assert.True(t, settled.Balance.IsZero())
	require.Len(t, settled.Payments, 2)
	assert.Equal(t, "RCT-000001", settled.Payments[0].ReceiptNumber)
	assert.Equal(t, "RCT-000002", settled.Payments[1].ReceiptNumber)

	// Settled invoice rejects both payments and charges with 409
	againResp := do(t, env.server, "POST", "/v1/invoices/"+inv.ID+"/payments",
		jsonBody(t, map[string]any{"amount": "1", "method": "cash"}), env.token)
	assert.Equal(t, http.StatusConflict, againResp.StatusCode)
	againResp.Body.Close()

	chargeResp := do(t, env.server, "POST", "/v1/visits/"+visit.ID+"/charges",
		jsonBody(t, map[string]any{"description": "Late lab", "amount": "20"}), env.token)
	assert.Equal(t, http.StatusConflict, chargeResp.StatusCode)
	chargeResp.Body.Close()
}

func TestE2E_Refund(t *testing.T) {
	env := setupTestEnv(t)
	patientID := env.registerPatient(t, nil)
	visit := env.checkIn(t, patientID, "2026-03-02", nil)
	inv := env.getInvoice(t, visit.ID)

	payResp := do(t, env.server, "POST", "/v1/invoices/"+inv.ID+"/payments",
		jsonBody(t, map[string]any{"amount": "100", "method": "cash"}), env.token)
	require.Equal(t, http.StatusOK, payResp.StatusCode)
	payResp.Body.Close()

	refundResp := do(t, env.server, "POST", "/v1/invoices/"+inv.ID+"/refund", jsonBody(t, map[string]any{}), env.token)
	require.Equal(t, http.StatusOK, refundResp.StatusCode)
	var refunded invoiceBody
	decodeJSON(t, refundResp, &refunded)
	assert.Equal(t, "REFUNDED", refunded.Status)
	require.NotNil(t, refunded.RefundedAmount)
	assert.True(t, refunded.RefundedAmount.Equal(decimal.RequireFromString("100")))
	assert.Len(t, refunded.Payments, 1)

	// Terminal: second refund conflicts
	secondResp := do(t, env.server, "POST", "/v1/invoices/"+inv.ID+"/refund", jsonBody(t, map[string]any{}), env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, secondResp.StatusCode)
	secondResp.Body.Close()
}

func TestE2E_Dispense(t *testing.T) {
	env := setupTestEnv(t)
	patientID := env.registerPatient(t, strPtr("NHIS"))
	visit := env.checkIn(t, patientID, "2026-03-02", strPtr("110"))

	prodResp := do(t, env.server, "POST", "/v1/products",
		jsonBody(t, map[string]any{
			"sku":           "AMOX-500",
			"name":          "Amoxicillin 500mg",
			"category":      "medication",
			"cost_price":    "2",
			"unit_price":    "5",
			"stock_on_hand": 40,
			"reorder_level": 10,
		}), env.token)
	require.Equal(t, http.StatusCreated, prodResp.StatusCode)
	var prod struct {
		ID string `json:"id"`
	}
	decodeJSON(t, prodResp, &prod)

	dispResp := do(t, env.server, "POST", "/v1/visits/"+visit.ID+"/dispense",
		jsonBody(t, map[string]any{"product_id": prod.ID, "quantity": 4}), env.token)
	require.Equal(t, http.StatusOK, dispResp.StatusCode)
	var inv invoiceBody
	decodeJSON(t, dispResp, &inv)
	require.Len(t, inv.Charges, 2)
	assert.True(t, inv.Charges[1].Amount.Equal(decimal.RequireFromString("20")))
	// 100 of the 110 limit went to the consultation; 10 remains for the drugs.
	assert.True(t, inv.Charges[1].CoveredAmount.Equal(decimal.RequireFromString("10")))
	assert.True(t, inv.Charges[1].PatientAmount.Equal(decimal.RequireFromString("10")))

	detailResp := do(t, env.server, "GET", "/v1/products/"+prod.ID, nil, env.token)
	require.Equal(t, http.StatusOK, detailResp.StatusCode)
	var updated struct {
		StockOnHand int `json:"stock_on_hand"`
	}
	decodeJSON(t, detailResp, &updated)
	assert.Equal(t, 36, updated.StockOnHand)

	// Over-dispense conflicts
	overResp := do(t, env.server, "POST", "/v1/visits/"+visit.ID+"/dispense",
		jsonBody(t, map[string]any{"product_id": prod.ID, "quantity": 100}), env.token)
	assert.Equal(t, http.StatusConflict, overResp.StatusCode)
	overResp.Body.Close()
}

func TestE2E_FeeQuote(t *testing.T) {
	env := setupTestEnv(t)

	quotePath := fmt.Sprintf("/v1/fees/quote?branch_id=%s&consultation_type=general", env.branchID)
	resp := do(t, env.server, "GET", quotePath, nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var quote struct {
		Initial decimal.Decimal `json:"initial"`
		Review  decimal.Decimal `json:"review"`
	}
	decodeJSON(t, resp, &quote)
	assert.True(t, quote.Initial.Equal(decimal.RequireFromString("100")))
	assert.True(t, quote.Review.Equal(decimal.RequireFromString("60")))

	// Second read is served from cache with the same body.
	resp2 := do(t, env.server, "GET", quotePath, nil, env.token)
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var quote2 struct {
		Initial decimal.Decimal `json:"initial"`
	}
	decodeJSON(t, resp2, &quote2)
	assert.True(t, quote2.Initial.Equal(quote.Initial))
}
