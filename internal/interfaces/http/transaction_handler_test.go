package http_test

import (
	"bytes"
	"context"
	"fmt"
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

	"github.com/jhoicas/Contabilidad-api/internal/application/costing"
	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/guard"
	"github.com/jhoicas/Contabilidad-api/internal/application/ledger"
	"github.com/jhoicas/Contabilidad-api/internal/application/transaction"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Contabilidad-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// API completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

func buildAPI(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	s := memory.NewStore()
	s.PutItem(entity.Item{ID: "item-1", UnitID: testUnitID, Name: "Tornillo",
		Accounts: entity.CategoryAccounts{StockAccountID: "1405", CogsAccountID: "6135", SalesAccountID: "4135"}})
	s.PutMultipleUom(entity.MultipleUom{ID: "uom-unit", ItemID: "item-1", Name: "unidad", ConversionQty: decimal.NewFromInt(1)})
	s.PutSetting(entity.UnitSetting{UnitID: testUnitID, CostingMethod: entity.CostingMethodFIFO,
		TaxOutAccountID: "2408", TaxInAccountID: "2408"})

	log := zerolog.Nop()
	uc := transaction.NewUseCase(s, costing.NewEngine("FIFO", log), ledger.NewPoster(log),
		guard.NewClosingGuard(log), guard.NewSequencer(s), log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{Transactions: uc, Store: "memory", JWTSecret: testJWTSecret, Log: log})
	return app, s
}

func call(t *testing.T, app *fiber.App, method, path, role string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "-" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func day(d int) *time.Time {
	t := time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func stockLine(qty, price int64) dto.TransactionDetailRequest {
	return dto.TransactionDetailRequest{
		MultipleUomID: "uom-unit", QtyInput: decimal.NewFromInt(qty), PriceInput: decimal.NewFromInt(price),
	}
}

func TestTransactionAPI_CrearVenderYBorrar(t *testing.T) {
	app, _ := buildAPI(t)

	resp, body := call(t, app, http.MethodPost, "/api/transactions", apphttp.RoleAccountant, dto.TransactionRequest{
		TransactionType: "BEGINNING_BALANCE_STOCK", EntryDate: day(1), ChartOfAccountID: "3105",
		Details: []dto.TransactionDetailRequest{stockLine(100, 10)},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = call(t, app, http.MethodPost, "/api/transactions", apphttp.RoleAccountant, dto.TransactionRequest{
		TransactionType: "SALE_INVOICE", EntryDate: day(5), ChartOfAccountID: "1105",
		Details: []dto.TransactionDetailRequest{stockLine(30, 25)},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var sale dto.TransactionResponse
	require.NoError(t, json.Unmarshal(body, &sale))
	assert.Equal(t, "SI/202401/00000001", sale.TransactionNumber)
	assert.Equal(t, "750", sale.Total.String())
	require.Len(t, sale.Details, 1)
	assert.Equal(t, "10", sale.Details[0].Cogs.String())

	resp, _ = call(t, app, http.MethodDelete, "/api/transactions/"+sale.ID, apphttp.RoleAccountant, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = call(t, app, http.MethodDelete, "/api/transactions/"+sale.ID, apphttp.RoleAccountant, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "NOT_FOUND")
}

func TestTransactionAPI_StockInsuficienteDevuelve409ConFaltante(t *testing.T) {
	app, _ := buildAPI(t)
	resp, _ := call(t, app, http.MethodPost, "/api/transactions", apphttp.RoleAccountant, dto.TransactionRequest{
		TransactionType: "BEGINNING_BALANCE_STOCK", EntryDate: day(1), ChartOfAccountID: "3105",
		Details: []dto.TransactionDetailRequest{stockLine(100, 10)},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := call(t, app, http.MethodPost, "/api/transactions", apphttp.RoleAccountant, dto.TransactionRequest{
		TransactionType: "SALE_INVOICE", EntryDate: day(5), ChartOfAccountID: "1105",
		Details: []dto.TransactionDetailRequest{stockLine(150, 25)},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var errBody struct {
		Code    string                       `json:"code"`
		Details dto.InsufficientStockDetails `json:"details"`
	}
	require.NoError(t, json.Unmarshal(body, &errBody))
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)
	assert.Equal(t, "item-1", errBody.Details.ItemID)
	assert.Equal(t, "100", errBody.Details.Available)
	assert.Equal(t, "150", errBody.Details.Requested)
}

func TestTransactionAPI_ValidacionDelBody(t *testing.T) {
	app, _ := buildAPI(t)

	resp, body := call(t, app, http.MethodPost, "/api/transactions", apphttp.RoleAccountant, dto.TransactionRequest{
		TransactionType: "EXPENSE", EntryDate: day(1), ChartOfAccountID: "1105",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "transaction_details")

	resp, body = call(t, app, http.MethodPost, "/api/transactions", apphttp.RoleAccountant, dto.TransactionRequest{
		TransactionType: "EXPENSE", EntryDate: day(1), ChartOfAccountID: "1105",
		Details: []dto.TransactionDetailRequest{{MultipleUomID: "uom-unit", ChartOfAccountID: "5105"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "excluded_with")

	resp, body = call(t, app, http.MethodPost, "/api/transactions", apphttp.RoleAccountant, dto.TransactionRequest{
		TransactionType: "JOURNAL_ENTRY", EntryDate: day(1),
		Details: []dto.TransactionDetailRequest{
			{ChartOfAccountID: "5105", Debit: decimal.NewFromInt(100)},
			{ChartOfAccountID: "1105", Credit: decimal.NewFromInt(90)},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "UNBALANCED_JOURNAL_ENTRY")

	resp, body = call(t, app, http.MethodPost, "/api/transactions", apphttp.RoleAccountant, dto.TransactionRequest{
		TransactionType: "JOURNAL_ENTRY", EntryDate: day(1),
		Details: []dto.TransactionDetailRequest{
			{ChartOfAccountID: "5105", Debit: decimal.RequireFromString("0.005")},
			{ChartOfAccountID: "5110", Debit: decimal.RequireFromString("0.005")},
			{ChartOfAccountID: "1105", Credit: decimal.RequireFromString("0.01")},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "UNBALANCED_JOURNAL_ENTRY")

	resp, _ = call(t, app, http.MethodPost, "/api/items/item-1/recalculate", apphttp.RoleAccountant, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTransactionAPI_PeriodoCerradoDevuelve423(t *testing.T) {
	app, s := buildAPI(t)
	s.AddClosing(entity.FinancialClosing{ID: "fc-1", UnitID: testUnitID, EntryDate: *day(31)})

	resp, body := call(t, app, http.MethodPost, "/api/transactions", apphttp.RoleAccountant, dto.TransactionRequest{
		TransactionType: "EXPENSE", EntryDate: day(15), ChartOfAccountID: "1105",
		Details: []dto.TransactionDetailRequest{{ChartOfAccountID: "5105", PriceInput: decimal.NewFromInt(10)}},
	})
	assert.Equal(t, http.StatusLocked, resp.StatusCode)
	assert.Contains(t, string(body), "PERIOD_CLOSED")
}

func TestTransactionAPI_NumeracionYRoles(t *testing.T) {
	app, _ := buildAPI(t)

	resp, body := call(t, app, http.MethodGet, "/api/prefixes/purchase_invoice/next?date=2024-03-10", apphttp.RoleCashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var next dto.NumberResponse
	require.NoError(t, json.Unmarshal(body, &next))
	assert.Equal(t, "PURCHASE_INVOICE", next.TransactionType)
	assert.Equal(t, "PI/202403/00000001", next.Number)

	resp, body = call(t, app, http.MethodPost, "/api/prefixes/purchase_invoice/reserve?date=2024-03-10", apphttp.RoleCashier, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	resp, body = call(t, app, http.MethodGet, "/api/prefixes/purchase_invoice/next?date=2024-03-10", apphttp.RoleCashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &next))
	assert.Equal(t, "PI/202403/00000002", next.Number)

	resp, _ = call(t, app, http.MethodGet, "/api/prefixes/purchase_invoice/next?date=10-03-2024", apphttp.RoleCashier, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/prefixes/desconocido/next", apphttp.RoleCashier, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = call(t, app, http.MethodPost, "/api/transactions", apphttp.RoleCashier, dto.TransactionRequest{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, app, http.MethodPost, "/api/transactions", "-", dto.TransactionRequest{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTransactionAPI_CajaAbrirYCerrar(t *testing.T) {
	app, _ := buildAPI(t)
	open := dto.TransactionRequest{
		EntryDate: day(2), ChartOfAccountID: "3105",
		Details: []dto.TransactionDetailRequest{{ChartOfAccountID: "1105-caja", PriceInput: decimal.NewFromInt(200)}},
	}
	resp, body := call(t, app, http.MethodPost, "/api/registers/caja-1/open", apphttp.RoleCashier, open)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = call(t, app, http.MethodPost, "/api/registers/caja-1/open", apphttp.RoleCashier, open)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "REGISTER_ALREADY_OPEN")

	resp, body = call(t, app, http.MethodPost, "/api/registers/caja-1/close", apphttp.RoleCashier, open)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var closed dto.TransactionResponse
	require.NoError(t, json.Unmarshal(body, &closed))
	assert.Equal(t, "CLOSE_REGISTER", closed.TransactionType)
	assert.NotEmpty(t, closed.TransactionParentID)
}

func TestTransactionAPI_RecalcularItem(t *testing.T) {
	app, _ := buildAPI(t)
	resp, _ := call(t, app, http.MethodPost, "/api/transactions", apphttp.RoleAccountant, dto.TransactionRequest{
		TransactionType: "BEGINNING_BALANCE_STOCK", EntryDate: day(1), ChartOfAccountID: "3105",
		Details: []dto.TransactionDetailRequest{stockLine(10, 5)},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := call(t, app, http.MethodPost, "/api/items/item-1/recalculate", apphttp.RoleAdmin,
		dto.RecalculateRequest{From: *day(1)})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out dto.RecalculateResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "item-1", out.ItemID)
	assert.Empty(t, out.Affected)
}

func TestHealth_Publico(t *testing.T) {
	app, _ := buildAPI(t)
	resp, body := call(t, app, http.MethodGet, "/health", "-", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","store":"memory"}`, string(body))
}

// failingService devuelve siempre el mismo error al crear.
type failingService struct {
	apphttp.TransactionService
	err error
}

func (f failingService) Create(context.Context, string, string, dto.TransactionRequest) (*dto.TransactionResponse, error) {
	return nil, f.err
}

func TestTransactionAPI_LibroMayorDescuadradoDevuelve422(t *testing.T) {
	app := fiber.New()
	svc := failingService{err: fmt.Errorf("débito 0.02 crédito 0.01: %w", domain.ErrUnbalancedLedger)}
	apphttp.Router(app, apphttp.RouterDeps{Transactions: svc, Store: "memory", JWTSecret: testJWTSecret, Log: zerolog.Nop()})

	resp, body := call(t, app, http.MethodPost, "/api/transactions", apphttp.RoleAccountant, dto.TransactionRequest{
		TransactionType: "EXPENSE", EntryDate: day(1), ChartOfAccountID: "1105",
		Details: []dto.TransactionDetailRequest{{ChartOfAccountID: "5105", PriceInput: decimal.NewFromInt(10)}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "UNBALANCED_LEDGER")
}
