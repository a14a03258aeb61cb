package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"repairpos/internal/config"
	"repairpos/internal/infra"
	"repairpos/internal/middleware"
	"repairpos/internal/model"
	"repairpos/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "router-test-secret"

type apiEnv struct {
	engine *gin.Engine
	db     *gorm.DB
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := infra.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{Env: "test", JWTSecret: testSecret}
	return &apiEnv{engine: router.New(ctx, cfg, router.Deps{DB: db}), db: db}
}

func token(t *testing.T, role string) string {
	t.Helper()
	claims := middleware.JWTClaims{
		UserID:   uuid.NewString(),
		Username: "test-" + role,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *apiEnv) do(t *testing.T, method, path string, body any, tok string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

func (e *apiEnv) product(t *testing.T, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:          "Battery",
		SKU:           "BAT-" + uuid.NewString()[:8],
		Price:         decimal.NewFromInt(30),
		StockQuantity: stock,
		MinStockAlert: 1,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *apiEnv) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var p model.Product
	require.NoError(t, e.db.First(&p, "id = ?", id).Error)
	return p.StockQuantity
}

func TestHealth(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	decode(t, w, &body)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "connected", body["db"])
	assert.Equal(t, "disabled", body["redis"])
}

func TestAuth(t *testing.T) {
	env := setupAPI(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/v1/sales", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/v1/sales", nil, "garbage").Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/v1/sales", nil, token(t, middleware.RoleTechnician)).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/v1/inventory/movements", nil, token(t, middleware.RoleCashier)).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/inventory/movements", nil, token(t, middleware.RoleOwner)).Code)
}

func TestCreateSale_HTTP(t *testing.T) {
	env := setupAPI(t)
	tok := token(t, middleware.RoleCashier)
	p := env.product(t, 5)

	w := env.do(t, http.MethodPost, "/v1/sales", map[string]any{
		"total_amount":   "60",
		"final_total":    "60",
		"payment_method": "Card",
		"items": []map[string]any{
			{"product_id": p.ID.String(), "quantity": 2, "unit_price": "30"},
			{"is_manual": true, "manual_name": "Screen protector fitting", "quantity": 1, "unit_price": "0"},
		},
	}, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var sale struct {
		ID       string                    `json:"id"`
		Items    []struct{ Name string }   `json:"items"`
		Payments []struct{ Method string } `json:"payments"`
	}
	decode(t, w, &sale)
	require.Len(t, sale.Items, 2)
	assert.Equal(t, "Battery", sale.Items[0].Name)
	assert.Equal(t, "Screen protector fitting", sale.Items[1].Name)
	require.Len(t, sale.Payments, 1)
	assert.Equal(t, "Card", sale.Payments[0].Method)
	assert.Equal(t, 3, env.stock(t, p.ID))

	got := env.do(t, http.MethodGet, "/v1/sales/"+sale.ID, nil, tok)
	assert.Equal(t, http.StatusOK, got.Code)

	var list struct {
		Total int64 `json:"total"`
	}
	decode(t, env.do(t, http.MethodGet, "/v1/sales", nil, tok), &list)
	assert.EqualValues(t, 1, list.Total)
}

func TestCreateSale_Errors(t *testing.T) {
	env := setupAPI(t)
	tok := token(t, middleware.RoleOwner)
	p := env.product(t, 5)

	cases := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"no items", map[string]any{"payment_method": "Cash", "items": []any{}}, http.StatusUnprocessableEntity},
		{"zero quantity", map[string]any{"payment_method": "Cash", "items": []map[string]any{
			{"product_id": p.ID.String(), "quantity": 0, "unit_price": "1"},
		}}, http.StatusUnprocessableEntity},
		{"manual with reference", map[string]any{"payment_method": "Cash", "items": []map[string]any{
			{"product_id": p.ID.String(), "is_manual": true, "manual_name": "x", "quantity": 1, "unit_price": "1"},
		}}, http.StatusUnprocessableEntity},
		{"unknown product", map[string]any{"payment_method": "Cash", "items": []map[string]any{
			{"product_id": uuid.NewString(), "quantity": 1, "unit_price": "1"},
		}}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/v1/sales", tc.body, tok)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
	assert.Equal(t, 5, env.stock(t, p.ID))

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/v1/sales/"+uuid.NewString(), nil, tok).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/v1/sales/not-an-id", nil, tok).Code)
}

func TestRepairLifecycle_HTTP(t *testing.T) {
	env := setupAPI(t)
	tok := token(t, middleware.RoleTechnician)
	p := env.product(t, 3)
	client := &model.Client{Name: "Jeanne", Phone: "0611223344"}
	require.NoError(t, env.db.Create(client).Error)

	w := env.do(t, http.MethodPost, "/v1/repairs", map[string]any{
		"client_id":     client.ID.String(),
		"device_brand":  "Samsung",
		"device_model":  "S21",
		"cost_estimate": "80",
		"parts":         []string{p.ID.String()},
	}, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rep struct {
		ID        string   `json:"id"`
		Status    string   `json:"status"`
		PartsList []string `json:"parts_list"`
	}
	decode(t, w, &rep)
	assert.Equal(t, string(model.RepairReceived), rep.Status)
	assert.Equal(t, []string{"Battery"}, rep.PartsList)
	assert.Equal(t, 3, env.stock(t, p.ID))

	w = env.do(t, http.MethodPut, "/v1/repairs/"+rep.ID+"/status", map[string]string{"status": string(model.RepairRepaired)}, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, env.stock(t, p.ID))

	w = env.do(t, http.MethodPut, "/v1/repairs/"+rep.ID+"/status", map[string]string{"status": "done"}, tok)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodPut, "/v1/repairs/"+rep.ID, map[string]any{"notes": "screen scratched"}, tok)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/v1/repairs/"+uuid.NewString(), nil, tok).Code)

	var alerts []map[string]any
	w = env.do(t, http.MethodGet, "/v1/inventory/alerts", nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &alerts)
	assert.Empty(t, alerts)
}
