package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"textile-backoffice/internal/auth"
	"textile-backoffice/internal/models"
	"textile-backoffice/internal/policy"
	"textile-backoffice/internal/service"
	"textile-backoffice/internal/store"
	"textile-backoffice/internal/store/testhelper"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const adminPassword = "admin-password"

func init() {
	gin.SetMode(gin.TestMode)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type fakeChanges struct {
	payloads []string
}

func (f *fakeChanges) SubscribeChanges(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, len(f.payloads))
	for _, p := range f.payloads {
		ch <- p
	}
	close(ch)
	return ch, nil
}

type testServer struct {
	router *gin.Engine
	store  *store.Store
	tokens *auth.JWTManager
	svc    Services
}

func newTestServer(t *testing.T, changes ChangeStream, checks map[string]Pinger) *testServer {
	t.Helper()

	s := testhelper.NewStore(t)
	tokens := auth.NewJWTManager("an-api-test-secret-that-is-long-enough", "backoffice-test", time.Hour)

	ledger := service.NewStockLedger(s)
	activity := service.NewActivityLogService(s, s, s, nil)
	svc := Services{
		Users:     service.NewUserService(s, s, activity, tokens, nil, bcrypt.MinCost, nil),
		Catalog:   service.NewCatalogService(s, s, s, ledger, activity, nil),
		Customers: service.NewCustomerService(s, s, s, s, activity, nil),
		Orders:    service.NewOrderService(s, s, s, s, ledger, activity, nil, time.Hour, nil),
		Activity:  activity,
		Dashboard: service.NewDashboardService(s, s, s, service.DefaultLowStockThreshold),
	}
	require.NoError(t, svc.Users.EnsureDefaultAdmin(context.Background(), "Admin", adminPassword))

	if checks == nil {
		checks = map[string]Pinger{"database": s}
	}

	router := gin.New()
	NewHandler(svc, changes, checks).SetupRoutes(router)
	return &testServer{router: router, store: s, tokens: tokens, svc: svc}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T, userID, password string) string {
	t.Helper()

	w := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"user_id": userID, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res service.LoginResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func (ts *testServer) userWithRole(t *testing.T, role models.Role) string {
	t.Helper()

	user, err := ts.svc.Users.CreateUser(context.Background(), &service.CreateUserRequest{
		Name:     string(role) + " user",
		Role:     string(role),
		Password: "secret",
	})
	require.NoError(t, err)
	return ts.login(t, user.ID, "secret")
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthAndReadiness(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	w := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)

	down := newTestServer(t, nil, map[string]Pinger{
		"redis": pingFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
	})
	w = down.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	w := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"user_id": service.DefaultAdminID, "password": adminPassword})
	require.Equal(t, http.StatusOK, w.Code)

	var res service.LoginResult
	decode(t, w, &res)
	assert.Equal(t, policy.RouteHome, res.DefaultRoute)
	assert.Equal(t, models.RoleGeneralManager, res.User.Role)
	assert.Contains(t, res.Actions, policy.ActionRestore)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"user_id": service.DefaultAdminID, "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"password": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthentication(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	t.Run("missing token", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/products", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), policy.RouteLogin)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/products", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown role is logged out", func(t *testing.T) {
		intern := &models.User{
			ID:        "user_x",
			Name:      "Stajyer",
			Role:      models.Role("intern"),
			Language:  models.DefaultLanguage,
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, ts.store.CreateUser(context.Background(), intern))
		token, _, err := ts.tokens.Issue(intern)
		require.NoError(t, err)

		w := ts.do(t, http.MethodGet, "/api/v1/access/routes", token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var body map[string]interface{}
		decode(t, w, &body)
		assert.Equal(t, true, body["logout"])
	})

	t.Run("deleted user", func(t *testing.T) {
		user, err := ts.svc.Users.CreateUser(context.Background(), &service.CreateUserRequest{
			Name: "Ali", Role: string(models.RoleSalesRep), Password: "secret",
		})
		require.NoError(t, err)
		token := ts.login(t, user.ID, "secret")

		admin := ts.login(t, service.DefaultAdminID, adminPassword)
		w := ts.do(t, http.MethodDelete, "/api/v1/users/"+user.ID, admin, nil)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		w = ts.do(t, http.MethodGet, "/api/v1/orders", token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var body map[string]interface{}
		decode(t, w, &body)
		assert.Equal(t, policy.RouteLogin, body["redirect"])
	})

	t.Run("demoted user", func(t *testing.T) {
		user, err := ts.svc.Users.CreateUser(context.Background(), &service.CreateUserRequest{
			Name: "Ayse", Role: string(models.RoleGeneralManager), Password: "secret",
		})
		require.NoError(t, err)
		token := ts.login(t, user.ID, "secret")

		w := ts.do(t, http.MethodGet, "/api/v1/history", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		role := string(models.RoleAccountant)
		_, err = ts.svc.Users.UpdateUser(context.Background(), user.ID, &service.UpdateUserRequest{Role: &role})
		require.NoError(t, err)

		w = ts.do(t, http.MethodGet, "/api/v1/history", token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("me", func(t *testing.T) {
		token := ts.login(t, service.DefaultAdminID, adminPassword)
		w := ts.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), service.DefaultAdminID)
	})
}

func TestRoleGuards(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	depot := ts.userWithRole(t, models.RoleDepotManager)
	sales := ts.userWithRole(t, models.RoleSalesRep)

	w := ts.do(t, http.MethodGet, "/api/v1/orders", depot, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, policy.RouteStockList, body["redirect"])

	w = ts.do(t, http.MethodGet, "/api/v1/products", depot, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/history", sales, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/products/prod_1/restock", sales, gin.H{"quantity": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/v1/customers/cus_1", sales, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/dashboard", depot, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestResolveAccess(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	depot := ts.userWithRole(t, models.RoleDepotManager)

	w := ts.do(t, http.MethodGet, "/api/v1/access/resolve?path=/orders", depot, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var d policy.Decision
	decode(t, w, &d)
	assert.Equal(t, policy.Decision{Redirect: policy.RouteStockList}, d)

	w = ts.do(t, http.MethodGet, "/api/v1/access/resolve?path=/depot/prod_1", depot, nil)
	decode(t, w, &d)
	assert.True(t, d.Allowed)

	w = ts.do(t, http.MethodGet, "/api/v1/access/resolve", depot, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderFlowWithRestore(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	admin := ts.login(t, service.DefaultAdminID, adminPassword)

	w := ts.do(t, http.MethodPost, "/api/v1/products", admin, gin.H{
		"name": "Linen", "model": "LN-200", "price": "12.50", "unsold_stock": 100, "depot_stock": 100,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var product models.Product
	decode(t, w, &product)

	w = ts.do(t, http.MethodPost, "/api/v1/orders", admin, gin.H{
		"new_customer": gin.H{"name": "Acme Tekstil", "contact": "buy@acme.test"},
		"items":        []gin.H{{"product_id": product.ID, "quantity": 10}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	decode(t, w, &order)
	assert.Equal(t, models.OrderStatusReceived, order.Status)

	w = ts.do(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/ship", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", admin, gin.H{"status": "RECEIVED"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/products/"+product.ID, admin, nil)
	decode(t, w, &product)
	assert.Equal(t, 90, product.UnsoldStock)
	assert.Equal(t, 90, product.DepotStock)

	w = ts.do(t, http.MethodDelete, "/api/v1/orders/"+order.ID, admin, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/history?type=order", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []models.ActivityLogItem
	decode(t, w, &items)
	require.Len(t, items, 1)
	assert.Equal(t, order.ID, items[0].EntityID)
	assert.True(t, strings.HasPrefix(items[0].Description, "Order #"))

	w = ts.do(t, http.MethodGet, "/api/v1/history?type=invoice", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/history/"+items[0].ID+"/restore", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/api/v1/history/"+items[0].ID+"/restore", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &order)
	assert.Equal(t, models.OrderStatusShipped, order.Status)

	w = ts.do(t, http.MethodGet, "/api/v1/dashboard", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dash service.Dashboard
	decode(t, w, &dash)
	assert.Equal(t, 1, dash.OrderCount)
	assert.Equal(t, 1, dash.CustomerCount)
	assert.Equal(t, "125", dash.TotalRevenue.String())
}

func TestCreateOrderValidation(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	sales := ts.userWithRole(t, models.RoleSalesRep)

	w := ts.do(t, http.MethodPost, "/api/v1/orders", sales, gin.H{"customer_id": "cus_missing", "items": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	accountant := ts.userWithRole(t, models.RoleAccountant)
	w = ts.do(t, http.MethodPost, "/api/v1/orders", accountant, gin.H{})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestChangeStream(t *testing.T) {
	t.Run("relays payloads", func(t *testing.T) {
		ts := newTestServer(t, &fakeChanges{payloads: []string{`{"collection":"orders"}`}}, nil)
		token := ts.login(t, service.DefaultAdminID, adminPassword)

		w := ts.do(t, http.MethodGet, "/api/v1/changes", token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "event:change")
		assert.Contains(t, w.Body.String(), `"collection":"orders"`)
	})

	t.Run("disabled", func(t *testing.T) {
		ts := newTestServer(t, nil, nil)
		token := ts.login(t, service.DefaultAdminID, adminPassword)

		w := ts.do(t, http.MethodGet, "/api/v1/changes", token, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
