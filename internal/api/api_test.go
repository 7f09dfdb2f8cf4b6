package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/order-backend/internal/auth"
	"github.com/example/order-backend/internal/domain/order"
	orderevents "github.com/example/order-backend/internal/events"
	eventmocks "github.com/example/order-backend/internal/events/mocks"
	"github.com/example/order-backend/internal/repository/mocks"
	"github.com/example/order-backend/internal/retry"
	"github.com/example/order-backend/internal/service"
	"github.com/example/order-backend/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createBody = `{
	"customerId": "customer-123",
	"customerEmail": "test@example.com",
	"items": [{"productId": "3b241101-e2bb-4255-8caf-4136c566a962", "name": "Product", "quantity": 2, "price": 29.99}],
	"shippingAddress": {"street": "123 Main St", "city": "Boston", "state": "MA", "zipCode": "02101"}
}`

type testEnv struct {
	server    *httptest.Server
	repo      *mocks.MockRepository[order.Order]
	publisher *eventmocks.MockPublisher
	routes    []Route
}

func newTestEnv(t *testing.T, jwtService *auth.JWTService) *testEnv {
	t.Helper()
	repo := mocks.NewMockRepository((*order.Order).Key)
	publisher := eventmocks.NewMockPublisher()
	exec := retry.NewExecutor(retry.Options{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}, nil)
	svc := service.NewOrderService(repo, publisher, exec, "CustomerIndex", nil)

	routes := Routes(RouterConfig{
		Handlers:   NewHandlers(svc, "1.0.0"),
		Validator:  validation.New(),
		JWTService: jwtService,
	})
	server := httptest.NewServer(NewRouter(routes, nil))
	t.Cleanup(server.Close)
	return &testEnv{server: server, repo: repo, publisher: publisher, routes: routes}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func (e *testEnv) createOrder(t *testing.T) map[string]any {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/orders", createBody, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["data"].(map[string]any)
}

// ============================================
// Create / Get Tests
// ============================================

func TestAPI_CreateOrder(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPost, "/orders", createBody, map[string]string{"X-Request-ID": "req-42"})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, 59.98, data["totalAmount"])
	assert.Equal(t, float64(1), data["version"])
	assert.Equal(t, "PENDING", data["status"])
	assert.Equal(t, "US", data["shippingAddress"].(map[string]any)["country"])

	meta := body["metadata"].(map[string]any)
	assert.Equal(t, "req-42", meta["requestId"])
	assert.Equal(t, "1.0.0", meta["version"])
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	require.Len(t, env.publisher.PublishCalls, 1)
	created := env.publisher.PublishCalls[0].(orderevents.OrderCreated)
	assert.Equal(t, 59.98, created.TotalAmount)
	assert.Equal(t, data["orderId"], created.OrderID)
}

func TestAPI_CreateOrder_ValidationError(t *testing.T) {
	env := newTestEnv(t, nil)
	body := strings.Replace(createBody, "test@example.com", "invalid-email", 1)

	resp, decoded := env.do(t, http.MethodPost, "/orders", body, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, "VALIDATION_ERROR", decoded["code"])
	details := decoded["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "customerEmail", details[0].(map[string]any)["field"])
	assert.Empty(t, env.repo.SaveCalls)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_GetOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	created := env.createOrder(t)

	resp, body := env.do(t, http.MethodGet, "/orders/"+created["orderId"].(string), "", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created["orderId"], body["data"].(map[string]any)["orderId"])
}

func TestAPI_GetOrder_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodGet, "/orders/does-not-exist", "", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Order not found", body["error"])
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestAPI_MissingOrderID(t *testing.T) {
	env := newTestEnv(t, nil)

	bodies := map[string]string{
		http.MethodGet:    "",
		http.MethodPut:    `{"status":"SHIPPED"}`,
		http.MethodDelete: "",
	}
	for method, payload := range bodies {
		t.Run(method, func(t *testing.T) {
			resp, body := env.do(t, method, "/orders/", payload, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "Order ID is required", body["error"])
		})
	}
}

// ============================================
// Update / Delete Tests
// ============================================

func TestAPI_UpdateOrder_Status(t *testing.T) {
	env := newTestEnv(t, nil)
	created := env.createOrder(t)
	id := created["orderId"].(string)

	resp, body := env.do(t, http.MethodPut, "/orders/"+id, `{"status":"PROCESSING"}`, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(2), data["version"])
	assert.Equal(t, "PROCESSING", data["status"])

	require.Len(t, env.publisher.PublishCalls, 2)
	updated := env.publisher.PublishCalls[1].(orderevents.OrderUpdated)
	keys := make([]string, 0, len(updated.Updates))
	for k := range updated.Updates {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"updatedAt", "version", "status"}, keys)
}

func TestAPI_UpdateOrder_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPut, "/orders/missing", `{"status":"SHIPPED"}`, nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestAPI_DeleteOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createOrder(t)["orderId"].(string)

	resp, _ := env.do(t, http.MethodDelete, "/orders/"+id, `{"reason":"duplicate"}`, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	deleted := env.publisher.Last().(orderevents.OrderDeleted)
	assert.Equal(t, "duplicate", deleted.Reason)

	resp, _ = env.do(t, http.MethodGet, "/orders/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/orders/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ============================================
// List Tests
// ============================================

func TestAPI_ListOrders(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createOrder(t)
	env.createOrder(t)

	resp, body := env.do(t, http.MethodGet, "/orders?customerId=customer-123&limit=1", "", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Len(t, data["orders"], 1)
	token, ok := data["continuationToken"].(string)
	require.True(t, ok)

	resp, body = env.do(t, http.MethodGet, "/orders?customerId=customer-123&limit=1&nextToken="+url.QueryEscape(token), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]any)
	assert.Len(t, data["orders"], 1)
	assert.NotContains(t, data, "continuationToken")
}

func TestAPI_ListOrders_LimitBounds(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, limit := range []string{"0", "101", "abc", "-5"} {
		t.Run(limit, func(t *testing.T) {
			resp, body := env.do(t, http.MethodGet, "/orders?limit="+limit, "", nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "VALIDATION_ERROR", body["code"])
		})
	}
}

func TestAPI_ListOrders_InvalidToken(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodGet, "/orders?nextToken=%25%25%25", "", nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid continuation token", body["error"])
}

// ============================================
// Auth Tests
// ============================================

func TestAPI_AuthEnabled(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret-key-for-testing-purposes", time.Minute)
	env := newTestEnv(t, jwtService)
	customer, _, err := jwtService.GenerateToken("customer-123", "", "customer")
	require.NoError(t, err)
	admin, _, err := jwtService.GenerateToken("ops-1", "", auth.RoleAdmin)
	require.NoError(t, err)

	resp, body := env.do(t, http.MethodPost, "/orders", createBody, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	resp, body = env.do(t, http.MethodPost, "/orders", createBody, map[string]string{"Authorization": "Bearer " + customer})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["data"].(map[string]any)["orderId"].(string)

	resp, body = env.do(t, http.MethodDelete, "/orders/"+id, "", map[string]string{"Authorization": "Bearer " + customer})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["code"])

	resp, _ = env.do(t, http.MethodDelete, "/orders/"+id, "", map[string]string{"Authorization": "Bearer " + admin})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_Preflight(t *testing.T) {
	env := newTestEnv(t, auth.NewJWTService("test-secret-key-for-testing-purposes", time.Minute))

	resp, _ := env.do(t, http.MethodOptions, "/orders", "", nil)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "GET,POST,PUT,DELETE,OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
}

// ============================================
// API Gateway Adapter Tests
// ============================================

func TestLambdaHandler_RoutesProxyEvents(t *testing.T) {
	env := newTestEnv(t, nil)
	h := NewLambdaHandler(env.routes, nil)
	ctx := context.Background()

	created, err := h.Handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:     http.MethodPost,
		Path:           "/orders",
		Body:           createBody,
		RequestContext: events.APIGatewayProxyRequestContext{RequestID: "gw-1"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, created.StatusCode)
	assert.Equal(t, "gw-1", created.Headers["X-Request-Id"])

	var body struct {
		Data order.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(created.Body), &body))

	got, err := h.Handle(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:     http.MethodGet,
		Path:           "/orders/" + body.Data.OrderID,
		PathParameters: map[string]string{"orderId": body.Data.OrderID},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, got.StatusCode)

	missing, err := h.Handle(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/orders/nope"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	assert.Contains(t, missing.Body, `"code":"NOT_FOUND"`)
}

func TestLambdaHandler_MissingOrderID(t *testing.T) {
	env := newTestEnv(t, nil)
	h := NewLambdaHandler(env.routes, nil)

	bodies := map[string]string{
		http.MethodGet:    "",
		http.MethodPut:    `{"status":"SHIPPED"}`,
		http.MethodDelete: "",
	}
	for method, payload := range bodies {
		t.Run(method, func(t *testing.T) {
			resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
				HTTPMethod: method,
				Path:       "/orders/",
				Body:       payload,
			})

			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, resp.Body, `"error":"Order ID is required"`)
		})
	}
	assert.Empty(t, env.repo.DeleteCalls)
}

func TestLambdaHandler_UnknownRoute(t *testing.T) {
	h := NewLambdaHandler(nil, nil)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodPatch, Path: "/orders"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLambdaHandler_Base64Body(t *testing.T) {
	env := newTestEnv(t, nil)
	h := NewLambdaHandler(env.routes, nil)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/orders",
		Body:            "not base64!",
		IsBase64Encoded: true,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMatchPath(t *testing.T) {
	params, ok := matchPath("/orders/{orderId}", "/orders/abc")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"orderId": "abc"}, params)

	_, ok = matchPath("/orders/{orderId}", "/orders")
	assert.False(t, ok)
	_, ok = matchPath("/orders", "/customers")
	assert.False(t, ok)

	params, ok = matchPath("/orders/{orderId}", "/orders/")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"orderId": ""}, params)
	_, ok = matchPath("/orders", "/orders/")
	assert.False(t, ok)
}
