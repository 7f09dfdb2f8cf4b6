package api

import (
	"net/http"

	"github.com/example/order-backend/internal/api/middleware"
	"github.com/example/order-backend/internal/auth"
	"github.com/example/order-backend/internal/validation"
	"go.uber.org/zap"
)

// Route binds a method and path pattern to a complete chain. Path segments
// of the form {name} are parameters.
type Route struct {
	Method  string
	Path    string
	Handler middleware.Handler
}

type RouterConfig struct {
	Handlers  *Handlers
	Validator *validation.Validator
	// JWTService enables bearer auth when set.
	JWTService *auth.JWTService
	Logger     *zap.Logger
}

// Routes builds every order route. Each chain runs, outermost first:
// request id, error boundary, logging, CORS, then auth and body validation
// where they apply.
func Routes(cfg RouterConfig) []Route {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := cfg.Handlers
	v := cfg.Validator

	chain := func(handler middleware.Handler, authStages []middleware.Stage, schema validation.Schema) middleware.Handler {
		stages := []middleware.Stage{
			middleware.RequestID(),
			middleware.ErrorBoundary(log),
			middleware.Logging(log),
			middleware.CORS(),
		}
		stages = append(stages, authStages...)
		if schema != nil {
			stages = append(stages, middleware.Validation(schema))
		}
		return middleware.Chain(handler, stages...)
	}

	var authenticated, admin []middleware.Stage
	if cfg.JWTService != nil {
		authenticated = []middleware.Stage{middleware.Auth(cfg.JWTService)}
		admin = append(authenticated, middleware.RequireRole(auth.RoleAdmin))
	}

	return []Route{
		{Method: http.MethodPost, Path: "/orders", Handler: chain(h.CreateOrder, authenticated, validation.CreateOrderSchema{V: v})},
		{Method: http.MethodGet, Path: "/orders", Handler: chain(h.ListOrders, authenticated, nil)},
		{Method: http.MethodGet, Path: "/orders/{orderId}", Handler: chain(h.GetOrder, authenticated, nil)},
		{Method: http.MethodPut, Path: "/orders/{orderId}", Handler: chain(h.UpdateOrder, authenticated, validation.UpdateOrderSchema{V: v})},
		{Method: http.MethodDelete, Path: "/orders/{orderId}", Handler: chain(h.DeleteOrder, admin, validation.DeleteOrderSchema{V: v})},
		{Method: http.MethodOptions, Path: "/orders", Handler: chain(h.Preflight, nil, nil)},
		{Method: http.MethodOptions, Path: "/orders/{orderId}", Handler: chain(h.Preflight, nil, nil)},
	}
}
