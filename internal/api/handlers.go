package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/example/order-backend/internal/api/middleware"
	"github.com/example/order-backend/internal/apperror"
	"github.com/example/order-backend/internal/domain/order"
	"github.com/example/order-backend/internal/repository"
	"github.com/example/order-backend/internal/service"
)

const maxListLimit = 100

// OrderService is the part of service.OrderService the handlers use.
type OrderService interface {
	CreateOrder(ctx context.Context, req *order.CreateOrderRequest) (*order.Order, error)
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	UpdateOrder(ctx context.Context, req *order.UpdateOrderRequest) (*order.Order, error)
	DeleteOrder(ctx context.Context, id, reason string) error
	ListOrders(ctx context.Context, params service.ListParams) (*service.ListResult, error)
}

type Handlers struct {
	orders  OrderService
	version string
	now     func() time.Time
}

func NewHandlers(orders OrderService, version string) *Handlers {
	return &Handlers{orders: orders, version: version, now: time.Now}
}

type metadata struct {
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

type successBody struct {
	Success  bool      `json:"success"`
	Data     any       `json:"data"`
	Metadata *metadata `json:"metadata,omitempty"`
}

func (h *Handlers) respond(req *middleware.Request, status int, data any) (*middleware.Response, error) {
	return middleware.JSON(status, successBody{
		Success: true,
		Data:    data,
		Metadata: &metadata{
			RequestID: req.RequestID,
			Timestamp: h.now().UTC(),
			Version:   h.version,
		},
	})
}

func (h *Handlers) CreateOrder(ctx context.Context, req *middleware.Request) (*middleware.Response, error) {
	input, ok := req.Parsed.(*order.CreateOrderRequest)
	if !ok {
		return nil, fmt.Errorf("create order: unexpected parsed body %T", req.Parsed)
	}

	o, err := h.orders.CreateOrder(ctx, input)
	if err != nil {
		return nil, err
	}
	return h.respond(req, http.StatusCreated, o)
}

func (h *Handlers) GetOrder(ctx context.Context, req *middleware.Request) (*middleware.Response, error) {
	id := req.PathParam("orderId")
	if id == "" {
		return nil, errOrderIDRequired
	}

	o, err := h.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, errOrderNotFound(&order.NotFoundError{ID: id})
	}
	return h.respond(req, http.StatusOK, o)
}

func (h *Handlers) ListOrders(ctx context.Context, req *middleware.Request) (*middleware.Response, error) {
	params := service.ListParams{
		CustomerID:        req.Query.Get("customerId"),
		Limit:             service.DefaultListLimit,
		ContinuationToken: req.Query.Get("nextToken"),
	}
	if raw := req.Query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			return nil, apperror.BadRequest(fmt.Sprintf("limit must be an integer between 1 and %d", maxListLimit))
		}
		params.Limit = limit
	}

	result, err := h.orders.ListOrders(ctx, params)
	if errors.Is(err, repository.ErrInvalidToken) {
		return nil, apperror.Wrap(apperror.CodeValidation, "Invalid continuation token", err)
	}
	if err != nil {
		return nil, err
	}
	return h.respond(req, http.StatusOK, result)
}

func (h *Handlers) UpdateOrder(ctx context.Context, req *middleware.Request) (*middleware.Response, error) {
	id := req.PathParam("orderId")
	if id == "" {
		return nil, errOrderIDRequired
	}
	input, ok := req.Parsed.(*order.UpdateOrderRequest)
	if !ok {
		return nil, fmt.Errorf("update order: unexpected parsed body %T", req.Parsed)
	}
	input.OrderID = id

	o, err := h.orders.UpdateOrder(ctx, input)
	if err != nil {
		return nil, errOrderNotFound(err)
	}
	return h.respond(req, http.StatusOK, o)
}

func (h *Handlers) DeleteOrder(ctx context.Context, req *middleware.Request) (*middleware.Response, error) {
	id := req.PathParam("orderId")
	if id == "" {
		return nil, errOrderIDRequired
	}
	var reason string
	if input, ok := req.Parsed.(*order.DeleteOrderRequest); ok {
		reason = input.Reason
	}

	if err := h.orders.DeleteOrder(ctx, id, reason); err != nil {
		return nil, errOrderNotFound(err)
	}
	return middleware.NoContent(), nil
}

// Preflight answers CORS preflight requests; the CORS stage adds the headers.
func (h *Handlers) Preflight(ctx context.Context, req *middleware.Request) (*middleware.Response, error) {
	return middleware.NoContent(), nil
}

var errOrderIDRequired = apperror.BadRequest("Order ID is required")

// errOrderNotFound translates the service's not-found error into the API's
// NOT_FOUND code. Other errors pass through.
func errOrderNotFound(err error) error {
	var nf *order.NotFoundError
	if errors.As(err, &nf) {
		return apperror.Wrap(apperror.CodeNotFound, "Order not found", err)
	}
	return err
}
