// Package service holds the order use cases: persistence through the
// generic repository and domain event publication.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/order-backend/internal/domain/order"
	"github.com/example/order-backend/internal/events"
	"github.com/example/order-backend/internal/repository"
	"github.com/example/order-backend/internal/retry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultListLimit is the page size used when the caller gives none.
const DefaultListLimit = 20

// EventPublisher sends one domain event.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type OrderService struct {
	repo          repository.Repository[order.Order]
	publisher     EventPublisher
	retry         *retry.Executor
	customerIndex string
	log           *zap.Logger

	newID func() string
	now   func() time.Time
}

// NewOrderService wires the service to its collaborators. customerIndex
// names the secondary index keyed by customer id.
func NewOrderService(repo repository.Repository[order.Order], publisher EventPublisher, exec *retry.Executor, customerIndex string, log *zap.Logger) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{
		repo:          repo,
		publisher:     publisher,
		retry:         exec,
		customerIndex: customerIndex,
		log:           log,
		newID:         uuid.NewString,
		now:           time.Now,
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, req *order.CreateOrderRequest) (*order.Order, error) {
	b := order.NewBuilder().
		WithOrderID(s.newID()).
		WithCustomerID(req.CustomerID).
		WithCustomerEmail(req.CustomerEmail).
		WithItems(req.Items).
		WithMetadata(req.Metadata)
	if req.ShippingAddress != nil {
		b.WithShippingAddress(*req.ShippingAddress)
	}
	o, err := b.Build()
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	event := events.OrderCreated{
		OrderID:       saved.OrderID,
		CustomerID:    saved.CustomerID,
		CustomerEmail: saved.CustomerEmail,
		Items:         saved.Items,
		TotalAmount:   saved.TotalAmount,
		CreatedAt:     saved.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to publish %s: %w", event.EventType(), err)
	}

	s.log.Info("order created",
		zap.String("orderId", saved.OrderID),
		zap.String("customerId", saved.CustomerID),
		zap.Float64("totalAmount", saved.TotalAmount))
	return saved, nil
}

// GetOrder returns nil, nil when the order does not exist.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return o, nil
}

// UpdateOrder applies the supplied fields on top of the current order. The
// write is conditional on the version that was read; when another writer got
// there first the order is read again and the request reapplied.
func (s *OrderService) UpdateOrder(ctx context.Context, req *order.UpdateOrderRequest) (*order.Order, error) {
	var applied order.Patch
	updated, err := retry.Value(ctx, s.retry, "order.update", func(ctx context.Context) (*order.Order, error) {
		current, err := s.repo.FindByID(ctx, req.OrderID)
		if err != nil {
			return nil, retry.Permanent(fmt.Errorf("failed to get order %s: %w", req.OrderID, err))
		}
		if current == nil {
			return nil, retry.Permanent(&order.NotFoundError{ID: req.OrderID})
		}

		patch := s.patchFor(current, req)
		o, err := s.repo.Update(ctx, req.OrderID, patch)
		switch {
		case errors.Is(err, repository.ErrConflict):
			s.log.Info("order changed concurrently, reapplying update",
				zap.String("orderId", req.OrderID),
				zap.Int("expectedVersion", current.Version))
			return nil, err
		case errors.Is(err, repository.ErrNotFound):
			return nil, retry.Permanent(&order.NotFoundError{ID: req.OrderID})
		case err != nil:
			return nil, retry.Permanent(fmt.Errorf("failed to update order %s: %w", req.OrderID, err))
		}
		applied = patch
		return o, nil
	})
	if errors.Is(err, repository.ErrConflict) {
		return nil, fmt.Errorf("failed to update order %s: %w", req.OrderID, err)
	}
	if err != nil {
		return nil, err
	}

	event := events.OrderUpdated{
		OrderID:   updated.OrderID,
		Updates:   applied.Fields(),
		UpdatedAt: applied.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to publish %s: %w", event.EventType(), err)
	}

	s.log.Info("order updated", zap.String("orderId", updated.OrderID), zap.Int("version", updated.Version))
	return updated, nil
}

func (s *OrderService) patchFor(current *order.Order, req *order.UpdateOrderRequest) order.Patch {
	patch := order.Patch{
		UpdatedAt:       s.now().UTC(),
		Version:         current.Version + 1,
		Status:          req.Status,
		ShippingAddress: req.ShippingAddress,
		ExpectedVersion: current.Version,
	}
	if len(req.Items) > 0 {
		total := order.Total(req.Items)
		patch.Items = req.Items
		patch.TotalAmount = &total
	}
	return patch
}

func (s *OrderService) DeleteOrder(ctx context.Context, id, reason string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get order %s: %w", id, err)
	}
	if existing == nil {
		return &order.NotFoundError{ID: id}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}

	event := events.OrderDeleted{OrderID: id, DeletedAt: s.now().UTC(), Reason: reason}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.EventType(), err)
	}

	s.log.Info("order deleted", zap.String("orderId", id), zap.String("reason", reason))
	return nil
}

type ListParams struct {
	CustomerID        string
	Limit             int
	ContinuationToken string
}

type ListResult struct {
	Orders            []order.Order `json:"orders"`
	ContinuationToken string        `json:"continuationToken,omitempty"`
}

// ListOrders queries the customer index when a customer id is given and
// scans the table otherwise.
func (s *OrderService) ListOrders(ctx context.Context, params ListParams) (*ListResult, error) {
	page := repository.PageParams{Limit: params.Limit, ContinuationToken: params.ContinuationToken}
	if page.Limit <= 0 {
		page.Limit = DefaultListLimit
	}

	var (
		result *repository.Page[order.Order]
		err    error
	)
	if params.CustomerID != "" {
		cond := repository.KeyCondition{Attribute: order.AttrCustomerID, Value: params.CustomerID}
		result, err = s.repo.QueryByIndex(ctx, s.customerIndex, cond, page)
	} else {
		result, err = s.repo.FindAll(ctx, page)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := result.Items
	if orders == nil {
		orders = []order.Order{}
	}
	return &ListResult{Orders: orders, ContinuationToken: result.ContinuationToken}, nil
}

// ProcessOrder moves a PENDING order to PROCESSING. Orders in any other
// status are left alone so redelivered messages are harmless.
func (s *OrderService) ProcessOrder(ctx context.Context, orderID string) error {
	current, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if current == nil {
		return &order.NotFoundError{ID: orderID}
	}
	if current.Status != order.StatusPending {
		s.log.Info("order already past pending, skipping",
			zap.String("orderId", orderID),
			zap.String("status", string(current.Status)))
		return nil
	}

	processing := order.StatusProcessing
	_, err = s.UpdateOrder(ctx, &order.UpdateOrderRequest{OrderID: orderID, Status: &processing})
	return err
}
