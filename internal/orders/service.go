package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
	"github.com/souqly/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogCounter interface {
	CountActive(ctx context.Context) (int64, error)
	CountLowStock(ctx context.Context, threshold int) (int64, error)
}

// Service defines the order reads available to customers and the staff operations on top.
type Service interface {
	GetForUser(ctx context.Context, userID uuid.UUID, code string) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	AdminGet(ctx context.Context, code string) (*OrderDTO, error)
	AdminList(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, code string, input UpdateStatusInput) (*OrderDTO, error)
	Dashboard(ctx context.Context, now time.Time) (*Dashboard, error)
}

type service struct {
	repo              Repository
	tx                txRunner
	catalog           catalogCounter
	lowStockThreshold int
}

// NewService builds the order service.
func NewService(repo Repository, tx txRunner, catalog catalogCounter, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog counter required")
	}
	if lowStockThreshold <= 0 {
		return nil, fmt.Errorf("low stock threshold must be positive")
	}
	return &service{
		repo:              repo,
		tx:                tx,
		catalog:           catalog,
		lowStockThreshold: lowStockThreshold,
	}, nil
}

// GetForUser hides other customers' orders behind NOT_FOUND.
func (s *service) GetForUser(ctx context.Context, userID uuid.UUID, code string) (*OrderDTO, error) {
	order, err := s.find(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, orderNotFound()
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if err := validateCursor(params); err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, listError(err)
	}
	return toList(rows, next), nil
}

func (s *service) AdminGet(ctx context.Context, code string) (*OrderDTO, error) {
	order, err := s.find(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) AdminList(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if err := validateCursor(params); err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, listError(err)
	}
	return toList(rows, next), nil
}

// UpdateStatus only moves forward along Received, Processed, Shipped, Delivered
// unless Override is set. Re-applying the current status is allowed so staff
// can record a delivery time.
func (s *service) UpdateStatus(ctx context.Context, code string, input UpdateStatusInput) (*OrderDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.find(ctx, repo, code)
		if err != nil {
			return err
		}
		if input.Status.Before(order.Status) && !input.Override {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status can only move forward").
				WithDetails(map[string]any{
					"current":   order.Status,
					"requested": input.Status,
				})
		}
		if err := repo.UpdateStatus(ctx, order.ID, input.Status, input.DeliveryTime); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		updated, err = s.find(ctx, repo, code)
		return err
	})
	if err != nil {
		return nil, err
	}
	dto := NewOrderDTO(updated)
	return &dto, nil
}

func (s *service) Dashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	stats, err := s.repo.Stats(ctx, monthStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order stats")
	}
	active, err := s.catalog.CountActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active products")
	}
	lowStock, err := s.catalog.CountLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count low stock products")
	}

	return &Dashboard{
		TotalOrders:       stats.TotalOrders,
		PendingOrders:     stats.PendingOrders,
		ActiveProducts:    active,
		LowStockProducts:  lowStock,
		LowStockThreshold: s.lowStockThreshold,
		MonthRevenue:      stats.MonthRevenue,
		MonthStart:        monthStart,
	}, nil
}

func (s *service) find(ctx context.Context, repo Repository, code string) (*models.Order, error) {
	if code == "" {
		return nil, orderNotFound()
	}
	order, err := repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orderNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func orderNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func validateCursor(params pagination.Params) error {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return nil
}

func listError(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
}

func toList(rows []models.Order, next string) *OrderList {
	list := &OrderList{Orders: make([]OrderDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		list.Orders = append(list.Orders, NewOrderDTO(&rows[i]))
	}
	return list
}
