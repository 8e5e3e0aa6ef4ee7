package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/flicky/cardmarket-api/internal/model"
	"github.com/flicky/cardmarket-api/internal/repository"
)

// OrderEventPublisher announces committed orders to other processes.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, event model.OrderEvent) error
}

// OrderService builds immutable, priced orders. Listing stock is neither checked
// nor decremented here, so nothing in this service prevents overselling.
type OrderService struct {
	tx       repository.Transactor
	orders   repository.OrderRepository
	products repository.ProductRepository
	accounts repository.AccountResolver
	events   OrderEventPublisher
	cache    *Cache
}

func NewOrderService(
	tx repository.Transactor,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	accounts repository.AccountResolver,
	events OrderEventPublisher,
	cache *Cache,
) *OrderService {
	return &OrderService{tx: tx, orders: orders, products: products, accounts: accounts, events: events, cache: cache}
}

type OrderLine struct {
	ProductID     int64
	Quantity      int
	PurchasePrice decimal.Decimal
}

type CreateOrderInput struct {
	// SellerUserID names the seller explicitly. When nil the seller of the first
	// listing found for the first line's product is used for the whole order.
	SellerUserID *int64
	Items        []OrderLine
}

// OrderCost is the sum of quantity times purchase price over all lines.
func OrderCost(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.PurchasePrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func validateLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return ErrEmptyOrder
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if l.PurchasePrice.IsNegative() {
			return ErrInvalidPrice
		}
	}
	return nil
}

// CreateOrder persists the order and all of its items in one transaction and
// returns it with items and products loaded. Cost is fixed at creation.
func (s *OrderService) CreateOrder(ctx context.Context, customerUserID int64, in CreateOrderInput) (*model.Order, error) {
	if err := validateLines(in.Items); err != nil {
		return nil, err
	}

	var order *model.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		customer, err := s.accounts.GetCustomerByUserID(ctx, customerUserID)
		if err != nil {
			return fmt.Errorf("resolve customer: %w", err)
		}
		if customer == nil {
			return ErrCustomerNotFound
		}

		sellerID, err := s.resolveSeller(ctx, in)
		if err != nil {
			return err
		}

		items := make([]model.OrderItem, 0, len(in.Items))
		for _, l := range in.Items {
			product, err := s.products.GetByID(ctx, l.ProductID)
			if err != nil {
				return fmt.Errorf("get product: %w", err)
			}
			if product == nil {
				return ErrProductNotFound
			}
			items = append(items, model.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity, PurchasePrice: l.PurchasePrice})
		}

		o := &model.Order{
			CustomerID: customer.ID,
			SellerID:   sellerID,
			Cost:       OrderCost(in.Items),
			Items:      items,
		}
		if err := s.orders.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		order, err = s.orders.GetByID(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("reload order: %w", err)
		}
		if order == nil {
			return fmt.Errorf("order %d missing after create", o.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, order)
	return order, nil
}

func (s *OrderService) resolveSeller(ctx context.Context, in CreateOrderInput) (int64, error) {
	if in.SellerUserID != nil {
		seller, err := s.accounts.GetSellerByUserID(ctx, *in.SellerUserID)
		if err != nil {
			return 0, fmt.Errorf("resolve seller: %w", err)
		}
		if seller == nil {
			return 0, ErrSellerNotFound
		}
		return seller.ID, nil
	}

	// Only the first line is consulted; every line is attributed to this seller.
	listing, err := s.products.FirstListingForProduct(ctx, in.Items[0].ProductID)
	if err != nil {
		return 0, fmt.Errorf("find listing: %w", err)
	}
	if listing == nil {
		return 0, fmt.Errorf("%w for first product", ErrListingNotFound)
	}
	return listing.SellerID, nil
}

// announce publishes the order event. Without a publisher, or when publishing
// fails, the cached order lists are dropped right away instead.
func (s *OrderService) announce(ctx context.Context, order *model.Order) {
	if s.events != nil {
		err := s.events.PublishOrderCreated(ctx, model.OrderEvent{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			SellerID:   order.SellerID,
			Cost:       order.Cost,
			CreatedAt:  order.CreatedAt,
		})
		if err == nil {
			return
		}
	}
	_ = s.InvalidateOrderLists(ctx, order.CustomerID, order.SellerID)
}

// InvalidateOrderLists drops the cached order lists of a customer and a seller.
func (s *OrderService) InvalidateOrderLists(ctx context.Context, customerID, sellerID int64) error {
	return s.cache.Delete(ctx, customerOrdersKey(customerID), sellerOrdersKey(sellerID))
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderForUser returns the order when userID is its customer or its seller.
func (s *OrderService) GetOrderForUser(ctx context.Context, id, userID int64) (*model.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	customer, err := s.accounts.GetCustomerByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}
	if customer != nil && customer.ID == order.CustomerID {
		return order, nil
	}
	seller, err := s.accounts.GetSellerByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve seller: %w", err)
	}
	if seller != nil && seller.ID == order.SellerID {
		return order, nil
	}
	return nil, ErrForbidden
}

func (s *OrderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListByCustomerUser(ctx context.Context, userID int64) ([]model.Order, error) {
	customer, err := s.accounts.GetCustomerByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return s.cachedList(ctx, customerOrdersKey(customer.ID), func() ([]model.Order, error) {
		return s.orders.ListByCustomer(ctx, customer.ID)
	})
}

func (s *OrderService) ListBySellerUser(ctx context.Context, userID int64) ([]model.Order, error) {
	seller, err := s.accounts.GetSellerByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve seller: %w", err)
	}
	if seller == nil {
		return nil, ErrSellerNotFound
	}
	return s.cachedList(ctx, sellerOrdersKey(seller.ID), func() ([]model.Order, error) {
		return s.orders.ListBySeller(ctx, seller.ID)
	})
}

func (s *OrderService) cachedList(ctx context.Context, key string, load func() ([]model.Order, error)) ([]model.Order, error) {
	var orders []model.Order
	if s.cache.get(ctx, key, &orders) {
		return orders, nil
	}
	orders, err := load()
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	s.cache.set(ctx, key, orders)
	return orders, nil
}
