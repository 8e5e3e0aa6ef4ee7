package repotest

import (
	"context"
	"fmt"
	"sort"

	"github.com/flicky/cardmarket-api/internal/model"
	"github.com/flicky/cardmarket-api/internal/repository"
)

type orderRepo struct{ s *Store }

func (r orderRepo) Create(_ context.Context, order *model.Order) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.customers[order.CustomerID]; !ok {
		return fmt.Errorf("insert order: %w: orders_customer_id_fkey", repository.ErrReferenceViolation)
	}
	if _, ok := s.st.sellers[order.SellerID]; !ok {
		return fmt.Errorf("insert order: %w: orders_seller_id_fkey", repository.ErrReferenceViolation)
	}
	order.ID = s.nextID()
	order.CreatedAt = now()
	stored := *order
	stored.Items = nil
	s.st.orders[order.ID] = stored

	// Items go in one by one, like the SQL implementation, so an injected failure
	// lands after the order row exists.
	for i := range order.Items {
		if err := s.failure("Orders.CreateItem"); err != nil {
			return err
		}
		if _, ok := s.st.products[order.Items[i].ProductID]; !ok {
			return fmt.Errorf("insert order item: %w: order_items_product_id_fkey", repository.ErrReferenceViolation)
		}
		order.Items[i].ID = s.nextID()
		order.Items[i].OrderID = order.ID
		item := order.Items[i]
		item.Product = nil
		s.st.orderItems[item.ID] = item
	}
	return nil
}

func (s *Store) orderLocked(o model.Order) model.Order {
	o.Items = nil
	for _, id := range sortedKeys(s.st.orderItems) {
		it := s.st.orderItems[id]
		if it.OrderID == o.ID {
			it.Product = s.productLocked(it.ProductID)
			o.Items = append(o.Items, it)
		}
	}
	return o
}

func (s *Store) ordersWhere(match func(model.Order) bool) []model.Order {
	var out []model.Order
	for _, id := range sortedKeys(s.st.orders) {
		if o := s.st.orders[id]; match(o) {
			out = append(out, s.orderLocked(o))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r orderRepo) GetByID(_ context.Context, id int64) (*model.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.st.orders[id]
	if !ok {
		return nil, nil
	}
	out := s.orderLocked(o)
	return &out, nil
}

func (r orderRepo) List(_ context.Context) ([]model.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ordersWhere(func(model.Order) bool { return true }), nil
}

func (r orderRepo) ListByCustomer(_ context.Context, customerID int64) ([]model.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ordersWhere(func(o model.Order) bool { return o.CustomerID == customerID }), nil
}

func (r orderRepo) ListBySeller(_ context.Context, sellerID int64) ([]model.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ordersWhere(func(o model.Order) bool { return o.SellerID == sellerID }), nil
}
