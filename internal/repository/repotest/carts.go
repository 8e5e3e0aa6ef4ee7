package repotest

import (
	"context"
	"fmt"

	"github.com/flicky/cardmarket-api/internal/model"
	"github.com/flicky/cardmarket-api/internal/repository"
)

type cartRepo struct{ s *Store }

func (s *Store) cartHeaderLocked(c model.Cart) model.Cart {
	if cu, ok := s.st.customers[c.CustomerID]; ok {
		c.CustomerUserID = cu.UserID
	}
	c.Items = nil
	return c
}

func (r cartRepo) Create(_ context.Context, customerID int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("Carts.Create"); err != nil {
		return err
	}
	if _, ok := s.st.customers[customerID]; !ok {
		return fmt.Errorf("create cart: %w: carts_customer_id_fkey", repository.ErrReferenceViolation)
	}
	for _, c := range s.st.carts {
		if c.CustomerID == customerID {
			return nil
		}
	}
	id := s.nextID()
	s.st.carts[id] = model.Cart{ID: id, CustomerID: customerID, CreatedAt: now(), UpdatedAt: now()}
	return nil
}

func (r cartRepo) GetByID(_ context.Context, cartID int64) (*model.Cart, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.carts[cartID]
	if !ok {
		return nil, nil
	}
	out := s.cartHeaderLocked(c)
	return &out, nil
}

func (r cartRepo) GetByCustomerID(_ context.Context, customerID int64) (*model.Cart, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.st.carts {
		if c.CustomerID == customerID {
			out := s.cartHeaderLocked(c)
			return &out, nil
		}
	}
	return nil, nil
}

func (r cartRepo) GetWithItems(_ context.Context, cartID int64) (*model.Cart, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("Carts.GetWithItems"); err != nil {
		return nil, err
	}
	c, ok := s.st.carts[cartID]
	if !ok {
		return nil, nil
	}
	out := s.cartHeaderLocked(c)
	for _, id := range sortedKeys(s.st.cartItems) {
		it := s.st.cartItems[id]
		if it.CartID != cartID {
			continue
		}
		it.Product = s.productLocked(it.ProductID)
		out.Items = append(out.Items, it)
	}
	return &out, nil
}

func (r cartRepo) AddItem(_ context.Context, item *model.CartItem) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("Carts.AddItem"); err != nil {
		return err
	}
	if _, ok := s.st.carts[item.CartID]; !ok {
		return fmt.Errorf("add cart item: %w: cart_items_cart_id_fkey", repository.ErrReferenceViolation)
	}
	if _, ok := s.st.products[item.ProductID]; !ok {
		return fmt.Errorf("add cart item: %w: cart_items_product_id_fkey", repository.ErrReferenceViolation)
	}
	if item.ListingID != nil {
		if _, ok := s.st.listings[*item.ListingID]; !ok {
			return fmt.Errorf("add cart item: %w: cart_items_listing_id_fkey", repository.ErrReferenceViolation)
		}
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("add cart item: quantity check violated")
	}
	item.ID = s.nextID()
	item.CreatedAt = now()
	item.UpdatedAt = item.CreatedAt
	stored := *item
	stored.Product = nil
	s.st.cartItems[item.ID] = stored
	return nil
}

func (r cartRepo) UpdateItemQuantity(_ context.Context, cartID, itemID int64, quantity int) (*model.CartItem, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("Carts.UpdateItemQuantity"); err != nil {
		return nil, err
	}
	it, ok := s.st.cartItems[itemID]
	if !ok || it.CartID != cartID {
		return nil, repository.ErrNotFound
	}
	it.Quantity = quantity
	it.UpdatedAt = now()
	s.st.cartItems[itemID] = it
	return &it, nil
}

func (r cartRepo) DeleteItem(_ context.Context, cartID, itemID int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.st.cartItems[itemID]
	if !ok || it.CartID != cartID {
		return repository.ErrNotFound
	}
	delete(s.st.cartItems, itemID)
	return nil
}

func (r cartRepo) ClearItems(_ context.Context, cartID int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, it := range s.st.cartItems {
		if it.CartID == cartID {
			delete(s.st.cartItems, id)
		}
	}
	return nil
}

func (r cartRepo) SumQuantities(_ context.Context, cartID int64) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("Carts.SumQuantities"); err != nil {
		return 0, err
	}
	total := 0
	for _, it := range s.st.cartItems {
		if it.CartID == cartID {
			total += it.Quantity
		}
	}
	return total, nil
}

func (r cartRepo) SetNumberOfItems(_ context.Context, cartID int64, n int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("Carts.SetNumberOfItems"); err != nil {
		return err
	}
	c, ok := s.st.carts[cartID]
	if !ok {
		return repository.ErrNotFound
	}
	c.NumberOfItems = n
	c.UpdatedAt = now()
	s.st.carts[cartID] = c
	return nil
}

// SetNumberOfItemsRaw overwrites the cached count without touching items, so tests
// can start from a drifted aggregate.
func (s *Store) SetNumberOfItemsRaw(cartID int64, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.st.carts[cartID]; ok {
		c.NumberOfItems = n
		s.st.carts[cartID] = c
	}
}
