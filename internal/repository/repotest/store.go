// Package repotest provides an in-memory implementation of the repository
// interfaces. Transactions snapshot the whole state and restore it when the
// callback fails, so rollback behaviour can be asserted without PostgreSQL.
package repotest

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/flicky/cardmarket-api/internal/model"
	"github.com/flicky/cardmarket-api/internal/repository"
)

type state struct {
	seq        int64
	users      map[int64]model.User
	sellers    map[int64]model.Seller
	customers  map[int64]model.Customer
	admins     map[int64]model.Admin
	sets       map[int64]model.Set
	products   map[int64]model.Product
	listings   map[int64]model.Listing
	carts      map[int64]model.Cart
	cartItems  map[int64]model.CartItem
	orders     map[int64]model.Order
	orderItems map[int64]model.OrderItem
}

func (s state) clone() state {
	return state{
		seq:        s.seq,
		users:      maps.Clone(s.users),
		sellers:    maps.Clone(s.sellers),
		customers:  maps.Clone(s.customers),
		admins:     maps.Clone(s.admins),
		sets:       maps.Clone(s.sets),
		products:   maps.Clone(s.products),
		listings:   maps.Clone(s.listings),
		carts:      maps.Clone(s.carts),
		cartItems:  maps.Clone(s.cartItems),
		orders:     maps.Clone(s.orders),
		orderItems: maps.Clone(s.orderItems),
	}
}

type Store struct {
	mu       sync.Mutex
	st       state
	failures map[string]error

	Commits   int
	Rollbacks int
}

func New() *Store {
	return &Store{
		st: state{
			users:      map[int64]model.User{},
			sellers:    map[int64]model.Seller{},
			customers:  map[int64]model.Customer{},
			admins:     map[int64]model.Admin{},
			sets:       map[int64]model.Set{},
			products:   map[int64]model.Product{},
			listings:   map[int64]model.Listing{},
			carts:      map[int64]model.Cart{},
			cartItems:  map[int64]model.CartItem{},
			orders:     map[int64]model.Order{},
			orderItems: map[int64]model.OrderItem{},
		},
		failures: map[string]error{},
	}
}

// FailOn makes every later call of op return err. Op names are "<Repo>.<Method>",
// e.g. "Users.ReplaceRole" or "Orders.Create".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]error{}
}

func (s *Store) failure(op string) error {
	return s.failures[op]
}

func (s *Store) nextID() int64 {
	s.st.seq++
	return s.st.seq
}

type txKey struct{}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.Commits++
	s.mu.Unlock()
	return nil
}

func (s *Store) Users() repository.UserRepository       { return userRepo{s} }
func (s *Store) Products() repository.ProductRepository { return productRepo{s} }
func (s *Store) Carts() repository.CartRepository       { return cartRepo{s} }
func (s *Store) Orders() repository.OrderRepository     { return orderRepo{s} }

// CountRoleRecords reports how many seller, customer and admin rows reference the user.
func (s *Store) CountRoleRecords(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.st.sellers {
		if r.UserID == userID {
			n++
		}
	}
	for _, r := range s.st.customers {
		if r.UserID == userID {
			n++
		}
	}
	for _, r := range s.st.admins {
		if r.UserID == userID {
			n++
		}
	}
	return n
}

// CountCarts reports how many carts belong to the customer.
func (s *Store) CountCarts(customerID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.st.carts {
		if c.CustomerID == customerID {
			n++
		}
	}
	return n
}

// CountCartItems reports how many item rows belong to the cart.
func (s *Store) CountCartItems(cartID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.st.cartItems {
		if it.CartID == cartID {
			n++
		}
	}
	return n
}

// CountOrders reports how many orders are stored.
func (s *Store) CountOrders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.orders)
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func now() time.Time { return time.Now().UTC() }
