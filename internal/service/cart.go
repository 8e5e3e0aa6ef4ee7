package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/flicky/cardmarket-api/internal/model"
	"github.com/flicky/cardmarket-api/internal/repository"
)

// CartService keeps Cart.NumberOfItems equal to the sum of its item quantities.
// Every mutation of the item set recomputes the count from an aggregate query in
// the same transaction as the mutation; the count is never adjusted in place.
type CartService struct {
	tx       repository.Transactor
	carts    repository.CartRepository
	products repository.ProductRepository
	accounts repository.AccountResolver
}

func NewCartService(
	tx repository.Transactor,
	carts repository.CartRepository,
	products repository.ProductRepository,
	accounts repository.AccountResolver,
) *CartService {
	return &CartService{tx: tx, carts: carts, products: products, accounts: accounts}
}

type AddItemInput struct {
	ProductID int64
	Quantity  int
	// ListingID is optional; when set it must reference a listing of ProductID.
	ListingID *int64
}

// GetOrCreateCart returns the cart of the customer behind userID, creating an
// empty one on first access. Calling it repeatedly yields the same cart.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID int64) (*model.Cart, error) {
	var cart *model.Cart
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		header, err := s.findOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		cart, err = s.load(ctx, header.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, cartID int64) (*model.Cart, error) {
	return s.load(ctx, cartID)
}

// Authorize checks that the cart belongs to the customer record of userID.
func (s *CartService) Authorize(ctx context.Context, cartID, userID int64) error {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return ErrCartNotFound
	}
	if cart.CustomerUserID != userID {
		return ErrForbidden
	}
	return nil
}

// AddItem inserts a new line. Two calls for the same product produce two lines.
func (s *CartService) AddItem(ctx context.Context, cartID int64, in AddItemInput) (*model.Cart, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	var cart *model.Cart
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.addItem(ctx, cartID, in); err != nil {
			return err
		}
		var err error
		cart, err = s.load(ctx, cartID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItemForUser resolves the customer's cart, creating it when missing, and adds
// the line to it in one transaction.
func (s *CartService) AddItemForUser(ctx context.Context, userID int64, in AddItemInput) (*model.Cart, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	var cart *model.Cart
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		header, err := s.findOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.addItem(ctx, header.ID, in); err != nil {
			return err
		}
		cart, err = s.load(ctx, header.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) UpdateItem(ctx context.Context, cartID, itemID int64, quantity int) (*model.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	var item *model.CartItem
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.carts.UpdateItemQuantity(ctx, cartID, itemID, quantity)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCartItemNotFound
			}
			return fmt.Errorf("update cart item: %w", err)
		}
		return s.recompute(ctx, cartID)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, cartID, itemID int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.carts.DeleteItem(ctx, cartID, itemID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCartItemNotFound
			}
			return fmt.Errorf("delete cart item: %w", err)
		}
		return s.recompute(ctx, cartID)
	})
}

// Clear deletes every item and zeroes the count. The cart row itself stays.
func (s *CartService) Clear(ctx context.Context, cartID int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.carts.ClearItems(ctx, cartID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		if err := s.carts.SetNumberOfItems(ctx, cartID, 0); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCartNotFound
			}
			return fmt.Errorf("reset number of items: %w", err)
		}
		return nil
	})
}

func (s *CartService) findOrCreate(ctx context.Context, userID int64) (*model.Cart, error) {
	customer, err := s.accounts.GetCustomerByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	cart, err := s.carts.GetByCustomerID(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart != nil {
		return cart, nil
	}

	if err := s.carts.Create(ctx, customer.ID); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	cart, err = s.carts.GetByCustomerID(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return nil, fmt.Errorf("cart for customer %d missing after create", customer.ID)
	}
	return cart, nil
}

func (s *CartService) addItem(ctx context.Context, cartID int64, in AddItemInput) error {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return ErrCartNotFound
	}

	product, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}

	if in.ListingID != nil {
		listing, err := s.products.GetListing(ctx, *in.ListingID)
		if err != nil {
			return fmt.Errorf("get listing: %w", err)
		}
		if listing == nil {
			return ErrListingNotFound
		}
		if listing.ProductID != in.ProductID {
			return ErrListingMismatch
		}
	}

	item := &model.CartItem{CartID: cartID, ProductID: in.ProductID, ListingID: in.ListingID, Quantity: in.Quantity}
	if err := s.carts.AddItem(ctx, item); err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return s.recompute(ctx, cartID)
}

func (s *CartService) recompute(ctx context.Context, cartID int64) error {
	total, err := s.carts.SumQuantities(ctx, cartID)
	if err != nil {
		return fmt.Errorf("sum cart quantities: %w", err)
	}
	if err := s.carts.SetNumberOfItems(ctx, cartID, total); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCartNotFound
		}
		return fmt.Errorf("set number of items: %w", err)
	}
	return nil
}

func (s *CartService) load(ctx context.Context, cartID int64) (*model.Cart, error) {
	cart, err := s.carts.GetWithItems(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return cart, nil
}
