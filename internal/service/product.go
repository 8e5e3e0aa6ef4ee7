package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/flicky/cardmarket-api/internal/model"
	"github.com/flicky/cardmarket-api/internal/repository"
)

// ProductService serves the catalog and the listings sellers manage on it.
// Catalog reads are cached; listing writes drop the affected product entries.
type ProductService struct {
	tx       repository.Transactor
	products repository.ProductRepository
	accounts repository.AccountResolver
	cache    *Cache
}

func NewProductService(
	tx repository.Transactor,
	products repository.ProductRepository,
	accounts repository.AccountResolver,
	cache *Cache,
) *ProductService {
	return &ProductService{tx: tx, products: products, accounts: accounts, cache: cache}
}

type CreateListingInput struct {
	ProductID int64
	Price     decimal.Decimal
	Stock     int
}

// UpdateListingInput changes only the fields that are set.
type UpdateListingInput struct {
	Price *decimal.Decimal
	Stock *int
}

func (s *ProductService) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if s.cache.get(ctx, productListKey, &products) {
		return products, nil
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	s.cache.set(ctx, productListKey, products)
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var cached model.Product
	if s.cache.get(ctx, productKey(id), &cached) {
		return &cached, nil
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	s.cache.set(ctx, productKey(id), product)
	return product, nil
}

// ListSellerListings returns the in-stock listings of the seller behind userID.
func (s *ProductService) ListSellerListings(ctx context.Context, userID int64) ([]model.Listing, error) {
	seller, err := s.seller(ctx, userID)
	if err != nil {
		return nil, err
	}
	listings, err := s.products.ListListingsBySeller(ctx, seller.ID, true)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

func (s *ProductService) CreateListing(ctx context.Context, userID int64, in CreateListingInput) (*model.Listing, error) {
	if err := validateListing(in.Price, in.Stock); err != nil {
		return nil, err
	}

	var listing *model.Listing
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		seller, err := s.seller(ctx, userID)
		if err != nil {
			return err
		}
		product, err := s.products.GetByID(ctx, in.ProductID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return ErrProductNotFound
		}

		l := &model.Listing{SellerID: seller.ID, ProductID: in.ProductID, Price: in.Price, Stock: in.Stock}
		if err := s.products.CreateListing(ctx, l); err != nil {
			if errors.Is(err, repository.ErrReferenceViolation) {
				return ErrProductNotFound
			}
			return err
		}
		listing = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dropProduct(ctx, listing.ProductID)
	return listing, nil
}

func (s *ProductService) UpdateListing(ctx context.Context, userID, listingID int64, in UpdateListingInput) (*model.Listing, error) {
	var listing *model.Listing
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		l, err := s.ownedListing(ctx, userID, listingID)
		if err != nil {
			return err
		}
		if in.Price != nil {
			l.Price = *in.Price
		}
		if in.Stock != nil {
			l.Stock = *in.Stock
		}
		if err := validateListing(l.Price, l.Stock); err != nil {
			return err
		}
		if err := s.products.UpdateListing(ctx, l); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		listing = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dropProduct(ctx, listing.ProductID)
	return listing, nil
}

func (s *ProductService) DeleteListing(ctx context.Context, userID, listingID int64) error {
	var productID int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		l, err := s.ownedListing(ctx, userID, listingID)
		if err != nil {
			return err
		}
		if err := s.products.DeleteListing(ctx, l.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		productID = l.ProductID
		return nil
	})
	if err != nil {
		return err
	}

	s.dropProduct(ctx, productID)
	return nil
}

func (s *ProductService) seller(ctx context.Context, userID int64) (*model.Seller, error) {
	seller, err := s.accounts.GetSellerByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve seller: %w", err)
	}
	if seller == nil {
		return nil, ErrSellerNotFound
	}
	return seller, nil
}

// ownedListing hides listings of other sellers behind ErrListingNotFound.
func (s *ProductService) ownedListing(ctx context.Context, userID, listingID int64) (*model.Listing, error) {
	seller, err := s.seller(ctx, userID)
	if err != nil {
		return nil, err
	}
	l, err := s.products.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if l == nil || l.SellerID != seller.ID {
		return nil, ErrListingNotFound
	}
	return l, nil
}

func (s *ProductService) dropProduct(ctx context.Context, productID int64) {
	_ = s.cache.Delete(ctx, productListKey, productKey(productID))
}

func validateListing(price decimal.Decimal, stock int) error {
	if price.IsNegative() {
		return ErrInvalidPrice
	}
	if stock < 0 {
		return ErrInvalidStock
	}
	return nil
}
