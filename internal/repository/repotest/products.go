package repotest

import (
	"context"
	"fmt"

	"github.com/flicky/cardmarket-api/internal/model"
	"github.com/flicky/cardmarket-api/internal/repository"
)

type productRepo struct{ s *Store }

// productLocked returns a copy of the product with set and listings attached.
func (s *Store) productLocked(id int64) *model.Product {
	p, ok := s.st.products[id]
	if !ok {
		return nil
	}
	if set, ok := s.st.sets[p.SetID]; ok {
		p.Set = &set
	}
	if p.SingleCard != nil {
		sc := *p.SingleCard
		p.SingleCard = &sc
	}
	if p.SealedProduct != nil {
		sp := *p.SealedProduct
		p.SealedProduct = &sp
	}
	p.Listings = []model.Listing{}
	for _, lid := range sortedKeys(s.st.listings) {
		if l := s.st.listings[lid]; l.ProductID == id {
			p.Listings = append(p.Listings, l)
		}
	}
	return &p
}

func (r productRepo) CreateSet(_ context.Context, set *model.Set) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	set.ID = s.nextID()
	s.st.sets[set.ID] = *set
	return nil
}

func (r productRepo) Create(_ context.Context, product *model.Product) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if !product.ProductType.Valid() || !product.DetailMatchesType() {
		return repository.ErrDetailMismatch
	}
	if _, ok := s.st.sets[product.SetID]; !ok {
		return fmt.Errorf("create product: %w: products_set_id_fkey", repository.ErrReferenceViolation)
	}
	product.ID = s.nextID()
	stored := *product
	stored.Set = nil
	stored.Listings = nil
	if product.SingleCard != nil {
		product.SingleCard.ProductID = product.ID
		sc := *product.SingleCard
		stored.SingleCard = &sc
	}
	if product.SealedProduct != nil {
		product.SealedProduct.ProductID = product.ID
		sp := *product.SealedProduct
		stored.SealedProduct = &sp
	}
	s.st.products[product.ID] = stored
	return nil
}

func (r productRepo) GetByID(_ context.Context, id int64) (*model.Product, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("Products.GetByID"); err != nil {
		return nil, err
	}
	return s.productLocked(id), nil
}

func (r productRepo) List(_ context.Context) ([]model.Product, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("Products.List"); err != nil {
		return nil, err
	}
	products := []model.Product{}
	for _, id := range sortedKeys(s.st.products) {
		products = append(products, *s.productLocked(id))
	}
	return products, nil
}

func (r productRepo) CreateListing(_ context.Context, listing *model.Listing) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.sellers[listing.SellerID]; !ok {
		return fmt.Errorf("create listing: %w: listings_seller_id_fkey", repository.ErrReferenceViolation)
	}
	if _, ok := s.st.products[listing.ProductID]; !ok {
		return fmt.Errorf("create listing: %w: listings_product_id_fkey", repository.ErrReferenceViolation)
	}
	listing.ID = s.nextID()
	listing.CreatedAt = now()
	listing.UpdatedAt = listing.CreatedAt
	s.st.listings[listing.ID] = *listing
	return nil
}

func (r productRepo) GetListing(_ context.Context, id int64) (*model.Listing, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.st.listings[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r productRepo) FirstListingForProduct(_ context.Context, productID int64) (*model.Listing, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sortedKeys(s.st.listings) {
		if l := s.st.listings[id]; l.ProductID == productID {
			return &l, nil
		}
	}
	return nil, nil
}

func (r productRepo) ListListingsBySeller(_ context.Context, sellerID int64, inStockOnly bool) ([]model.Listing, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var listings []model.Listing
	for _, id := range sortedKeys(s.st.listings) {
		l := s.st.listings[id]
		if l.SellerID != sellerID || (inStockOnly && l.Stock <= 0) {
			continue
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func (r productRepo) UpdateListing(_ context.Context, listing *model.Listing) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.st.listings[listing.ID]
	if !ok {
		return repository.ErrNotFound
	}
	l.Price = listing.Price
	l.Stock = listing.Stock
	l.UpdatedAt = now()
	listing.UpdatedAt = l.UpdatedAt
	s.st.listings[l.ID] = l
	return nil
}

func (r productRepo) DeleteListing(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.listings[id]; !ok {
		return repository.ErrNotFound
	}
	for iid, it := range s.st.cartItems {
		if it.ListingID != nil && *it.ListingID == id {
			it.ListingID = nil
			s.st.cartItems[iid] = it
		}
	}
	delete(s.st.listings, id)
	return nil
}
