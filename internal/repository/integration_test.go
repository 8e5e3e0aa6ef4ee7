package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/cardmarket-api/internal/model"
)

type world struct {
	users    UserRepository
	products ProductRepository
	carts    CartRepository
	orders   OrderRepository
	tx       Transactor

	seller, customer *model.User
	product          *model.Product
	listing          *model.Listing
}

func newWorld(t *testing.T) *world {
	t.Helper()
	resetDB(t)
	ctx := context.Background()
	w := &world{
		users:    NewUserRepository(testPool),
		products: NewProductRepository(testPool),
		carts:    NewCartRepository(testPool),
		orders:   NewOrderRepository(testPool),
		tx:       NewTransactor(testPool),
	}

	w.seller = &model.User{Username: "misty_shop", Email: "misty@example.com", Password: "hashed"}
	require.NoError(t, w.users.Create(ctx, w.seller))
	role, err := w.users.ReplaceRole(ctx, w.seller.ID, model.RoleSeller, 5)
	require.NoError(t, err)
	w.seller.Role = role

	w.customer = &model.User{Username: "ash_ketchum", Email: "ash@example.com", Password: "hashed"}
	require.NoError(t, w.users.Create(ctx, w.customer))
	role, err = w.users.ReplaceRole(ctx, w.customer.ID, model.RoleCustomer, 0)
	require.NoError(t, err)
	w.customer.Role = role

	set := &model.Set{Name: "Base Set", ReleaseDate: time.Date(1999, 1, 9, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, w.products.CreateSet(ctx, set))
	w.product = &model.Product{
		Name: "Charizard 4/102", Description: "Holo Rare", ProductType: model.ProductTypeSingleCard, SetID: set.ID,
		SingleCard: &model.SingleCard{Condition: "Near Mint", Rarity: "Rare Holo", Type: "Fire", Category: "Pokemon"},
	}
	require.NoError(t, w.products.Create(ctx, w.product))
	w.listing = &model.Listing{SellerID: w.seller.Role.Seller.ID, ProductID: w.product.ID, Price: decimal.NewFromInt(700), Stock: 1}
	require.NoError(t, w.products.CreateListing(ctx, w.listing))
	return w
}

func TestUserRepo_ReplaceRole(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	again, err := w.users.ReplaceRole(ctx, w.seller.ID, model.RoleSeller, 1)
	require.NoError(t, err)
	require.NotNil(t, again.Seller)
	assert.Equal(t, w.seller.Role.Seller.ID, again.Seller.ID)

	admin, err := w.users.ReplaceRole(ctx, w.customer.ID, model.RoleAdmin, 0)
	require.NoError(t, err)
	assert.True(t, admin.Valid())

	got, err := w.users.GetByID(ctx, w.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role.Kind)
	assert.True(t, got.Role.Valid())
	customer, err := w.users.GetCustomerByUserID(ctx, w.customer.ID)
	require.NoError(t, err)
	assert.Nil(t, customer)

	none, err := w.users.ReplaceRole(ctx, w.customer.ID, model.RoleNone, 0)
	require.NoError(t, err)
	assert.Equal(t, model.RoleNone, none.Kind)
	got, err = w.users.GetByID(ctx, w.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NoRole(), got.Role)

	_, err = w.users.ReplaceRole(ctx, 9999, model.RoleAdmin, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_UniqueEmail(t *testing.T) {
	w := newWorld(t)

	err := w.users.Create(context.Background(), &model.User{Username: "dup", Email: "ash@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUniqueViolation)
}

func TestTransactor_RollsBack(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := w.tx.WithinTx(ctx, func(ctx context.Context) error {
		name := "renamed"
		if err := w.users.UpdateProfile(ctx, w.customer.ID, model.ProfileUpdate{Username: &name}); err != nil {
			return err
		}
		if _, err := w.users.ReplaceRole(ctx, w.customer.ID, model.RoleSeller, 0); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := w.users.GetByID(ctx, w.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "ash_ketchum", got.Username)
	assert.Equal(t, model.RoleCustomer, got.Role.Kind)
	require.NotNil(t, got.Role.Customer)
	assert.Equal(t, w.customer.Role.Customer.ID, got.Role.Customer.ID)
}

func TestCartRepo_Aggregate(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	customerID := w.customer.Role.Customer.ID

	require.NoError(t, w.carts.Create(ctx, customerID))
	require.NoError(t, w.carts.Create(ctx, customerID))
	cart, err := w.carts.GetByCustomerID(ctx, customerID)
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, w.customer.ID, cart.CustomerUserID)

	total, err := w.carts.SumQuantities(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	for _, q := range []int{5, 1} {
		require.NoError(t, w.carts.AddItem(ctx, &model.CartItem{CartID: cart.ID, ProductID: w.product.ID, ListingID: &w.listing.ID, Quantity: q}))
	}
	total, err = w.carts.SumQuantities(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.NoError(t, w.carts.SetNumberOfItems(ctx, cart.ID, total))

	full, err := w.carts.GetWithItems(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, full.NumberOfItems)
	require.Len(t, full.Items, 2)
	require.NotNil(t, full.Items[0].Product)
	assert.Len(t, full.Items[0].Product.Listings, 1)

	_, err = w.carts.UpdateItemQuantity(ctx, cart.ID, 9999, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, w.carts.DeleteItem(ctx, cart.ID, 9999), ErrNotFound)
	assert.ErrorIs(t, w.carts.SetNumberOfItems(ctx, 9999, 0), ErrNotFound)

	require.NoError(t, w.carts.ClearItems(ctx, cart.ID))
	total, err = w.carts.SumQuantities(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestOrderRepo_CreateAndRoleInUse(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	first, err := w.products.FirstListingForProduct(ctx, w.product.ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, w.listing.ID, first.ID)

	order := &model.Order{
		CustomerID: w.customer.Role.Customer.ID,
		SellerID:   first.SellerID,
		Cost:       decimal.NewFromInt(700),
		Items:      []model.OrderItem{{ProductID: w.product.ID, Quantity: 1, PurchasePrice: decimal.NewFromInt(700)}},
	}
	require.NoError(t, w.orders.Create(ctx, order))

	got, err := w.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Cost.Equal(decimal.NewFromInt(700)))
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, "Charizard 4/102", got.Items[0].Product.Name)

	bySeller, err := w.orders.ListBySeller(ctx, first.SellerID)
	require.NoError(t, err)
	assert.Len(t, bySeller, 1)

	// listing stock is untouched by orders
	l, err := w.products.GetListing(ctx, w.listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Stock)

	_, err = w.users.ReplaceRole(ctx, w.seller.ID, model.RoleCustomer, 0)
	assert.ErrorIs(t, err, ErrReferenceViolation)
}

func TestProductRepo_DetailMismatch(t *testing.T) {
	w := newWorld(t)

	err := w.products.Create(context.Background(), &model.Product{
		Name: "Broken", ProductType: model.ProductTypeSingleCard, SetID: w.product.SetID,
		SealedProduct: &model.SealedProduct{Condition: "Sealed", Category: "Booster Box"},
	})
	assert.ErrorIs(t, err, ErrDetailMismatch)
}
