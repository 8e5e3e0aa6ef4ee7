package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/cardmarket-api/internal/model"
	"github.com/flicky/cardmarket-api/internal/repository/repotest"
)

// fixture is a small catalog mirroring the seed data: one seller with listings
// for a single card and a sealed box, and one customer.
type fixture struct {
	store *repotest.Store

	users    *UserService
	carts    *CartService
	orders   *OrderService
	products *ProductService

	seller   *model.User
	customer *model.User

	card    *model.Product
	box     *model.Product
	orphan  *model.Product
	cardLst *model.Listing
	boxLst  *model.Listing
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repotest.New()

	f := &fixture{store: store}
	f.users = NewUserService(store, store.Users())
	f.users.hashCost = bcrypt.MinCost
	f.carts = NewCartService(store, store.Carts(), store.Products(), store.Users())
	f.orders = NewOrderService(store, store.Orders(), store.Products(), store.Users(), nil, nil)
	f.products = NewProductService(store, store.Products(), store.Users(), nil)

	var err error
	f.seller, err = f.users.CreateUser(ctx, CreateUserInput{
		Username: "misty_shop", Email: "misty@example.com", Password: "pw", Role: model.RoleSeller, SellerRating: 5,
	})
	require.NoError(t, err)
	f.customer, err = f.users.CreateUser(ctx, CreateUserInput{
		Username: "ash_ketchum", Email: "ash@example.com", Password: "pw", Role: model.RoleCustomer,
	})
	require.NoError(t, err)

	set := &model.Set{Name: "Base Set", ReleaseDate: time.Date(1999, 1, 9, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Products().CreateSet(ctx, set))

	f.card = &model.Product{
		Name: "Charizard", ProductType: model.ProductTypeSingleCard, SetID: set.ID,
		SingleCard: &model.SingleCard{Condition: "Near Mint", Rarity: "Holo Rare", Type: "Fire", Category: "Pokemon"},
	}
	require.NoError(t, store.Products().Create(ctx, f.card))
	f.box = &model.Product{
		Name: "Base Set Booster Pack", ProductType: model.ProductTypeSealedProduct, SetID: set.ID,
		SealedProduct: &model.SealedProduct{Condition: "Sealed", Category: "Booster Pack"},
	}
	require.NoError(t, store.Products().Create(ctx, f.box))
	f.orphan = &model.Product{
		Name: "Pikachu", ProductType: model.ProductTypeSingleCard, SetID: set.ID,
		SingleCard: &model.SingleCard{Condition: "Played", Rarity: "Common", Type: "Lightning", Category: "Pokemon"},
	}
	require.NoError(t, store.Products().Create(ctx, f.orphan))

	sellerID := f.seller.Role.Seller.ID
	f.cardLst = &model.Listing{SellerID: sellerID, ProductID: f.card.ID, Price: decimal.NewFromInt(700), Stock: 1}
	require.NoError(t, store.Products().CreateListing(ctx, f.cardLst))
	f.boxLst = &model.Listing{SellerID: sellerID, ProductID: f.box.ID, Price: decimal.NewFromInt(15), Stock: 24}
	require.NoError(t, store.Products().CreateListing(ctx, f.boxLst))

	return f
}

// requireConsistent asserts that the stored count equals the sum of item quantities.
func requireConsistent(t *testing.T, f *fixture, cartID int64) *model.Cart {
	t.Helper()
	cart, err := f.store.Carts().GetWithItems(context.Background(), cartID)
	require.NoError(t, err)
	require.NotNil(t, cart)
	require.Equal(t, cart.TotalQuantity(), cart.NumberOfItems)
	return cart
}

func ptr[T any](v T) *T { return &v }

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrderCreated(_ context.Context, e model.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}
