// Command seed loads the demo catalog: three users, three sets, seven products,
// four listings, one cart and one order.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/cardmarket-api/internal/config"
	"github.com/flicky/cardmarket-api/internal/logger"
	"github.com/flicky/cardmarket-api/internal/model"
	"github.com/flicky/cardmarket-api/internal/repository"
	"github.com/flicky/cardmarket-api/internal/service"
)

type deps struct {
	tx       repository.Transactor
	users    repository.UserRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	orders   repository.OrderRepository
}

type summary struct {
	Admin, Seller, Customer *model.User
	Products                []*model.Product
	Listings                int
	Cart                    *model.Cart
	Order                   *model.Order
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := repository.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal("connect to database", "error", err)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatal("apply schema", "error", err)
	}

	res, err := seed(ctx, deps{
		tx:       repository.NewTransactor(pool),
		users:    repository.NewUserRepository(pool),
		products: repository.NewProductRepository(pool),
		carts:    repository.NewCartRepository(pool),
		orders:   repository.NewOrderRepository(pool),
	})
	if err != nil {
		log.Fatal("seed", "error", err)
	}

	log.Info("seed OK",
		"admin", res.Admin.Email,
		"seller", res.Seller.Email,
		"customer", res.Customer.Email,
		"products", len(res.Products),
		"listings", res.Listings,
		"cart_id", res.Cart.ID,
		"order_id", res.Order.ID,
		"order_cost", res.Order.Cost.String(),
	)
}

func seed(ctx context.Context, d deps) (*summary, error) {
	users := service.NewUserService(d.tx, d.users)
	carts := service.NewCartService(d.tx, d.carts, d.products, d.users)
	orders := service.NewOrderService(d.tx, d.orders, d.products, d.users, nil, nil)

	res := &summary{}
	var err error
	if res.Admin, err = users.CreateUser(ctx, service.CreateUserInput{
		Username: "admin", Email: "admin@example.com", Password: "admin123", Role: model.RoleAdmin,
	}); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	if res.Seller, err = users.CreateUser(ctx, service.CreateUserInput{
		Username: "misty_shop", Email: "misty@example.com", Password: "watergym", Role: model.RoleSeller, SellerRating: 5,
	}); err != nil {
		return nil, fmt.Errorf("create seller: %w", err)
	}
	if res.Customer, err = users.CreateUser(ctx, service.CreateUserInput{
		Username: "ash_ketchum", Email: "ash@example.com", Password: "pikachu", Role: model.RoleCustomer,
	}); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	err = d.tx.WithinTx(ctx, func(ctx context.Context) error {
		sets := []*model.Set{
			{Name: "Base Set", ReleaseDate: date(1999, 1, 9)},
			{Name: "Jungle", ReleaseDate: date(1999, 6, 16)},
			{Name: "Fossil", ReleaseDate: date(1999, 10, 10)},
		}
		for _, s := range sets {
			if err := d.products.CreateSet(ctx, s); err != nil {
				return err
			}
		}
		base, jungle, fossil := sets[0].ID, sets[1].ID, sets[2].ID

		res.Products = []*model.Product{
			card("Charizard 4/102", base, "Near Mint", "Fire"),
			card("Blastoise 2/102", base, "Lightly Played", "Water"),
			card("Vaporeon 12/64", jungle, "Near Mint", "Water"),
			card("Dragonite 4/62", fossil, "Near Mint", "Dragon"),
			card("Zapdos 15/62", fossil, "Moderately Played", "Electric"),
			sealed("Base Set Booster Pack", "Factory-sealed 11-card booster", base, "Booster Pack"),
			sealed("Jungle Booster Box", "Factory-sealed 36 booster packs", jungle, "Booster Box"),
		}
		for _, p := range res.Products {
			if err := d.products.Create(ctx, p); err != nil {
				return err
			}
		}

		specs := []struct {
			product *model.Product
			stock   int
			price   int64
		}{
			{res.Products[0], 1, 700},
			{res.Products[1], 2, 350},
			{res.Products[5], 24, 15},
			{res.Products[6], 3, 450},
		}
		for _, s := range specs {
			l := &model.Listing{
				SellerID:  res.Seller.Role.Seller.ID,
				ProductID: s.product.ID,
				Price:     decimal.NewFromInt(s.price),
				Stock:     s.stock,
			}
			if err := d.products.CreateListing(ctx, l); err != nil {
				return err
			}
			res.Listings++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create catalog: %w", err)
	}

	booster, charizard := res.Products[5], res.Products[0]
	if _, err := carts.AddItemForUser(ctx, res.Customer.ID, service.AddItemInput{ProductID: booster.ID, Quantity: 5}); err != nil {
		return nil, fmt.Errorf("fill cart: %w", err)
	}
	if res.Cart, err = carts.AddItemForUser(ctx, res.Customer.ID, service.AddItemInput{ProductID: charizard.ID, Quantity: 1}); err != nil {
		return nil, fmt.Errorf("fill cart: %w", err)
	}

	sellerUserID := res.Seller.ID
	if res.Order, err = orders.CreateOrder(ctx, res.Customer.ID, service.CreateOrderInput{
		SellerUserID: &sellerUserID,
		Items: []service.OrderLine{
			{ProductID: booster.ID, Quantity: 5, PurchasePrice: decimal.NewFromInt(15)},
			{ProductID: charizard.ID, Quantity: 1, PurchasePrice: decimal.NewFromInt(700)},
		},
	}); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return res, nil
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func card(name string, setID int64, condition, typ string) *model.Product {
	return &model.Product{
		Name:        name,
		Description: "Holo Rare",
		ProductType: model.ProductTypeSingleCard,
		SetID:       setID,
		SingleCard:  &model.SingleCard{Condition: condition, Rarity: "Rare Holo", Type: typ, Category: "Pokemon"},
	}
}

func sealed(name, description string, setID int64, category string) *model.Product {
	return &model.Product{
		Name:          name,
		Description:   description,
		ProductType:   model.ProductTypeSealedProduct,
		SetID:         setID,
		SealedProduct: &model.SealedProduct{Condition: "Sealed", Category: category},
	}
}
