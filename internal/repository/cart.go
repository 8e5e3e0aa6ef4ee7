package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/cardmarket-api/internal/model"
)

type CartRepository interface {
	// Create inserts an empty cart for the customer unless one exists already.
	Create(ctx context.Context, customerID int64) error
	GetByID(ctx context.Context, cartID int64) (*model.Cart, error)
	GetByCustomerID(ctx context.Context, customerID int64) (*model.Cart, error)
	// GetWithItems loads the cart with items, each item's product and the product's listings.
	GetWithItems(ctx context.Context, cartID int64) (*model.Cart, error)
	AddItem(ctx context.Context, item *model.CartItem) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) (*model.CartItem, error)
	DeleteItem(ctx context.Context, cartID, itemID int64) error
	ClearItems(ctx context.Context, cartID int64) error
	SumQuantities(ctx context.Context, cartID int64) (int, error)
	SetNumberOfItems(ctx context.Context, cartID int64, n int) error
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

const cartColumns = `c.id, c.customer_id, cu.user_id, c.number_of_items, c.created_at, c.updated_at`

func scanCart(row pgx.Row) (*model.Cart, error) {
	cart := &model.Cart{}
	err := row.Scan(&cart.ID, &cart.CustomerID, &cart.CustomerUserID, &cart.NumberOfItems, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *pgCartRepo) Create(ctx context.Context, customerID int64) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO carts (customer_id, number_of_items, created_at, updated_at)
		 VALUES ($1, 0, NOW(), NOW())
		 ON CONFLICT (customer_id) DO NOTHING`,
		customerID,
	)
	if err != nil {
		return fmt.Errorf("create cart: %w", classify(err))
	}
	return nil
}

// GetByID loads the cart row without items.
func (r *pgCartRepo) GetByID(ctx context.Context, cartID int64) (*model.Cart, error) {
	cart, err := scanCart(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+cartColumns+` FROM carts c JOIN customers cu ON cu.id = c.customer_id WHERE c.id = $1`,
		cartID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) GetByCustomerID(ctx context.Context, customerID int64) (*model.Cart, error) {
	cart, err := scanCart(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+cartColumns+` FROM carts c JOIN customers cu ON cu.id = c.customer_id WHERE c.customer_id = $1`,
		customerID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart by customer: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) GetWithItems(ctx context.Context, cartID int64) (*model.Cart, error) {
	cart, err := r.GetByID(ctx, cartID)
	if err != nil || cart == nil {
		return nil, err
	}
	db := conn(ctx, r.pool)

	rows, err := db.Query(ctx,
		`SELECT id, cart_id, product_id, listing_id, quantity, created_at, updated_at
		 FROM cart_items WHERE cart_id = $1 ORDER BY id`, cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	cart.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CartItem, error) {
		var item model.CartItem
		err := row.Scan(&item.ID, &item.CartID, &item.ProductID, &item.ListingID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan cart item: %w", err)
	}

	ids := make([]int64, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := loadProducts(ctx, db, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	for i := range cart.Items {
		cart.Items[i].Product = products[cart.Items[i].ProductID]
	}
	return cart, nil
}

func (r *pgCartRepo) AddItem(ctx context.Context, item *model.CartItem) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO cart_items (cart_id, product_id, listing_id, quantity, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 RETURNING id, created_at, updated_at`,
		item.CartID, item.ProductID, item.ListingID, item.Quantity,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("add cart item: %w", classify(err))
	}
	return nil
}

func (r *pgCartRepo) UpdateItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) (*model.CartItem, error) {
	item := &model.CartItem{}
	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE cart_items SET quantity = $3, updated_at = NOW()
		 WHERE id = $1 AND cart_id = $2
		 RETURNING id, cart_id, product_id, listing_id, quantity, created_at, updated_at`,
		itemID, cartID, quantity,
	).Scan(&item.ID, &item.CartID, &item.ProductID, &item.ListingID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return item, nil
}

func (r *pgCartRepo) DeleteItem(ctx context.Context, cartID, itemID int64) error {
	ct, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgCartRepo) ClearItems(ctx context.Context, cartID int64) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *pgCartRepo) SumQuantities(ctx context.Context, cartID int64) (int, error) {
	var total int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE cart_id = $1`, cartID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum cart quantities: %w", err)
	}
	return total, nil
}

func (r *pgCartRepo) SetNumberOfItems(ctx context.Context, cartID int64, n int) error {
	ct, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE carts SET number_of_items = $2, updated_at = NOW() WHERE id = $1`, cartID, n,
	)
	if err != nil {
		return fmt.Errorf("set number of items: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
