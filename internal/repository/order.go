package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/cardmarket-api/internal/model"
)

type OrderRepository interface {
	// Create inserts the order row followed by every item. Run it inside a
	// transaction so a failing item takes the order with it.
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]model.Order, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Order, error)
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) Create(ctx context.Context, order *model.Order) error {
	db := conn(ctx, r.pool)
	err := db.QueryRow(ctx,
		`INSERT INTO orders (customer_id, seller_id, cost, created_at)
		 VALUES ($1, $2, $3, NOW()) RETURNING id, created_at`,
		order.CustomerID, order.SellerID, order.Cost,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", classify(err))
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		err = db.QueryRow(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, purchase_price)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			order.Items[i].OrderID, order.Items[i].ProductID, order.Items[i].Quantity, order.Items[i].PurchasePrice,
		).Scan(&order.Items[i].ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", classify(err))
		}
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	orders, err := r.query(ctx, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

func (r *pgOrderRepo) List(ctx context.Context) ([]model.Order, error) {
	return r.query(ctx, ``)
}

func (r *pgOrderRepo) ListByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	return r.query(ctx, `WHERE customer_id = $1`, customerID)
}

func (r *pgOrderRepo) ListBySeller(ctx context.Context, sellerID int64) ([]model.Order, error) {
	return r.query(ctx, `WHERE seller_id = $1`, sellerID)
}

// query loads orders matching where together with their items and item products.
func (r *pgOrderRepo) query(ctx context.Context, where string, args ...any) ([]model.Order, error) {
	db := conn(ctx, r.pool)
	rows, err := db.Query(ctx,
		`SELECT id, customer_id, seller_id, cost, created_at FROM orders `+where+` ORDER BY created_at DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Order, error) {
		var o model.Order
		err := row.Scan(&o.ID, &o.CustomerID, &o.SellerID, &o.Cost, &o.CreatedAt)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	index := make(map[int64]int, len(orders))
	orderIDs := make([]int64, 0, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		orderIDs = append(orderIDs, o.ID)
	}

	irows, err := db.Query(ctx,
		`SELECT id, order_id, product_id, quantity, purchase_price FROM order_items
		 WHERE order_id = ANY($1) ORDER BY id`, orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	items, err := pgx.CollectRows(irows, func(row pgx.CollectableRow) (model.OrderItem, error) {
		var item model.OrderItem
		err := row.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.PurchasePrice)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan order item: %w", err)
	}

	productIDs := make([]int64, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := loadProducts(ctx, db, uniqueIDs(productIDs))
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		item.Product = products[item.ProductID]
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return orders, nil
}
