package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/cardmarket-api/internal/model"
)

var ErrDetailMismatch = errors.New("product detail does not match product type")

type ProductRepository interface {
	CreateSet(ctx context.Context, set *model.Set) error
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)

	CreateListing(ctx context.Context, listing *model.Listing) error
	GetListing(ctx context.Context, id int64) (*model.Listing, error)
	// FirstListingForProduct returns the oldest listing for the product, or nil.
	FirstListingForProduct(ctx context.Context, productID int64) (*model.Listing, error)
	ListListingsBySeller(ctx context.Context, sellerID int64, inStockOnly bool) ([]model.Listing, error)
	UpdateListing(ctx context.Context, listing *model.Listing) error
	DeleteListing(ctx context.Context, id int64) error
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

func (r *pgProductRepo) CreateSet(ctx context.Context, set *model.Set) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO sets (name, release_date) VALUES ($1, $2) RETURNING id`,
		set.Name, set.ReleaseDate,
	).Scan(&set.ID)
	if err != nil {
		return fmt.Errorf("create set: %w", err)
	}
	return nil
}

// Create inserts the product and its detail record. Callers that need both rows
// to appear together run it inside a transaction.
func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	if !product.ProductType.Valid() || !product.DetailMatchesType() {
		return ErrDetailMismatch
	}
	db := conn(ctx, r.pool)

	err := db.QueryRow(ctx,
		`INSERT INTO products (name, description, product_type, set_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		product.Name, product.Description, product.ProductType, product.SetID,
	).Scan(&product.ID)
	if err != nil {
		return fmt.Errorf("create product: %w", classify(err))
	}

	if sc := product.SingleCard; sc != nil {
		sc.ProductID = product.ID
		_, err = db.Exec(ctx,
			`INSERT INTO single_cards (product_id, condition, rarity, type, category) VALUES ($1, $2, $3, $4, $5)`,
			sc.ProductID, sc.Condition, sc.Rarity, sc.Type, sc.Category,
		)
		if err != nil {
			return fmt.Errorf("create single card detail: %w", err)
		}
	}
	if sp := product.SealedProduct; sp != nil {
		sp.ProductID = product.ID
		_, err = db.Exec(ctx,
			`INSERT INTO sealed_products (product_id, condition, category) VALUES ($1, $2, $3)`,
			sp.ProductID, sp.Condition, sp.Category,
		)
		if err != nil {
			return fmt.Errorf("create sealed product detail: %w", err)
		}
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	products, err := loadProducts(ctx, conn(ctx, r.pool), []int64{id})
	if err != nil {
		return nil, err
	}
	return products[id], nil
}

func (r *pgProductRepo) List(ctx context.Context) ([]model.Product, error) {
	db := conn(ctx, r.pool)
	rows, err := db.Query(ctx, `SELECT id FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan product id: %w", err)
	}

	byID, err := loadProducts(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	products := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, *p)
		}
	}
	return products, nil
}

const listingColumns = `id, seller_id, product_id, price, stock, created_at, updated_at`

func scanListing(row pgx.Row) (*model.Listing, error) {
	l := &model.Listing{}
	if err := row.Scan(&l.ID, &l.SellerID, &l.ProductID, &l.Price, &l.Stock, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *pgProductRepo) CreateListing(ctx context.Context, listing *model.Listing) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO listings (seller_id, product_id, price, stock, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING id, created_at, updated_at`,
		listing.SellerID, listing.ProductID, listing.Price, listing.Stock,
	).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create listing: %w", classify(err))
	}
	return nil
}

func (r *pgProductRepo) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	l, err := scanListing(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

func (r *pgProductRepo) FirstListingForProduct(ctx context.Context, productID int64) (*model.Listing, error) {
	l, err := scanListing(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE product_id = $1 ORDER BY id LIMIT 1`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get first listing: %w", err)
	}
	return l, nil
}

func (r *pgProductRepo) ListListingsBySeller(ctx context.Context, sellerID int64, inStockOnly bool) ([]model.Listing, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE seller_id = $1 AND (NOT $2 OR stock > 0)
		 ORDER BY id`,
		sellerID, inStockOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

func (r *pgProductRepo) UpdateListing(ctx context.Context, listing *model.Listing) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE listings SET price = $2, stock = $3, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		listing.ID, listing.Price, listing.Stock,
	).Scan(&listing.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}

func (r *pgProductRepo) DeleteListing(ctx context.Context, id int64) error {
	ct, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", classify(err))
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
