package repository

import (
	"context"
	"fmt"

	"github.com/flicky/cardmarket-api/internal/model"
)

// loadProducts reads the given products with their set, detail record and listings.
// Ids without a product are absent from the result.
func loadProducts(ctx context.Context, db DBTX, ids []int64) (map[int64]*model.Product, error) {
	out := make(map[int64]*model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := db.Query(ctx,
		`SELECT p.id, p.name, p.description, p.product_type, p.set_id, st.name, st.release_date,
			sc.condition, sc.rarity, sc.type, sc.category,
			sp.condition, sp.category
		 FROM products p
		 JOIN sets st ON st.id = p.set_id
		 LEFT JOIN single_cards sc ON sc.product_id = p.id
		 LEFT JOIN sealed_products sp ON sp.product_id = p.id
		 WHERE p.id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p                                    model.Product
			set                                  model.Set
			scCond, scRarity, scType, scCategory *string
			spCond, spCategory                   *string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ProductType, &p.SetID, &set.Name, &set.ReleaseDate,
			&scCond, &scRarity, &scType, &scCategory, &spCond, &spCategory); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		set.ID = p.SetID
		p.Set = &set
		if scCond != nil {
			p.SingleCard = &model.SingleCard{
				ProductID: p.ID, Condition: *scCond, Rarity: *scRarity, Type: *scType, Category: *scCategory,
			}
		}
		if spCond != nil {
			p.SealedProduct = &model.SealedProduct{ProductID: p.ID, Condition: *spCond, Category: *spCategory}
		}
		p.Listings = []model.Listing{}
		out[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	lrows, err := db.Query(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE product_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	defer lrows.Close()

	for lrows.Next() {
		l, err := scanListing(lrows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		if p, ok := out[l.ProductID]; ok {
			p.Listings = append(p.Listings, *l)
		}
	}
	return out, lrows.Err()
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
