package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/cardmarket-api/internal/model"
)

// AccountResolver maps a raw user id onto the user's customer or seller record.
type AccountResolver interface {
	GetCustomerByUserID(ctx context.Context, userID int64) (*model.Customer, error)
	GetSellerByUserID(ctx context.Context, userID int64) (*model.Seller, error)
}

type UserRepository interface {
	AccountResolver
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, id int64, upd model.ProfileUpdate) error
	Delete(ctx context.Context, id int64) error
	// ReplaceRole makes kind the user's only role. A record of the same kind that
	// already exists is kept as is; records of every other kind are removed.
	ReplaceRole(ctx context.Context, userID int64, kind model.RoleKind, sellerRating int) (model.Role, error)
}

type pgUserRepo struct{ pool *pgxpool.Pool }

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepo{pool: pool}
}

const userColumns = `u.id, u.username, u.email, u.password_hash, COALESCE(u.role, ''), u.created_at, u.updated_at,
	s.id, s.rating, c.id, a.id`

const userFrom = `FROM users u
	LEFT JOIN sellers s ON s.user_id = u.id
	LEFT JOIN customers c ON c.user_id = u.id
	LEFT JOIN admins a ON a.user_id = u.id`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u                           model.User
		kind                        string
		sellerID, customerID, admID *int64
		sellerRating                *int64
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &kind, &u.CreatedAt, &u.UpdatedAt,
		&sellerID, &sellerRating, &customerID, &admID)
	if err != nil {
		return nil, err
	}
	switch model.RoleKind(kind) {
	case model.RoleSeller:
		if sellerID != nil {
			rating := 0
			if sellerRating != nil {
				rating = int(*sellerRating)
			}
			u.Role = model.SellerRole(model.Seller{ID: *sellerID, UserID: u.ID, Rating: rating})
		}
	case model.RoleCustomer:
		if customerID != nil {
			u.Role = model.CustomerRole(model.Customer{ID: *customerID, UserID: u.ID})
		}
	case model.RoleAdmin:
		if admID != nil {
			u.Role = model.AdminRole(model.Admin{ID: *admID, UserID: u.ID})
		}
	}
	return &u, nil
}

func (r *pgUserRepo) Create(ctx context.Context, user *model.User) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 RETURNING id, created_at, updated_at`,
		user.Username, user.Email, user.Password,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", classify(err))
	}
	user.Role = model.NoRole()
	return nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := scanUser(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userColumns+` `+userFrom+` WHERE u.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userColumns+` `+userFrom+` WHERE u.email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+userColumns+` `+userFrom+` ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *pgUserRepo) UpdateProfile(ctx context.Context, id int64, upd model.ProfileUpdate) error {
	ct, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE users SET
			username = COALESCE($2, username),
			email = COALESCE($3, email),
			password_hash = COALESCE($4, password_hash),
			updated_at = NOW()
		 WHERE id = $1`,
		id, upd.Username, upd.Email, upd.Password,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", classify(err))
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgUserRepo) Delete(ctx context.Context, id int64) error {
	ct, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", classify(err))
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var roleTables = map[model.RoleKind]string{
	model.RoleSeller:   "sellers",
	model.RoleCustomer: "customers",
	model.RoleAdmin:    "admins",
}

func (r *pgUserRepo) ReplaceRole(ctx context.Context, userID int64, kind model.RoleKind, sellerRating int) (model.Role, error) {
	db := conn(ctx, r.pool)

	for k, table := range roleTables {
		if k == kind {
			continue
		}
		if _, err := db.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, userID); err != nil {
			return model.Role{}, fmt.Errorf("delete %s role: %w", k, classify(err))
		}
	}

	var role model.Role
	switch kind {
	case model.RoleSeller:
		s := model.Seller{UserID: userID}
		err := db.QueryRow(ctx,
			`INSERT INTO sellers (user_id, rating) VALUES ($1, $2)
			 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
			 RETURNING id, rating`,
			userID, sellerRating,
		).Scan(&s.ID, &s.Rating)
		if err != nil {
			return model.Role{}, fmt.Errorf("upsert seller: %w", classify(err))
		}
		role = model.SellerRole(s)
	case model.RoleCustomer:
		c := model.Customer{UserID: userID}
		err := db.QueryRow(ctx,
			`INSERT INTO customers (user_id) VALUES ($1)
			 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
			 RETURNING id`,
			userID,
		).Scan(&c.ID)
		if err != nil {
			return model.Role{}, fmt.Errorf("upsert customer: %w", classify(err))
		}
		role = model.CustomerRole(c)
	case model.RoleAdmin:
		a := model.Admin{UserID: userID}
		err := db.QueryRow(ctx,
			`INSERT INTO admins (user_id) VALUES ($1)
			 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
			 RETURNING id`,
			userID,
		).Scan(&a.ID)
		if err != nil {
			return model.Role{}, fmt.Errorf("upsert admin: %w", classify(err))
		}
		role = model.AdminRole(a)
	case model.RoleNone:
		role = model.NoRole()
	default:
		return model.Role{}, fmt.Errorf("replace role: unknown kind %q", kind)
	}

	var discriminator *string
	if kind != model.RoleNone {
		s := string(kind)
		discriminator = &s
	}
	ct, err := db.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, userID, discriminator)
	if err != nil {
		return model.Role{}, fmt.Errorf("set role discriminator: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return model.Role{}, ErrNotFound
	}
	return role, nil
}

func (r *pgUserRepo) GetCustomerByUserID(ctx context.Context, userID int64) (*model.Customer, error) {
	c := &model.Customer{}
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, user_id FROM customers WHERE user_id = $1`, userID,
	).Scan(&c.ID, &c.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *pgUserRepo) GetSellerByUserID(ctx context.Context, userID int64) (*model.Seller, error) {
	s := &model.Seller{}
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, user_id, rating FROM sellers WHERE user_id = $1`, userID,
	).Scan(&s.ID, &s.UserID, &s.Rating)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get seller: %w", err)
	}
	return s, nil
}
