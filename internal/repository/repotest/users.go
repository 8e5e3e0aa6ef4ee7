package repotest

import (
	"context"
	"fmt"

	"github.com/flicky/cardmarket-api/internal/model"
	"github.com/flicky/cardmarket-api/internal/repository"
)

type userRepo struct{ s *Store }

// roleLocked rebuilds the role variant from the discriminator and role records.
func (s *Store) roleLocked(u model.User) model.Role {
	switch u.Role.Kind {
	case model.RoleSeller:
		for _, r := range s.st.sellers {
			if r.UserID == u.ID {
				return model.SellerRole(r)
			}
		}
	case model.RoleCustomer:
		for _, r := range s.st.customers {
			if r.UserID == u.ID {
				return model.CustomerRole(r)
			}
		}
	case model.RoleAdmin:
		for _, r := range s.st.admins {
			if r.UserID == u.ID {
				return model.AdminRole(r)
			}
		}
	}
	return model.NoRole()
}

func (r userRepo) Create(_ context.Context, user *model.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("Users.Create"); err != nil {
		return err
	}
	for _, u := range s.st.users {
		if u.Email == user.Email {
			return fmt.Errorf("create user: %w: users_email_key", repository.ErrUniqueViolation)
		}
	}
	user.ID = s.nextID()
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	user.Role = model.NoRole()
	s.st.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("Users.GetByID"); err != nil {
		return nil, err
	}
	u, ok := s.st.users[id]
	if !ok {
		return nil, nil
	}
	u.Role = s.roleLocked(u)
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sortedKeys(s.st.users) {
		u := s.st.users[id]
		if u.Email == email {
			u.Role = s.roleLocked(u)
			return &u, nil
		}
	}
	return nil, nil
}

func (r userRepo) List(_ context.Context) ([]model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []model.User
	for _, id := range sortedKeys(s.st.users) {
		u := s.st.users[id]
		u.Role = s.roleLocked(u)
		users = append(users, u)
	}
	return users, nil
}

func (r userRepo) UpdateProfile(_ context.Context, id int64, upd model.ProfileUpdate) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("Users.UpdateProfile"); err != nil {
		return err
	}
	u, ok := s.st.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if upd.Email != nil {
		for _, other := range s.st.users {
			if other.ID != id && other.Email == *upd.Email {
				return fmt.Errorf("update user: %w: users_email_key", repository.ErrUniqueViolation)
			}
		}
		u.Email = *upd.Email
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Password != nil {
		u.Password = *upd.Password
	}
	u.UpdatedAt = now()
	s.st.users[id] = u
	return nil
}

func (r userRepo) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, kind := range []model.RoleKind{model.RoleSeller, model.RoleCustomer, model.RoleAdmin} {
		if err := s.deleteRoleLocked(id, kind); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
	}
	delete(s.st.users, id)
	return nil
}

// deleteRoleLocked removes the user's record of kind together with the rows that
// cascade from it. Records still referenced by orders cannot be removed.
func (s *Store) deleteRoleLocked(userID int64, kind model.RoleKind) error {
	switch kind {
	case model.RoleSeller:
		for id, rec := range s.st.sellers {
			if rec.UserID != userID {
				continue
			}
			for _, o := range s.st.orders {
				if o.SellerID == id {
					return fmt.Errorf("%w: orders_seller_id_fkey", repository.ErrReferenceViolation)
				}
			}
			for lid, l := range s.st.listings {
				if l.SellerID != id {
					continue
				}
				for iid, it := range s.st.cartItems {
					if it.ListingID != nil && *it.ListingID == lid {
						it.ListingID = nil
						s.st.cartItems[iid] = it
					}
				}
				delete(s.st.listings, lid)
			}
			delete(s.st.sellers, id)
		}
	case model.RoleCustomer:
		for id, rec := range s.st.customers {
			if rec.UserID != userID {
				continue
			}
			for _, o := range s.st.orders {
				if o.CustomerID == id {
					return fmt.Errorf("%w: orders_customer_id_fkey", repository.ErrReferenceViolation)
				}
			}
			for cid, c := range s.st.carts {
				if c.CustomerID != id {
					continue
				}
				for iid, it := range s.st.cartItems {
					if it.CartID == cid {
						delete(s.st.cartItems, iid)
					}
				}
				delete(s.st.carts, cid)
			}
			delete(s.st.customers, id)
		}
	case model.RoleAdmin:
		for id, rec := range s.st.admins {
			if rec.UserID == userID {
				delete(s.st.admins, id)
			}
		}
	}
	return nil
}

func (r userRepo) ReplaceRole(_ context.Context, userID int64, kind model.RoleKind, sellerRating int) (model.Role, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range []model.RoleKind{model.RoleSeller, model.RoleCustomer, model.RoleAdmin} {
		if k == kind {
			continue
		}
		if err := s.deleteRoleLocked(userID, k); err != nil {
			return model.Role{}, fmt.Errorf("delete %s role: %w", k, err)
		}
	}

	// Injected after the deletes so a failure leaves a half-applied change behind
	// for the transaction to undo.
	if err := s.failure("Users.ReplaceRole"); err != nil {
		return model.Role{}, err
	}

	u, ok := s.st.users[userID]
	if !ok {
		return model.Role{}, repository.ErrNotFound
	}

	var role model.Role
	switch kind {
	case model.RoleSeller:
		rec, found := model.Seller{}, false
		for _, existing := range s.st.sellers {
			if existing.UserID == userID {
				rec, found = existing, true
			}
		}
		if !found {
			rec = model.Seller{ID: s.nextID(), UserID: userID, Rating: sellerRating}
			s.st.sellers[rec.ID] = rec
		}
		role = model.SellerRole(rec)
	case model.RoleCustomer:
		rec, found := model.Customer{}, false
		for _, existing := range s.st.customers {
			if existing.UserID == userID {
				rec, found = existing, true
			}
		}
		if !found {
			rec = model.Customer{ID: s.nextID(), UserID: userID}
			s.st.customers[rec.ID] = rec
		}
		role = model.CustomerRole(rec)
	case model.RoleAdmin:
		rec, found := model.Admin{}, false
		for _, existing := range s.st.admins {
			if existing.UserID == userID {
				rec, found = existing, true
			}
		}
		if !found {
			rec = model.Admin{ID: s.nextID(), UserID: userID}
			s.st.admins[rec.ID] = rec
		}
		role = model.AdminRole(rec)
	case model.RoleNone:
		role = model.NoRole()
	default:
		return model.Role{}, fmt.Errorf("replace role: unknown kind %q", kind)
	}

	u.Role = model.Role{Kind: kind}
	u.UpdatedAt = now()
	s.st.users[userID] = u
	return role, nil
}

func (r userRepo) GetCustomerByUserID(_ context.Context, userID int64) (*model.Customer, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.st.customers {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return nil, nil
}

func (r userRepo) GetSellerByUserID(_ context.Context, userID int64) (*model.Seller, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sel := range s.st.sellers {
		if sel.UserID == userID {
			return &sel, nil
		}
	}
	return nil, nil
}
