package model

import "fmt"

type RoleKind string

const (
	RoleNone     RoleKind = ""
	RoleSeller   RoleKind = "seller"
	RoleCustomer RoleKind = "customer"
	RoleAdmin    RoleKind = "admin"
)

func ParseRoleKind(s string) (RoleKind, error) {
	switch RoleKind(s) {
	case RoleNone, RoleSeller, RoleCustomer, RoleAdmin:
		return RoleKind(s), nil
	}
	return RoleNone, fmt.Errorf("unknown role %q", s)
}

func (k RoleKind) String() string {
	if k == RoleNone {
		return "none"
	}
	return string(k)
}

// Role is the user's single role. At most one of Seller, Customer and Admin is set,
// and it is the one named by Kind.
type Role struct {
	Kind     RoleKind
	Seller   *Seller
	Customer *Customer
	Admin    *Admin
}

func NoRole() Role { return Role{} }

func SellerRole(s Seller) Role { return Role{Kind: RoleSeller, Seller: &s} }

func CustomerRole(c Customer) Role { return Role{Kind: RoleCustomer, Customer: &c} }

func AdminRole(a Admin) Role { return Role{Kind: RoleAdmin, Admin: &a} }

// Valid reports whether exactly the record matching Kind is present.
func (r Role) Valid() bool {
	switch r.Kind {
	case RoleNone:
		return r.Seller == nil && r.Customer == nil && r.Admin == nil
	case RoleSeller:
		return r.Seller != nil && r.Customer == nil && r.Admin == nil
	case RoleCustomer:
		return r.Customer != nil && r.Seller == nil && r.Admin == nil
	case RoleAdmin:
		return r.Admin != nil && r.Seller == nil && r.Customer == nil
	}
	return false
}
