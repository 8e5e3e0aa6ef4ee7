package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64
	Username  string
	Email     string
	Password  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileUpdate carries the user fields to change. Nil fields are left as they are.
type ProfileUpdate struct {
	Username *string
	Email    *string
	Password *string
}

func (u ProfileUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.Password == nil
}

type Seller struct {
	ID     int64
	UserID int64
	Rating int
}

type Customer struct {
	ID     int64
	UserID int64
}

type Admin struct {
	ID     int64
	UserID int64
}

type ProductType string

const (
	ProductTypeSingleCard    ProductType = "SingleCard"
	ProductTypeSealedProduct ProductType = "SealedProduct"
)

func (t ProductType) Valid() bool {
	return t == ProductTypeSingleCard || t == ProductTypeSealedProduct
}

type Set struct {
	ID          int64
	Name        string
	ReleaseDate time.Time
}

type Product struct {
	ID            int64
	Name          string
	Description   string
	ProductType   ProductType
	SetID         int64
	Set           *Set
	SingleCard    *SingleCard
	SealedProduct *SealedProduct
	Listings      []Listing
}

// DetailMatchesType reports whether the attached detail record agrees with ProductType.
func (p *Product) DetailMatchesType() bool {
	switch p.ProductType {
	case ProductTypeSingleCard:
		return p.SealedProduct == nil
	case ProductTypeSealedProduct:
		return p.SingleCard == nil
	}
	return false
}

type SingleCard struct {
	ProductID int64
	Condition string
	Rarity    string
	Type      string
	Category  string
}

type SealedProduct struct {
	ProductID int64
	Condition string
	Category  string
}

type Listing struct {
	ID        int64
	SellerID  int64
	ProductID int64
	Price     decimal.Decimal
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Cart struct {
	ID             int64
	CustomerID     int64
	CustomerUserID int64
	NumberOfItems  int
	Items          []CartItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TotalQuantity sums item quantities. A consistent cart has NumberOfItems equal to it.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

type CartItem struct {
	ID        int64
	CartID    int64
	ProductID int64
	ListingID *int64
	Quantity  int
	Product   *Product
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID         int64
	CustomerID int64
	SellerID   int64
	Cost       decimal.Decimal
	Items      []OrderItem
	CreatedAt  time.Time
}

type OrderItem struct {
	ID            int64
	OrderID       int64
	ProductID     int64
	Quantity      int
	PurchasePrice decimal.Decimal
	Product       *Product
}

// LineTotal is quantity times the purchase price snapshot.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PurchasePrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderEvent is published after an order commits.
type OrderEvent struct {
	OrderID    int64           `json:"order_id"`
	CustomerID int64           `json:"customer_id"`
	SellerID   int64           `json:"seller_id"`
	Cost       decimal.Decimal `json:"cost"`
	CreatedAt  time.Time       `json:"created_at"`
}
