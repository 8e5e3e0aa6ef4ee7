package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/cardmarket-api/internal/model"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// --- Users ---

type CreateUserRequest struct {
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	Role         string `json:"role"`
	SellerRating int    `json:"seller_rating"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// OptionalRole tells an absent "role" field apart from an explicit null.
// Set is false when the field was missing; a null value sets it with RoleNone.
type OptionalRole struct {
	Set  bool
	Kind model.RoleKind
}

func (r *OptionalRole) UnmarshalJSON(data []byte) error {
	r.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		r.Kind = model.RoleNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	kind, err := model.ParseRoleKind(s)
	if err != nil {
		return err
	}
	r.Kind = kind
	return nil
}

type UpdateUserRequest struct {
	Username     *string      `json:"username"`
	Email        *string      `json:"email" binding:"omitempty,email"`
	Password     *string      `json:"password"`
	Role         OptionalRole `json:"role"`
	SellerRating int          `json:"seller_rating"`
}

type SetRoleRequest struct {
	Role         OptionalRole `json:"role"`
	SellerRating int          `json:"seller_rating"`
}

type SellerResponse struct {
	ID     int64 `json:"id"`
	Rating int   `json:"rating"`
}

type AccountResponse struct {
	ID int64 `json:"id"`
}

type UserResponse struct {
	ID        int64            `json:"id"`
	Username  string           `json:"username"`
	Email     string           `json:"email"`
	Role      *string          `json:"role"`
	Seller    *SellerResponse  `json:"seller,omitempty"`
	Customer  *AccountResponse `json:"customer,omitempty"`
	Admin     *AccountResponse `json:"admin,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func NewUserResponse(u *model.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Role.Kind != model.RoleNone {
		kind := string(u.Role.Kind)
		resp.Role = &kind
	}
	switch {
	case u.Role.Seller != nil:
		resp.Seller = &SellerResponse{ID: u.Role.Seller.ID, Rating: u.Role.Seller.Rating}
	case u.Role.Customer != nil:
		resp.Customer = &AccountResponse{ID: u.Role.Customer.ID}
	case u.Role.Admin != nil:
		resp.Admin = &AccountResponse{ID: u.Role.Admin.ID}
	}
	return resp
}

func NewUserList(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// --- Products ---

type SetResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ReleaseDate time.Time `json:"release_date"`
}

type SingleCardResponse struct {
	Condition string `json:"condition"`
	Rarity    string `json:"rarity"`
	Type      string `json:"type"`
	Category  string `json:"category"`
}

type SealedProductResponse struct {
	Condition string `json:"condition"`
	Category  string `json:"category"`
}

type ListingResponse struct {
	ID        int64           `json:"id"`
	SellerID  int64           `json:"seller_id"`
	ProductID int64           `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ProductResponse struct {
	ID            int64                  `json:"id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	ProductType   string                 `json:"product_type"`
	Set           *SetResponse           `json:"set,omitempty"`
	SingleCard    *SingleCardResponse    `json:"single_card,omitempty"`
	SealedProduct *SealedProductResponse `json:"sealed_product,omitempty"`
	Listings      []ListingResponse      `json:"listings"`
}

type CreateListingRequest struct {
	ProductID int64           `json:"product_id" binding:"required"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
}

type UpdateListingRequest struct {
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock"`
}

func NewListingResponse(l *model.Listing) ListingResponse {
	return ListingResponse{
		ID:        l.ID,
		SellerID:  l.SellerID,
		ProductID: l.ProductID,
		Price:     l.Price,
		Stock:     l.Stock,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func NewListingList(listings []model.Listing) []ListingResponse {
	out := make([]ListingResponse, 0, len(listings))
	for i := range listings {
		out = append(out, NewListingResponse(&listings[i]))
	}
	return out
}

func NewProductResponse(p *model.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ProductType: string(p.ProductType),
		Listings:    NewListingList(p.Listings),
	}
	if p.Set != nil {
		resp.Set = &SetResponse{ID: p.Set.ID, Name: p.Set.Name, ReleaseDate: p.Set.ReleaseDate}
	}
	if sc := p.SingleCard; sc != nil {
		resp.SingleCard = &SingleCardResponse{Condition: sc.Condition, Rarity: sc.Rarity, Type: sc.Type, Category: sc.Category}
	}
	if sp := p.SealedProduct; sp != nil {
		resp.SealedProduct = &SealedProductResponse{Condition: sp.Condition, Category: sp.Category}
	}
	return resp
}

func NewProductList(products []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, NewProductResponse(&products[i]))
	}
	return out
}

func newProductPtr(p *model.Product) *ProductResponse {
	if p == nil {
		return nil
	}
	resp := NewProductResponse(p)
	return &resp
}

// --- Carts ---

type AddCartItemRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
	ListingID *int64 `json:"listing_id"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type CartItemResponse struct {
	ID        int64            `json:"id"`
	ProductID int64            `json:"product_id"`
	ListingID *int64           `json:"listing_id"`
	Quantity  int              `json:"quantity"`
	Product   *ProductResponse `json:"product,omitempty"`
}

type CartResponse struct {
	ID            int64              `json:"id"`
	CustomerID    int64              `json:"customer_id"`
	NumberOfItems int                `json:"number_of_items"`
	Items         []CartItemResponse `json:"items"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func NewCartItemResponse(it *model.CartItem) CartItemResponse {
	return CartItemResponse{
		ID:        it.ID,
		ProductID: it.ProductID,
		ListingID: it.ListingID,
		Quantity:  it.Quantity,
		Product:   newProductPtr(it.Product),
	}
}

func NewCartResponse(c *model.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(c.Items))
	for i := range c.Items {
		items = append(items, NewCartItemResponse(&c.Items[i]))
	}
	return CartResponse{
		ID:            c.ID,
		CustomerID:    c.CustomerID,
		NumberOfItems: c.NumberOfItems,
		Items:         items,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// --- Orders ---

type OrderLineRequest struct {
	ProductID     int64           `json:"product_id" binding:"required"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

type CreateOrderRequest struct {
	SellerUserID *int64             `json:"seller_user_id"`
	Items        []OrderLineRequest `json:"items" binding:"dive"`
}

type OrderItemResponse struct {
	ID            int64            `json:"id"`
	ProductID     int64            `json:"product_id"`
	Quantity      int              `json:"quantity"`
	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	Product       *ProductResponse `json:"product,omitempty"`
}

type OrderResponse struct {
	ID         int64               `json:"id"`
	CustomerID int64               `json:"customer_id"`
	SellerID   int64               `json:"seller_id"`
	Cost       decimal.Decimal     `json:"cost"`
	Items      []OrderItemResponse `json:"items"`
	CreatedAt  time.Time           `json:"created_at"`
}

func NewOrderResponse(o *model.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ID:            it.ID,
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			PurchasePrice: it.PurchasePrice,
			Product:       newProductPtr(it.Product),
		})
	}
	return OrderResponse{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		SellerID:   o.SellerID,
		Cost:       o.Cost,
		Items:      items,
		CreatedAt:  o.CreatedAt,
	}
}

func NewOrderList(orders []model.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}
