package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/cardmarket-api/internal/dto"
	"github.com/flicky/cardmarket-api/internal/middleware"
	"github.com/flicky/cardmarket-api/internal/service"
)

type CartHandler struct {
	carts *service.CartService
}

func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// ownedCart reads :cartId and checks that the caller's customer record owns it.
func (h *CartHandler) ownedCart(c *gin.Context) (int64, bool) {
	cartID, ok := pathID(c, "cartId")
	if !ok {
		return 0, false
	}
	if middleware.IsAdmin(c) {
		return cartID, true
	}
	if err := h.carts.Authorize(c.Request.Context(), cartID, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return 0, false
	}
	return cartID, true
}

func (h *CartHandler) Get(c *gin.Context) {
	cartID, ok := h.ownedCart(c)
	if !ok {
		return
	}
	cart, err := h.carts.GetCart(c.Request.Context(), cartID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) GetForCustomer(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	cart, err := h.carts.GetOrCreateCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) AddItemForCustomer(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cart, err := h.carts.AddItemForUser(c.Request.Context(), userID, addItemInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCartResponse(cart))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	cartID, ok := h.ownedCart(c)
	if !ok {
		return
	}
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cart, err := h.carts.AddItem(c.Request.Context(), cartID, addItemInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCartResponse(cart))
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	cartID, ok := h.ownedCart(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	item, err := h.carts.UpdateItem(c.Request.Context(), cartID, itemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartItemResponse(item))
}

func (h *CartHandler) DeleteItem(c *gin.Context) {
	cartID, ok := h.ownedCart(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	if err := h.carts.RemoveItem(c.Request.Context(), cartID, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) Clear(c *gin.Context) {
	cartID, ok := h.ownedCart(c)
	if !ok {
		return
	}
	if err := h.carts.Clear(c.Request.Context(), cartID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func addItemInput(req dto.AddCartItemRequest) service.AddItemInput {
	return service.AddItemInput{ProductID: req.ProductID, Quantity: req.Quantity, ListingID: req.ListingID}
}
