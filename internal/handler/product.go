package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/cardmarket-api/internal/dto"
	"github.com/flicky/cardmarket-api/internal/service"
)

type ProductHandler struct {
	products *service.ProductService
}

func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProductList(products))
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProductResponse(product))
}

func (h *ProductHandler) ListListings(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	listings, err := h.products.ListSellerListings(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListingList(listings))
}

func (h *ProductHandler) CreateListing(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req dto.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	listing, err := h.products.CreateListing(c.Request.Context(), userID, service.CreateListingInput{
		ProductID: req.ProductID,
		Price:     req.Price,
		Stock:     req.Stock,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewListingResponse(listing))
}

func (h *ProductHandler) UpdateListing(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	listingID, ok := pathID(c, "listingId")
	if !ok {
		return
	}
	var req dto.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	listing, err := h.products.UpdateListing(c.Request.Context(), userID, listingID, service.UpdateListingInput{
		Price: req.Price,
		Stock: req.Stock,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListingResponse(listing))
}

func (h *ProductHandler) DeleteListing(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	listingID, ok := pathID(c, "listingId")
	if !ok {
		return
	}
	if err := h.products.DeleteListing(c.Request.Context(), userID, listingID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
