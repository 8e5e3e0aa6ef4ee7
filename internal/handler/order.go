package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/cardmarket-api/internal/dto"
	"github.com/flicky/cardmarket-api/internal/middleware"
	"github.com/flicky/cardmarket-api/internal/model"
	"github.com/flicky/cardmarket-api/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) Create(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	lines := make([]service.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, service.OrderLine{
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			PurchasePrice: it.PurchasePrice,
		})
	}
	order, err := h.orders.CreateOrder(c.Request.Context(), userID, service.CreateOrderInput{
		SellerUserID: req.SellerUserID,
		Items:        lines,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewOrderResponse(order))
}

func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderList(orders))
}

func (h *OrderHandler) ListForCustomer(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	orders, err := h.orders.ListByCustomerUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderList(orders))
}

func (h *OrderHandler) ListForSeller(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	orders, err := h.orders.ListBySellerUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderList(orders))
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var (
		order *model.Order
		err   error
	)
	if middleware.IsAdmin(c) {
		order, err = h.orders.GetOrder(c.Request.Context(), id)
	} else {
		order, err = h.orders.GetOrderForUser(c.Request.Context(), id, middleware.GetUserID(c))
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}
