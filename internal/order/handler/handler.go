package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/warestock/order-service/internal/auth"
	"github.com/warestock/order-service/internal/httperr"
	"github.com/warestock/order-service/internal/order"
	"github.com/warestock/order-service/internal/order/dto"
	"github.com/warestock/order-service/pkg/logger"
	"go.uber.org/zap"
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *OrderHandler) Register(r gin.IRoutes) {
	r.GET("/orders", h.List)
	r.POST("/orders", h.Create)
	r.GET("/orders/:id", h.Get)
	r.POST("/orders/:id/reorder", h.Reorder)
}

type orderItemRequest struct {
	ProductID     string          `json:"product_id" binding:"required"`
	Quantity      int             `json:"quantity" binding:"required"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items" binding:"required"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := &dto.CreateOrderInput{BuyerID: auth.GetUserID(c)}
	for _, item := range req.Items {
		input.Items = append(input.Items, dto.OrderItemInput{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			PurchasePrice: item.PurchasePrice,
		})
	}

	o, err := h.uc.CreateOrder(c.Request.Context(), input)
	if err != nil {
		h.logger.Error("failed to create order", zap.Error(err))
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, o)
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.uc.GetOrder(c.Request.Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	orders, total, err := h.uc.ListOrders(c.Request.Context(), auth.GetUserID(c), &dto.OrderFilters{
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.logger.Error("failed to list orders", zap.Error(err))
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": total})
}

func (h *OrderHandler) Reorder(c *gin.Context) {
	o, err := h.uc.Reorder(c.Request.Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}
