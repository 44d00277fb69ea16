package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/warestock/order-service/internal/httperr"
	"github.com/warestock/order-service/internal/stock"
	"github.com/warestock/order-service/internal/stock/dto"
	"github.com/warestock/order-service/pkg/logger"
	"go.uber.org/zap"
)

type StockHandler struct {
	uc     stock.UseCase
	logger logger.ZapLogger
}

func NewStockHandler(uc stock.UseCase, log logger.ZapLogger) *StockHandler {
	return &StockHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *StockHandler) Register(r gin.IRoutes) {
	r.GET("/stocks", h.List)
	r.POST("/stocks", h.Create)
	r.GET("/stocks/:id", h.Get)
	r.PUT("/stocks/:id", h.Set)
	r.DELETE("/stocks/:id", h.Delete)
	r.POST("/stocks/:id/adjust", h.Adjust)
	r.GET("/stock-movements", h.ListMovements)
}

func (h *StockHandler) Create(c *gin.Context) {
	var req struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.CreateStock(c.Request.Context(), &dto.CreateStockInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.logger.Error("failed to create stock", zap.Error(err))
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, s)
}

func (h *StockHandler) Get(c *gin.Context) {
	s, err := h.uc.GetStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *StockHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	stocks, total, err := h.uc.ListStocks(c.Request.Context(), &dto.StockFilters{
		ProductID: c.Query("product"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		h.logger.Error("failed to list stocks", zap.Error(err))
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stocks": stocks, "total": total})
}

// Set overwrites the quantity for the stock's product. The :id here is the
// stock row id; the quantity applies to its product.
func (h *StockHandler) Set(c *gin.Context) {
	var req struct {
		Quantity int    `json:"quantity"`
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.GetStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	updated, err := h.uc.SetQuantity(c.Request.Context(), &dto.SetStockInput{
		ProductID: s.ProductID,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *StockHandler) Adjust(c *gin.Context) {
	var req struct {
		Delta  int    `json:"delta" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.GetStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	updated, err := h.uc.Adjust(c.Request.Context(), &dto.AdjustStockInput{
		ProductID: s.ProductID,
		Delta:     req.Delta,
		Reason:    req.Reason,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *StockHandler) Delete(c *gin.Context) {
	if err := h.uc.DeleteStock(c.Request.Context(), c.Param("id")); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StockHandler) ListMovements(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	movements, total, err := h.uc.ListMovements(c.Request.Context(), &dto.MovementFilters{
		ProductID:    c.Query("product"),
		MovementType: c.Query("type"),
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		h.logger.Error("failed to list stock movements", zap.Error(err))
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movements": movements, "total": total})
}
