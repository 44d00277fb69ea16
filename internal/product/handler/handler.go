package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/warestock/order-service/internal/httperr"
	"github.com/warestock/order-service/internal/product"
	"github.com/warestock/order-service/internal/product/dto"
	"github.com/warestock/order-service/pkg/logger"
	"go.uber.org/zap"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) Register(r gin.IRoutes) {
	r.GET("/products", h.List)
	r.POST("/products", h.Create)
	r.GET("/products/:id", h.Get)
	r.PUT("/products/:id", h.Update)
	r.DELETE("/products/:id", h.Delete)
}

type productRequest struct {
	Name       string          `json:"name" binding:"required"`
	SupplierID string          `json:"supplier_id" binding:"required"`
	CategoryID string          `json:"category_id" binding:"required"`
	Price      decimal.Decimal `json:"price"`
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.uc.CreateProduct(c.Request.Context(), &dto.CreateProductInput{
		Name:       req.Name,
		SupplierID: req.SupplierID,
		CategoryID: req.CategoryID,
		Price:      req.Price,
	})
	if err != nil {
		h.logger.Error("failed to create product", zap.Error(err))
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.uc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	filters := &dto.ProductFilters{
		CategoryID: c.Query("category"),
		SupplierID: c.Query("supplier"),
		Page:       page,
		PageSize:   pageSize,
	}
	if v := c.Query("min_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			filters.MinPrice = &d
		}
	}
	if v := c.Query("max_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			filters.MaxPrice = &d
		}
	}

	products, total, err := h.uc.ListProducts(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products, "total": total})
}

func (h *ProductHandler) Update(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.uc.UpdateProduct(c.Request.Context(), &dto.UpdateProductInput{
		ID:         c.Param("id"),
		Name:       req.Name,
		SupplierID: req.SupplierID,
		CategoryID: req.CategoryID,
		Price:      req.Price,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.uc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
