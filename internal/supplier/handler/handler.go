package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/warestock/order-service/internal/httperr"
	"github.com/warestock/order-service/internal/supplier"
	"github.com/warestock/order-service/internal/supplier/dto"
	"github.com/warestock/order-service/pkg/logger"
	"go.uber.org/zap"
)

type SupplierHandler struct {
	uc     supplier.UseCase
	logger logger.ZapLogger
}

func NewSupplierHandler(uc supplier.UseCase, log logger.ZapLogger) *SupplierHandler {
	return &SupplierHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *SupplierHandler) Register(r gin.IRoutes) {
	r.GET("/suppliers", h.List)
	r.POST("/suppliers", h.Create)
	r.GET("/suppliers/:id", h.Get)
	r.PUT("/suppliers/:id", h.Update)
	r.DELETE("/suppliers/:id", h.Delete)
}

type supplierRequest struct {
	Name     string `json:"name" binding:"required"`
	Country  string `json:"country"`
	City     string `json:"city"`
	Street   string `json:"street"`
	Building string `json:"building"`
}

func (h *SupplierHandler) Create(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.CreateSupplier(c.Request.Context(), &dto.CreateSupplierInput{
		Name:     req.Name,
		Country:  req.Country,
		City:     req.City,
		Street:   req.Street,
		Building: req.Building,
	})
	if err != nil {
		h.logger.Error("failed to create supplier", zap.Error(err))
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, s)
}

func (h *SupplierHandler) Get(c *gin.Context) {
	s, err := h.uc.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SupplierHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	suppliers, total, err := h.uc.ListSuppliers(c.Request.Context(), &dto.SupplierFilters{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.logger.Error("failed to list suppliers", zap.Error(err))
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers, "total": total})
}

func (h *SupplierHandler) Update(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.UpdateSupplier(c.Request.Context(), &dto.UpdateSupplierInput{
		ID:       c.Param("id"),
		Name:     req.Name,
		Country:  req.Country,
		City:     req.City,
		Street:   req.Street,
		Building: req.Building,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

func (h *SupplierHandler) Delete(c *gin.Context) {
	if err := h.uc.DeleteSupplier(c.Request.Context(), c.Param("id")); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
