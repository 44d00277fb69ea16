package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/warestock/order-service/internal/category"
	"github.com/warestock/order-service/internal/category/dto"
	"github.com/warestock/order-service/internal/httperr"
	"github.com/warestock/order-service/pkg/logger"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CategoryHandler) Register(r gin.IRoutes) {
	r.GET("/categories", h.List)
	r.POST("/categories", h.Create)
	r.GET("/categories/:id", h.Get)
	r.PUT("/categories/:id", h.Update)
	r.DELETE("/categories/:id", h.Delete)
}

type categoryRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parent_id"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cat, err := h.uc.CreateCategory(c.Request.Context(), &dto.CreateCategoryInput{
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		h.logger.Error("failed to create category", zap.Error(err))
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	cat, err := h.uc.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	filters := &dto.CategoryFilters{
		Page:     page,
		PageSize: pageSize,
	}
	if parent, ok := c.GetQuery("parent"); ok {
		filters.ParentID = &parent
	}

	categories, total, err := h.uc.ListCategories(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list categories", zap.Error(err))
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories, "total": total})
}

func (h *CategoryHandler) Update(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cat, err := h.uc.UpdateCategory(c.Request.Context(), &dto.UpdateCategoryInput{
		ID:       c.Param("id"),
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.uc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
