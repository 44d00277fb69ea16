package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/warestock/order-service/internal/account"
	"github.com/warestock/order-service/internal/account/dto"
	"github.com/warestock/order-service/internal/auth"
	"github.com/warestock/order-service/internal/httperr"
	"github.com/warestock/order-service/pkg/logger"
	"go.uber.org/zap"
)

type AccountHandler struct {
	uc     account.UseCase
	logger logger.ZapLogger
}

func NewAccountHandler(uc account.UseCase, log logger.ZapLogger) *AccountHandler {
	return &AccountHandler{
		uc:     uc,
		logger: log,
	}
}

// RegisterPublic wires the routes that need no token.
func (h *AccountHandler) RegisterPublic(r gin.IRoutes) {
	r.POST("/register", h.Register)
	r.GET("/verify-email/:token", h.VerifyEmail)
	r.POST("/login", h.Login)
}

// RegisterProtected wires the routes behind the auth middleware.
func (h *AccountHandler) RegisterProtected(r gin.IRoutes) {
	r.GET("/me", h.Me)
}

type registerRequest struct {
	Username   string `json:"username" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	MiddleName string `json:"middle_name"`
	Age        int    `json:"age" binding:"required,gt=0"`
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.uc.Register(c.Request.Context(), &dto.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		Age:        req.Age,
	})
	if err != nil {
		h.logger.Error("failed to register user", zap.Error(err))
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "user created, check your email for the confirmation link",
		"user_id": profile.UserID,
	})
}

func (h *AccountHandler) VerifyEmail(c *gin.Context) {
	apiToken, err := h.uc.Verify(c.Request.Context(), c.Param("token"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "email verified",
		"token":   apiToken,
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.uc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AccountHandler) Me(c *gin.Context) {
	info, err := h.uc.GetUserInfo(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
