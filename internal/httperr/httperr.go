package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/warestock/order-service/internal/apperrors"
)

// Respond maps a domain error to an HTTP status with a structured body.
func Respond(c *gin.Context, err error) {
	var insufficientStock *apperrors.InsufficientStockError
	switch {
	case errors.As(err, &insufficientStock):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      insufficientStock.Error(),
			"product_id": insufficientStock.ProductID,
			"available":  insufficientStock.Available,
			"requested":  insufficientStock.Requested,
		})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidQuantity),
		errors.Is(err, apperrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidOrExpiredToken):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrAccountInactive):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		// Datastore and other unexpected failures stay generic.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
