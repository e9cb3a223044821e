package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gsh519/wedding-snap/internal/middleware"
	"github.com/gsh519/wedding-snap/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
