package handlers

import (
	"errors"
	"net/http"
	"strings"

	"consult-service/internal/models"
	"consult-service/internal/services"
	"consult-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// AuthMiddleware validates the Bearer token and stores the caller's
// identity on the gin context.
func AuthMiddleware(jwtService services.IJWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				utils.CreateErrorResponse("UNAUTHORIZED", "missing bearer token"))
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				utils.CreateErrorResponse("UNAUTHORIZED", "invalid or expired token"))
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, string(claims.Role))
		c.Next()
	}
}

// currentUserID reads the authenticated caller's id from the context.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(ContextUserID)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized,
			utils.CreateErrorResponse("UNAUTHORIZED", "invalid user identity"))
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps the service error taxonomy onto HTTP statuses with the
// standard envelope.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, utils.CreateErrorResponse("NOT_FOUND", err.Error()))
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, utils.CreateErrorResponse("FORBIDDEN", err.Error()))
	case errors.Is(err, models.ErrInvalidState):
		c.JSON(http.StatusConflict, utils.CreateErrorResponse("INVALID_STATE", err.Error()))
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", err.Error()))
	case errors.Is(err, models.ErrQuotaExceeded):
		c.JSON(http.StatusTooManyRequests, utils.CreateErrorResponse("QUOTA_EXCEEDED", err.Error()))
	case errors.Is(err, models.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("INVALID_SIGNATURE", err.Error()))
	case errors.Is(err, models.ErrStorageFailure):
		c.JSON(http.StatusBadGateway, utils.CreateErrorResponse("STORAGE_FAILURE", err.Error()))
	case errors.Is(err, models.ErrGatewayError):
		c.JSON(http.StatusBadGateway, utils.CreateErrorResponse("GATEWAY_ERROR", err.Error()))
	default:
		c.JSON(http.StatusInternalServerError,
			utils.CreateErrorResponse("INTERNAL_ERROR", "an unexpected error occurred"))
	}
}
