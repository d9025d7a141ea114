package handlers

import (
	"net/http"

	"consult-service/internal/models"
	"consult-service/internal/services"
	"consult-service/utils"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService services.IPaymentService
	jwtService     services.IJWTService
}

func NewPaymentHandler(paymentService services.IPaymentService, jwtService services.IJWTService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		jwtService:     jwtService,
	}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.Engine) {
	payments := router.Group("/api/v1/payments")
	payments.Use(AuthMiddleware(h.jwtService))
	{
		payments.POST("/order", h.CreateOrder)
		payments.POST("/verify", h.VerifyPayment)
	}
}

func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", "invalid request body"))
		return
	}

	booking, orderID, err := h.paymentService.CreateOrder(c.Request.Context(), req.BookingID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(gin.H{
		"booking":  booking,
		"order_id": orderID,
	}))
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", "invalid request body"))
		return
	}

	booking, err := h.paymentService.VerifyPayment(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(booking))
}
