package handlers

import (
	"net/http"

	"consult-service/internal/models"
	"consult-service/internal/services"
	"consult-service/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService services.IUserService
}

func NewAuthHandler(userService services.IUserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

func (h *AuthHandler) RegisterRoutes(router *gin.Engine) {
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/otp/request", h.RequestOTP)
		auth.POST("/otp/confirm", h.ConfirmOTP)
	}
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", "invalid request body"))
		return
	}

	user, token, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(authResponse{User: user, Token: token}))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", "invalid request body"))
		return
	}

	user, token, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(authResponse{User: user, Token: token}))
}

func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req models.OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", "invalid request body"))
		return
	}

	if err := h.userService.RequestOTP(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(gin.H{"message": "otp sent"}))
}

func (h *AuthHandler) ConfirmOTP(c *gin.Context) {
	var req models.OTPConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", "invalid request body"))
		return
	}

	user, token, err := h.userService.ConfirmOTP(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(authResponse{User: user, Token: token}))
}
