package handlers

import (
	"net/http"
	"strconv"

	"consult-service/internal/models"
	"consult-service/internal/services"
	"consult-service/utils"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageService services.IMessageService
	jwtService     services.IJWTService
}

func NewMessageHandler(messageService services.IMessageService, jwtService services.IJWTService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		jwtService:     jwtService,
	}
}

func (h *MessageHandler) RegisterRoutes(router *gin.Engine) {
	messages := router.Group("/api/v1/messages")
	messages.Use(AuthMiddleware(h.jwtService))
	{
		messages.POST("", h.SendMessage)
		messages.POST("/:id/reply", h.ReplyMessage)
		messages.GET("/thread/:subscription_id", h.GetThread)
		messages.POST("/attachments/:subscription_id", h.UploadAttachment)
	}
}

// UploadAttachment stores a voice/video file for a direct message and
// returns the media_url to send with it.
func (h *MessageHandler) UploadAttachment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	subscriptionID, ok := pathUUID(c, "subscription_id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", "media file is required"))
		return
	}
	upload, file, ok := openUpload(c, fileHeader)
	if !ok {
		return
	}
	defer file.Close()

	mediaURL, err := h.messageService.UploadAttachment(c.Request.Context(), userID, subscriptionID, upload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(gin.H{"media_url": mediaURL}))
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", "invalid request body"))
		return
	}

	message, err := h.messageService.SendMessage(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(message))
}

func (h *MessageHandler) ReplyMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	messageID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req models.ReplyMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", "invalid request body"))
		return
	}

	reply, err := h.messageService.ReplyMessage(c.Request.Context(), userID, messageID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(reply))
}

func (h *MessageHandler) GetThread(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	subscriptionID, ok := pathUUID(c, "subscription_id")
	if !ok {
		return
	}

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.messageService.GetThread(c.Request.Context(), userID, subscriptionID, offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(messages))
}
