package handlers

import (
	"mime/multipart"
	"net/http"

	"consult-service/internal/models"
	"consult-service/internal/services"
	"consult-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	bookingService services.IBookingService
	jwtService     services.IJWTService
}

func NewBookingHandler(bookingService services.IBookingService, jwtService services.IJWTService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		jwtService:     jwtService,
	}
}

func (h *BookingHandler) RegisterRoutes(router *gin.Engine) {
	bookings := router.Group("/api/v1/bookings")
	bookings.Use(AuthMiddleware(h.jwtService))
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("/fan", h.ListFanBookings)
		bookings.GET("/creator", h.ListCreatorBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.GET("/:id/thread", h.GetThread)
		bookings.POST("/:id/question", h.SubmitQuestion)
		bookings.POST("/:id/response", h.SubmitResponse)
		bookings.POST("/:id/follow-up", h.SubmitFollowUp)
		bookings.POST("/:id/rating", h.SubmitRating)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", "invalid request body"))
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(booking))
}

func (h *BookingHandler) ListFanBookings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListFanBookings(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(bookings))
}

func (h *BookingHandler) ListCreatorBookings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var status *models.BookingStatus
	if raw := c.Query("status"); raw != "" {
		s := models.BookingStatus(raw)
		status = &s
	}

	bookings, err := h.bookingService.ListCreatorBookings(c.Request.Context(), userID, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(bookings))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(booking))
}

func (h *BookingHandler) GetThread(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	messages, err := h.bookingService.GetThread(c.Request.Context(), bookingID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(messages))
}

// SubmitQuestion accepts multipart form data: question_type plus either
// question_text or a file part.
func (h *BookingHandler) SubmitQuestion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	payload, closeFn, ok := questionPayloadFromForm(c)
	if !ok {
		return
	}
	defer closeFn()

	booking, err := h.bookingService.SubmitQuestion(c.Request.Context(), bookingID, userID, payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(booking))
}

func (h *BookingHandler) SubmitResponse(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	responseType := models.ResponseType(c.PostForm("response_type"))
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

	payload := &models.ResponsePayload{Type: responseType, Media: upload}
	booking, err := h.bookingService.SubmitResponse(c.Request.Context(), bookingID, userID, payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(booking))
}

func (h *BookingHandler) SubmitFollowUp(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	payload, closeFn, ok := questionPayloadFromForm(c)
	if !ok {
		return
	}
	defer closeFn()

	followUp, err := h.bookingService.SubmitFollowUp(c.Request.Context(), bookingID, userID, payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(followUp))
}

func (h *BookingHandler) SubmitRating(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req models.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", "invalid request body"))
		return
	}

	booking, err := h.bookingService.SubmitRating(c.Request.Context(), bookingID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(booking))
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(booking))
}

func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest,
			utils.CreateErrorResponse("VALIDATION_ERROR", "invalid "+param))
		return uuid.Nil, false
	}
	return id, true
}

// questionPayloadFromForm builds the tagged question union from a
// multipart form. Text questions carry question_text, media questions
// carry a file part. The returned closer releases the opened file.
func questionPayloadFromForm(c *gin.Context) (*models.QuestionPayload, func(), bool) {
	noop := func() {}
	questionType := models.QuestionType(c.PostForm("question_type"))

	if questionType == models.QuestionText {
		return &models.QuestionPayload{
			Type: questionType,
			Text: c.PostForm("question_text"),
		}, noop, true
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", "media file is required"))
		return nil, noop, false
	}

	upload, file, ok := openUpload(c, fileHeader)
	if !ok {
		return nil, noop, false
	}
	return &models.QuestionPayload{Type: questionType, Media: upload},
		func() { file.Close() }, true
}

func openUpload(c *gin.Context, fileHeader *multipart.FileHeader) (*models.MediaUpload, multipart.File, bool) {
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", "could not read uploaded file"))
		return nil, nil, false
	}

	return &models.MediaUpload{
		Reader:      file,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	}, file, true
}
