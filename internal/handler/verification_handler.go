package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/verification-api/internal/domain/repository"
	"github.com/yourusername/verification-api/internal/handler/dto"
	"github.com/yourusername/verification-api/internal/middleware"
	"github.com/yourusername/verification-api/internal/service"
	"github.com/yourusername/verification-api/pkg/logger"
)

// ContextVerificationID is where ExtractUUIDParam stores the :id of verification routes.
const ContextVerificationID = "verification_id"

// VerificationUseCase is the part of service.VerificationService the HTTP layer drives.
type VerificationUseCase interface {
	CreateVerification(ctx context.Context, req service.CreateVerificationRequest) (*service.VerificationDTO, error)
	SendVerification(ctx context.Context, req service.SendVerificationRequest) (*service.VerificationDTO, error)
	ResendVerification(ctx context.Context, id uuid.UUID) (*service.VerificationDTO, error)
	IsCodeValid(ctx context.Context, userID uuid.UUID, code string) (bool, error)
	GetByCode(ctx context.Context, userID uuid.UUID, code string) (*service.VerificationDTO, error)
	Verify(ctx context.Context, code string) (*service.VerificationDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*service.VerificationDTO, error)
	ListVerifications(ctx context.Context, q repository.ListQuery) (*service.Page[service.VerificationDTO], error)
}

type VerificationHandler struct {
	verifications VerificationUseCase
}

func NewVerificationHandler(verifications VerificationUseCase) *VerificationHandler {
	return &VerificationHandler{verifications: verifications}
}

// RegisterRoutes mounts the verification routes. Only verify is reachable without the guard.
func (h *VerificationHandler) RegisterRoutes(rg *gin.RouterGroup, guard gin.HandlerFunc) {
	rg.POST("/verification/verify", h.Verify)

	operator := rg.Group("/verification", guard)
	{
		operator.POST("", h.Create)
		operator.GET("", h.List)
		operator.POST("/send", h.Send)
		operator.GET("/code/:code", h.GetByCode)
		operator.GET("/code/:code/valid", h.IsCodeValid)
		operator.GET("/:id", middleware.ExtractUUIDParam("id", ContextVerificationID), h.GetByID)
		operator.POST("/:id/resend", middleware.ExtractUUIDParam("id", ContextVerificationID), h.Resend)
	}
}

// Verify consumes a code. The body is checked for shape only; lookup decides validity.
func (h *VerificationHandler) Verify(c *gin.Context) {
	var req dto.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	v, err := h.verifications.Verify(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse{Message: "Verification completed", Data: v})
}

func (h *VerificationHandler) Send(c *gin.Context) {
	var req service.SendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	v, err := h.verifications.SendVerification(c.Request.Context(), req)
	if errors.Is(err, service.ErrNotificationFailed) && v != nil {
		logger.Log.WithError(err).WithField("verification_id", v.ID).Warn("[VerificationHandler] code created but not delivered")
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error:     "Verification created but the code could not be delivered",
			ErrorType: "notification_failed",
			Data:      v,
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.DataResponse{Message: "Verification code sent", Data: v})
}

func (h *VerificationHandler) Create(c *gin.Context) {
	var req service.CreateVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	v, err := h.verifications.CreateVerification(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.DataResponse{Data: v})
}

func (h *VerificationHandler) Resend(c *gin.Context) {
	id := c.MustGet(ContextVerificationID).(uuid.UUID)

	v, err := h.verifications.ResendVerification(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotificationFailed) && v != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error:     "Verification code could not be delivered",
			ErrorType: "notification_failed",
			Data:      v,
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse{Message: "Verification code sent", Data: v})
}

func (h *VerificationHandler) GetByID(c *gin.Context) {
	id := c.MustGet(ContextVerificationID).(uuid.UUID)

	v, err := h.verifications.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse{Data: v})
}

func (h *VerificationHandler) List(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		respondBindError(c, err)
		return
	}

	page, err := h.verifications.ListVerifications(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *VerificationHandler) GetByCode(c *gin.Context) {
	userID, ok := optionalUserID(c)
	if !ok {
		return
	}

	v, err := h.verifications.GetByCode(c.Request.Context(), userID, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	if v == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Verification not found", ErrorType: "not_found"})
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse{Data: v})
}

func (h *VerificationHandler) IsCodeValid(c *gin.Context) {
	userID, ok := optionalUserID(c)
	if !ok {
		return
	}

	code := c.Param("code")
	valid, err := h.verifications.IsCodeValid(c.Request.Context(), userID, code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CodeValidityResponse{Code: code, Valid: valid})
}

// optionalUserID reads ?user_id=. Absent means uuid.Nil; malformed is answered with 400.
func optionalUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Query("user_id")
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user_id", ErrorType: "bad_request"})
		return uuid.Nil, false
	}
	return id, true
}
