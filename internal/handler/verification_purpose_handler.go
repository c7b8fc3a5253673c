package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/verification-api/internal/domain/repository"
	"github.com/yourusername/verification-api/internal/handler/dto"
	"github.com/yourusername/verification-api/internal/middleware"
	"github.com/yourusername/verification-api/internal/service"
)

const ContextPurposeID = "purpose_id"

type VerificationPurposeUseCase interface {
	CreateIfNotExists(ctx context.Context, id uuid.UUID, req service.CreateVerificationPurposeRequest) (*service.VerificationPurposeDTO, error)
	Update(ctx context.Context, id uuid.UUID, req service.UpdateVerificationPurposeRequest) (*service.VerificationPurposeDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*service.VerificationPurposeDTO, error)
	GetByCode(ctx context.Context, code string) (*service.VerificationPurposeDTO, error)
	List(ctx context.Context, q repository.ListQuery) (*service.Page[service.VerificationPurposeDTO], error)
}

type VerificationPurposeHandler struct {
	purposes VerificationPurposeUseCase
}

func NewVerificationPurposeHandler(purposes VerificationPurposeUseCase) *VerificationPurposeHandler {
	return &VerificationPurposeHandler{purposes: purposes}
}

func (h *VerificationPurposeHandler) RegisterRoutes(rg *gin.RouterGroup, guard gin.HandlerFunc) {
	purposes := rg.Group("/verification-purposes", guard)
	{
		purposes.GET("", h.List)
		purposes.GET("/code/:code", h.GetByCode)
		purposes.GET("/:id", middleware.ExtractUUIDParam("id", ContextPurposeID), h.GetByID)
		purposes.PUT("/:id", middleware.ExtractUUIDParam("id", ContextPurposeID), h.CreateIfNotExists)
		purposes.PATCH("/:id", middleware.ExtractUUIDParam("id", ContextPurposeID), h.Update)
	}
}

// CreateIfNotExists answers 200 with whatever is stored under :id, creating it first if absent.
func (h *VerificationPurposeHandler) CreateIfNotExists(c *gin.Context) {
	id := c.MustGet(ContextPurposeID).(uuid.UUID)

	var req service.CreateVerificationPurposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.purposes.CreateIfNotExists(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse{Data: p})
}

// Update changes only the fields present in the body.
func (h *VerificationPurposeHandler) Update(c *gin.Context) {
	id := c.MustGet(ContextPurposeID).(uuid.UUID)

	var req service.UpdateVerificationPurposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.purposes.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse{Data: p})
}

func (h *VerificationPurposeHandler) GetByCode(c *gin.Context) {
	p, err := h.purposes.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse{Data: p})
}

func (h *VerificationPurposeHandler) GetByID(c *gin.Context) {
	p, err := h.purposes.GetByID(c.Request.Context(), c.MustGet(ContextPurposeID).(uuid.UUID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse{Data: p})
}

func (h *VerificationPurposeHandler) List(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		respondBindError(c, err)
		return
	}

	page, err := h.purposes.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
