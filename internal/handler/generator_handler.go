package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nara-edu/timetable-api/internal/service"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
	"github.com/nara-edu/timetable-api/pkg/response"
)

type timetableGeneratorService interface {
	Generate(ctx context.Context, req service.GenerateTimetableRequest) (*service.TimetableProposal, error)
	GetProposal(id string) (*service.TimetableProposal, error)
}

// GeneratorHandler exposes the LLM-assisted timetable proposal endpoints.
type GeneratorHandler struct {
	service timetableGeneratorService
}

// NewGeneratorHandler constructs the handler.
func NewGeneratorHandler(service timetableGeneratorService) *GeneratorHandler {
	return &GeneratorHandler{service: service}
}

// Generate godoc
// @Summary Generate a timetable proposal
// @Tags Generator
// @Accept json
// @Produce json
// @Param payload body service.GenerateTimetableRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /timetables/proposals [post]
func (h *GeneratorHandler) Generate(c *gin.Context) {
	var req service.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	proposal, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, proposal)
}

// GetProposal godoc
// @Summary Get a previously generated proposal
// @Tags Generator
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /timetables/proposals/{id} [get]
func (h *GeneratorHandler) GetProposal(c *gin.Context) {
	proposal, err := h.service.GetProposal(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}
