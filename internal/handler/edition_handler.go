package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oaib/exam-backend/internal/model"
	"github.com/oaib/exam-backend/internal/response"
	"github.com/oaib/exam-backend/internal/service"
	"github.com/oaib/exam-backend/internal/validator"
	"github.com/rs/zerolog"
)

// EditionHandler handles edition and phase endpoints.
type EditionHandler struct {
	editionService *service.EditionService
	log            zerolog.Logger
}

// NewEditionHandler creates a new EditionHandler.
func NewEditionHandler(editionService *service.EditionService, log zerolog.Logger) *EditionHandler {
	return &EditionHandler{
		editionService: editionService,
		log:            log.With().Str("component", "edition_handler").Logger(),
	}
}

// ListEditions godoc
// GET /api/v1/public/editions
func (h *EditionHandler) ListEditions(c *gin.Context) {
	editions, err := h.editionService.ListEditions(c.Request.Context())
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"editions": editions})
}

// GetActiveEdition godoc
// GET /api/v1/public/editions/active
func (h *EditionHandler) GetActiveEdition(c *gin.Context) {
	edition, err := h.editionService.GetActiveEdition(c.Request.Context())
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"edition": edition})
}

// ListPhases godoc
// GET /api/v1/public/phases?edition_id=&status=
func (h *EditionHandler) ListPhases(c *gin.Context) {
	editionID, ok := optionalInt64(c, "edition_id")
	if !ok {
		return
	}
	f := model.PhaseFilter{EditionID: editionID}
	if raw := c.Query("status"); raw != "" {
		st := model.PhaseStatus(raw)
		f.Status = &st
	}

	phases, err := h.editionService.ListPhases(c.Request.Context(), f)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"phases": phases})
}

// CreateEdition godoc
// POST /api/v1/admin/editions
func (h *EditionHandler) CreateEdition(c *gin.Context) {
	var req model.CreateEditionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	edition, err := h.editionService.CreateEdition(c.Request.Context(), req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"edition": edition})
}

// ActivateEdition godoc
// POST /api/v1/admin/editions/:id/activate
// Makes the edition the only active one.
func (h *EditionHandler) ActivateEdition(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	edition, err := h.editionService.ActivateEdition(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"edition": edition})
}

// CreatePhase godoc
// POST /api/v1/admin/phases
// The edition must be named with edition_id or use_active_edition.
func (h *EditionHandler) CreatePhase(c *gin.Context) {
	var req model.CreatePhaseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	phase, err := h.editionService.CreatePhase(c.Request.Context(), req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"phase": phase})
}
