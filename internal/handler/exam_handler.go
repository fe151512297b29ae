package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oaib/exam-backend/internal/middleware"
	"github.com/oaib/exam-backend/internal/model"
	"github.com/oaib/exam-backend/internal/response"
	"github.com/oaib/exam-backend/internal/service"
	"github.com/oaib/exam-backend/internal/validator"
	"github.com/rs/zerolog"
)

// ExamHandler handles exam management and the candidate exam listing.
type ExamHandler struct {
	examService    *service.ExamService
	sessionService *service.ExamSessionService
	log            zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, sessionService *service.ExamSessionService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService:    examService,
		sessionService: sessionService,
		log:            log.With().Str("component", "exam_handler").Logger(),
	}
}

// ─── Admin ────────────────────────────────────────────────────────────

// ListExams godoc
// GET /api/v1/admin/exams?phase_id=&status=
func (h *ExamHandler) ListExams(c *gin.Context) {
	phaseID, ok := optionalInt64(c, "phase_id")
	if !ok {
		return
	}
	f := model.ExamFilter{PhaseID: phaseID}
	if raw := c.Query("status"); raw != "" {
		st := model.ExamStatus(raw)
		switch st {
		case model.ExamStatusUpcoming, model.ExamStatusActive, model.ExamStatusCompleted:
		default:
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"status": "doit être upcoming, active ou completed"})
			return
		}
		f.Status = &st
	}
	page, perPage := pageQuery(c)

	exams, pagination, err := h.examService.ListExams(c.Request.Context(), f, page, perPage)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// CreateExam godoc
// POST /api/v1/admin/exams
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.CreateExam(c.Request.Context(), req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// GetExam godoc
// GET /api/v1/admin/exams/:id
// Includes the ordered questions with correctness data.
func (h *ExamHandler) GetExam(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.GetExam(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// UpdateExam godoc
// PATCH /api/v1/admin/exams/:id
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.UpdateExam(c.Request.Context(), id, req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// SetExamQuestions godoc
// PUT /api/v1/admin/exams/:id/questions
// Replaces the ordered question list. Running sessions keep their snapshot.
func (h *ExamHandler) SetExamQuestions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.SetExamQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.SetExamQuestions(c.Request.Context(), id, req.QuestionIDs)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// GetExamStatistics godoc
// GET /api/v1/admin/exams/:id/statistics
func (h *ExamHandler) GetExamStatistics(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	stats, err := h.sessionService.Statistics(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"statistics": stats})
}

// RegisterCandidate godoc
// POST /api/v1/admin/exams/:id/candidates
// Creates a not_started session for the candidate.
func (h *ExamHandler) RegisterCandidate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.RegisterCandidateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.sessionService.Register(c.Request.Context(), id, req.CandidateID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": sess})
}

// ─── Candidate ────────────────────────────────────────────────────────

// ListCandidateExams godoc
// GET /api/v1/candidate/exams
// Active exams with the caller's own session state overlaid.
func (h *ExamHandler) ListCandidateExams(c *gin.Context) {
	claims := middleware.GetClaims(c)

	exams, err := h.examService.ListCandidateExams(c.Request.Context(), claims.UserID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetExamSummary godoc
// GET /api/v1/candidate/exams/:exam_id
func (h *ExamHandler) GetExamSummary(c *gin.Context) {
	id, ok := paramID(c, "exam_id")
	if !ok {
		return
	}

	exam, err := h.examService.GetExamSummary(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}
