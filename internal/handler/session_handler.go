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

// SessionHandler handles the candidate session lifecycle over HTTP.
type SessionHandler struct {
	sessionService *service.ExamSessionService
	log            zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.ExamSessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "session_handler").Logger(),
	}
}

// StartExam godoc
// POST /api/v1/candidate/exams/:exam_id/start
// Snapshots the question order and returns the questions without correctness data.
func (h *SessionHandler) StartExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := paramID(c, "exam_id")
	if !ok {
		return
	}

	started, err := h.sessionService.Start(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, started)
}

// ListMySessions godoc
// GET /api/v1/candidate/sessions
func (h *SessionHandler) ListMySessions(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sessions, err := h.sessionService.ListMySessions(c.Request.Context(), claims.UserID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// GetPaper godoc
// GET /api/v1/candidate/sessions/:id/paper
// Reloads an in-progress session after a page refresh.
func (h *SessionHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	paper, err := h.sessionService.GetPaper(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, paper)
}

// SubmitAnswer godoc
// POST /api/v1/candidate/sessions/:id/answers
// Upserts the answer for one question. option_id may be omitted to only flag.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	answer, err := h.sessionService.SubmitAnswer(c.Request.Context(), claims.UserID, id, req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"answer": answer})
}

// FinishSession godoc
// POST /api/v1/candidate/sessions/:id/finish
func (h *SessionHandler) FinishSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	sess, err := h.sessionService.Finish(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess})
}

// RecordTabSwitch godoc
// POST /api/v1/candidate/sessions/:id/tab-switch
func (h *SessionHandler) RecordTabSwitch(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.sessionService.RecordTabSwitch(c.Request.Context(), claims.UserID, id); err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"recorded": true})
}

// ListSessions godoc
// GET /api/v1/admin/sessions?exam_id=&candidate_id=&status=&order_by=
func (h *SessionHandler) ListSessions(c *gin.Context) {
	examID, ok := optionalInt64(c, "exam_id")
	if !ok {
		return
	}
	candidateID, ok := optionalInt64(c, "candidate_id")
	if !ok {
		return
	}
	f := model.SessionFilter{ExamID: examID, CandidateID: candidateID, OrderBy: c.Query("order_by")}
	if raw := c.Query("status"); raw != "" {
		st := model.SessionStatus(raw)
		switch st {
		case model.SessionStatusNotStarted, model.SessionStatusInProgress,
			model.SessionStatusCompleted, model.SessionStatusEvaluated:
		default:
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"status": "statut de session inconnu"})
			return
		}
		f.Status = &st
	}
	page, perPage := pageQuery(c)

	sessions, pagination, err := h.sessionService.ListSessions(c.Request.Context(), f, page, perPage)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"sessions": sessions}, pagination)
}
