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

// QuestionHandler handles question bank and category endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
	log             zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		log:             log.With().Str("component", "question_handler").Logger(),
	}
}

// questionFilter reads the shared list/export filters from the query string.
func questionFilter(c *gin.Context) (model.QuestionFilter, bool) {
	f := model.QuestionFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		OrderBy:  c.Query("order_by"),
	}
	categoryID, ok := optionalInt64(c, "category_id")
	if !ok {
		return f, false
	}
	f.CategoryID = categoryID

	if raw := c.Query("difficulty"); raw != "" {
		d := model.Difficulty(raw)
		if !d.Valid() {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"difficulty": "doit être easy, medium ou hard"})
			return f, false
		}
		f.Difficulty = &d
	}

	active, ok := optionalBool(c, "is_active")
	if !ok {
		return f, false
	}
	f.IsActive = active
	return f, true
}

// ListQuestions godoc
// GET /api/v1/admin/questions
// Filters: category_id, category, difficulty, is_active, search, order_by.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	f, ok := questionFilter(c)
	if !ok {
		return
	}
	page, perPage := pageQuery(c)

	questions, pagination, err := h.questionService.ListQuestions(c.Request.Context(), f, page, perPage)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questions": questions}, pagination)
}

// GetQuestion godoc
// GET /api/v1/admin/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	q, err := h.questionService.GetQuestion(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// CreateQuestion godoc
// POST /api/v1/admin/questions
// Creates a question together with its options.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questionService.CreateQuestion(c.Request.Context(), req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// UpdateQuestion godoc
// PUT /api/v1/admin/questions/:id
// Supplied options replace the existing ones.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questionService.UpdateQuestion(c.Request.Context(), id, req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/questions/:id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.questionService.DeleteQuestion(c.Request.Context(), id); err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// ListCategories godoc
// GET /api/v1/admin/categories
func (h *QuestionHandler) ListCategories(c *gin.Context) {
	categories, err := h.questionService.ListCategories(c.Request.Context())
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": categories})
}

// CreateCategory godoc
// POST /api/v1/admin/categories
func (h *QuestionHandler) CreateCategory(c *gin.Context) {
	var req model.CreateCategoryRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	category, err := h.questionService.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"category": category})
}

// DeleteCategory godoc
// DELETE /api/v1/admin/categories/:id
// Questions of the category become uncategorized.
func (h *QuestionHandler) DeleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.questionService.DeleteCategory(c.Request.Context(), id); err != nil {
		failFromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
