package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/oaib/exam-backend/internal/database"
	"github.com/oaib/exam-backend/internal/model"
	"github.com/oaib/exam-backend/internal/response"
	"github.com/rs/zerolog"
)

// QuestionStore is the persistence the question bank needs.
type QuestionStore interface {
	CreateQuestion(ctx context.Context, q *model.Question) error
	GetQuestion(ctx context.Context, id int64) (*model.Question, error)
	ListQuestions(ctx context.Context, f model.QuestionFilter, limit, offset int) ([]model.Question, int, error)
	UpdateQuestion(ctx context.Context, q *model.Question, replaceOptions bool) error
	DeleteQuestion(ctx context.Context, id int64) error
	StreamRecords(ctx context.Context, f model.QuestionFilter) iter.Seq2[model.QuestionRecord, error]
}

// CategoryStore is the persistence of question categories.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]model.QuestionCategory, error)
	GetCategory(ctx context.Context, id int64) (*model.QuestionCategory, error)
	GetCategoryByName(ctx context.Context, name string) (*model.QuestionCategory, error)
	TakenSlugs(ctx context.Context, base string) ([]string, error)
	InsertCategory(ctx context.Context, c *model.QuestionCategory) error
	DeleteCategory(ctx context.Context, id int64) error
}

// QuestionService handles question bank business logic.
type QuestionService struct {
	questions  QuestionStore
	categories CategoryStore
	log        zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions QuestionStore, categories CategoryStore, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions:  questions,
		categories: categories,
		log:        log.With().Str("component", "question_service").Logger(),
	}
}

// validateOptions checks the option rule (at least two options, exactly one
// correct, non-empty bounded texts) and converts inputs to options. An option
// without an explicit order gets its zero-based index.
func validateOptions(in []model.OptionInput) ([]model.QuestionOption, error) {
	if len(in) < model.MinOptionsPerQuestion {
		return nil, invalid("options", "at least %d options are required, got %d", model.MinOptionsPerQuestion, len(in))
	}

	opts := make([]model.QuestionOption, len(in))
	correct := 0
	for i, o := range in {
		text := strings.TrimSpace(o.Text)
		if text == "" {
			return nil, invalid(fmt.Sprintf("options[%d].text", i), "must not be empty")
		}
		if utf8.RuneCountInString(text) > model.MaxOptionTextLength {
			return nil, invalid(fmt.Sprintf("options[%d].text", i), "must be at most %d characters", model.MaxOptionTextLength)
		}
		order := i
		if o.Order != nil {
			order = *o.Order
		}
		if o.IsCorrect {
			correct++
		}
		opts[i] = model.QuestionOption{Text: text, IsCorrect: o.IsCorrect, Order: order}
	}
	if correct != 1 {
		return nil, invalid("options", "exactly one option must be correct, got %d", correct)
	}
	return opts, nil
}

func validateScalars(q *model.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return invalid("text", "must not be empty")
	}
	if !q.Difficulty.Valid() {
		return invalid("difficulty", "must be one of easy, medium, hard")
	}
	if q.Points < 1 {
		return invalid("points", "must be positive")
	}
	if q.TimeLimitSeconds < 1 {
		return invalid("time_limit_seconds", "must be positive")
	}
	return nil
}

// resolveCategory fills the category name of q, rejecting unknown categories.
func (s *QuestionService) resolveCategory(ctx context.Context, q *model.Question) error {
	if q.CategoryID == nil {
		q.CategoryName = ""
		return nil
	}
	c, err := s.categories.GetCategory(ctx, *q.CategoryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return invalid("category_id", "unknown category %d", *q.CategoryID)
	}
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	q.CategoryName = c.Name
	return nil
}

// CreateQuestion validates and persists a question with its options atomically.
func (s *QuestionService) CreateQuestion(ctx context.Context, req model.CreateQuestionRequest) (*model.Question, error) {
	q := &model.Question{
		CategoryID:       req.CategoryID,
		Text:             strings.TrimSpace(req.Text),
		Difficulty:       req.Difficulty,
		Points:           req.Points,
		TimeLimitSeconds: req.TimeLimitSeconds,
		IsActive:         true,
	}
	if q.Difficulty == "" {
		q.Difficulty = model.DefaultDifficulty
	}
	if q.Points == 0 {
		q.Points = model.DefaultQuestionPoints
	}
	if q.TimeLimitSeconds == 0 {
		q.TimeLimitSeconds = model.DefaultTimeLimitSeconds
	}
	if req.IsActive != nil {
		q.IsActive = *req.IsActive
	}

	if err := validateScalars(q); err != nil {
		return nil, err
	}
	opts, err := validateOptions(req.Options)
	if err != nil {
		return nil, err
	}
	q.Options = opts

	if err := s.resolveCategory(ctx, q); err != nil {
		return nil, err
	}
	if err := s.questions.CreateQuestion(ctx, q); err != nil {
		return nil, storeErr("create question", err)
	}
	return q, nil
}

// GetQuestion retrieves a question with its options.
func (s *QuestionService) GetQuestion(ctx context.Context, id int64) (*model.Question, error) {
	q, err := s.questions.GetQuestion(ctx, id)
	if err != nil {
		return nil, storeErr("get question", err)
	}
	return q, nil
}

// ListQuestions retrieves questions with pagination.
func (s *QuestionService) ListQuestions(ctx context.Context, f model.QuestionFilter, page, perPage int) ([]model.Question, *response.Pagination, error) {
	page, perPage, offset := pageWindow(page, perPage)

	qs, total, err := s.questions.ListQuestions(ctx, f, perPage, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}
	if qs == nil {
		qs = []model.Question{}
	}
	return qs, response.NewPagination(page, perPage, total), nil
}

// UpdateQuestion patches a question. Supplied options replace the previous
// set in the same transaction as the scalar update.
func (s *QuestionService) UpdateQuestion(ctx context.Context, id int64, req model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.questions.GetQuestion(ctx, id)
	if err != nil {
		return nil, storeErr("get question", err)
	}

	switch {
	case req.ClearCategory:
		q.CategoryID = nil
	case req.CategoryID != nil:
		q.CategoryID = req.CategoryID
	}
	if req.Text != nil {
		q.Text = strings.TrimSpace(*req.Text)
	}
	if req.Difficulty != nil {
		q.Difficulty = *req.Difficulty
	}
	if req.Points != nil {
		q.Points = *req.Points
	}
	if req.TimeLimitSeconds != nil {
		q.TimeLimitSeconds = *req.TimeLimitSeconds
	}
	if req.IsActive != nil {
		q.IsActive = *req.IsActive
	}
	if err := validateScalars(q); err != nil {
		return nil, err
	}

	replace := req.Options != nil
	if replace {
		opts, err := validateOptions(*req.Options)
		if err != nil {
			return nil, err
		}
		q.Options = opts
	}

	if err := s.resolveCategory(ctx, q); err != nil {
		return nil, err
	}
	if err := s.questions.UpdateQuestion(ctx, q, replace); err != nil {
		return nil, storeErr("update question", err)
	}
	return q, nil
}

// DeleteQuestion removes a question unless an exam still references it.
func (s *QuestionService) DeleteQuestion(ctx context.Context, id int64) error {
	err := s.questions.DeleteQuestion(ctx, id)
	if database.IsForeignKeyViolation(err) {
		return fmt.Errorf("delete question %d: %w", id, ErrDependencyExists)
	}
	return storeErr("delete question", err)
}

// ListCategories returns every category with its question count.
func (s *QuestionService) ListCategories(ctx context.Context) ([]model.QuestionCategory, error) {
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if cats == nil {
		cats = []model.QuestionCategory{}
	}
	return cats, nil
}

// CreateCategory creates a category with a slug derived from its name.
func (s *QuestionService) CreateCategory(ctx context.Context, name string) (*model.QuestionCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "must not be empty")
	}
	if _, err := s.categories.GetCategoryByName(ctx, name); err == nil {
		return nil, fmt.Errorf("category %q: %w", name, ErrConflict)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get category: %w", err)
	}

	base := Slugify(name)
	if base == "" {
		base = "categorie"
	}
	taken, err := s.categories.TakenSlugs(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("taken slugs: %w", err)
	}

	c := &model.QuestionCategory{Name: name, Slug: uniqueSlug(base, taken)}
	if err := s.categories.InsertCategory(ctx, c); err != nil {
		return nil, storeErr("create category", err)
	}
	s.log.Info().Int64("category_id", c.ID).Str("slug", c.Slug).Msg("Category created")
	return c, nil
}

// GetOrCreateCategory returns the category named name, creating it if needed.
// A concurrent creation of the same name is resolved by reading it back.
func (s *QuestionService) GetOrCreateCategory(ctx context.Context, name string) (*model.QuestionCategory, error) {
	name = strings.TrimSpace(name)
	c, err := s.categories.GetCategoryByName(ctx, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get category: %w", err)
	}

	c, err = s.CreateCategory(ctx, name)
	if errors.Is(err, ErrConflict) {
		c, err = s.categories.GetCategoryByName(ctx, name)
		if err != nil {
			return nil, storeErr("get category", err)
		}
		return c, nil
	}
	return c, err
}

// DeleteCategory removes a category; its questions become uncategorized.
func (s *QuestionService) DeleteCategory(ctx context.Context, id int64) error {
	return storeErr("delete category", s.categories.DeleteCategory(ctx, id))
}
