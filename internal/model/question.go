package model

import (
	"time"
)

// Difficulty enumerates question difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question defaults applied when a field is omitted.
const (
	DefaultDifficulty       = DifficultyMedium
	DefaultQuestionPoints   = 1
	DefaultTimeLimitSeconds = 60
	MinOptionsPerQuestion   = 2
	MaxOptionTextLength     = 500
	MaxSpreadsheetOptions   = 4
)

// QuestionCategory groups questions for per-category scoring.
type QuestionCategory struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	QuestionsCount int    `json:"questions_count"`
}

// Question is a multiple-choice question in the bank.
type Question struct {
	ID               int64            `json:"id"`
	CategoryID       *int64           `json:"category_id"`
	CategoryName     string           `json:"category_name"`
	Text             string           `json:"text"`
	Difficulty       Difficulty       `json:"difficulty"`
	Points           int              `json:"points"`
	TimeLimitSeconds int              `json:"time_limit_seconds"`
	UsageCount       int              `json:"usage_count"`
	IsActive         bool             `json:"is_active"`
	Options          []QuestionOption `json:"options"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// QuestionOption is one choice of a question. Exactly one option per question is correct.
type QuestionOption struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
	Order      int    `json:"order"`
}

// OptionInput is an option as submitted by an admin or an import record.
type OptionInput struct {
	Text      string `json:"text" binding:"required,max=500"`
	IsCorrect bool   `json:"is_correct"`
	Order     *int   `json:"order" binding:"omitempty,min=0"`
}

// CreateQuestionRequest is the payload for creating a question with its options.
type CreateQuestionRequest struct {
	CategoryID       *int64        `json:"category_id" binding:"omitempty,min=1"`
	Text             string        `json:"text" binding:"required"`
	Difficulty       Difficulty    `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Points           int           `json:"points" binding:"omitempty,min=1"`
	TimeLimitSeconds int           `json:"time_limit_seconds" binding:"omitempty,min=1"`
	IsActive         *bool         `json:"is_active"`
	Options          []OptionInput `json:"options" binding:"required,dive"`
}

// UpdateQuestionRequest patches a question. A non-nil Options replaces every option.
type UpdateQuestionRequest struct {
	CategoryID       *int64         `json:"category_id" binding:"omitempty,min=1"`
	ClearCategory    bool           `json:"clear_category"`
	Text             *string        `json:"text" binding:"omitempty,min=1"`
	Difficulty       *Difficulty    `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Points           *int           `json:"points" binding:"omitempty,min=1"`
	TimeLimitSeconds *int           `json:"time_limit_seconds" binding:"omitempty,min=1"`
	IsActive         *bool          `json:"is_active"`
	Options          *[]OptionInput `json:"options" binding:"omitempty,dive"`
}

// CreateCategoryRequest is the payload for creating a question category.
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// QuestionFilter narrows question listings and exports.
type QuestionFilter struct {
	CategoryID *int64
	Category   string
	Difficulty *Difficulty
	IsActive   *bool
	Search     string
	// OrderBy is one of created_at, difficulty, usage_count, optionally prefixed with "-".
	OrderBy string
}
