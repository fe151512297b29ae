package service

import (
	"context"
	"errors"
	"testing"

	"github.com/oaib/exam-backend/internal/model"
	"github.com/rs/zerolog"
)

func intp(v int) *int { return &v }

func opts(correct ...bool) []model.OptionInput {
	out := make([]model.OptionInput, len(correct))
	for i, c := range correct {
		out[i] = model.OptionInput{Text: "Option " + string(rune('A'+i)), IsCorrect: c}
	}
	return out
}

func newQuestionService(db *memDB) *QuestionService {
	return NewQuestionService(db, db, zerolog.Nop())
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name    string
		in      []model.OptionInput
		wantErr bool
	}{
		{"two options one correct", opts(true, false), false},
		{"four options one correct", opts(false, false, true, false), false},
		{"single option", opts(true), true},
		{"no correct option", opts(false, false, false), true},
		{"two correct options", opts(true, true, false), true},
		{"blank text", []model.OptionInput{{Text: "  ", IsCorrect: true}, {Text: "b"}}, true},
		{"text too long", []model.OptionInput{{Text: string(make([]rune, 501)), IsCorrect: true}, {Text: "b"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateOptions(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateOptions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("error %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestValidateOptionsDefaultsOrderToIndex(t *testing.T) {
	in := opts(false, true, false)
	in[2].Order = intp(7)

	got, err := validateOptions(in)
	if err != nil {
		t.Fatalf("validateOptions() error = %v", err)
	}
	for i, want := range []int{0, 1, 7} {
		if got[i].Order != want {
			t.Errorf("options[%d].Order = %d, want %d", i, got[i].Order, want)
		}
	}
}

func TestCreateQuestionAppliesDefaults(t *testing.T) {
	db := newMemDB()
	svc := newQuestionService(db)

	q, err := svc.CreateQuestion(context.Background(), model.CreateQuestionRequest{
		Text:    "Combien font 2 + 2 ?",
		Options: opts(false, true),
	})
	if err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}
	if q.Difficulty != model.DifficultyMedium || q.Points != 1 || q.TimeLimitSeconds != 60 || !q.IsActive {
		t.Errorf("defaults not applied: %+v", q)
	}
	if len(q.Options) != 2 || q.Options[0].ID == 0 {
		t.Errorf("options not persisted: %+v", q.Options)
	}
}

func TestCreateQuestionRejectsUnknownCategory(t *testing.T) {
	svc := newQuestionService(newMemDB())
	id := int64(99)

	_, err := svc.CreateQuestion(context.Background(), model.CreateQuestionRequest{
		CategoryID: &id,
		Text:       "Q",
		Options:    opts(true, false),
	})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "category_id" {
		t.Fatalf("error = %v, want validation error on category_id", err)
	}
}

func TestCreateQuestionRejectsInvalidOptionsWithoutWriting(t *testing.T) {
	db := newMemDB()
	svc := newQuestionService(db)

	_, err := svc.CreateQuestion(context.Background(), model.CreateQuestionRequest{
		Text:    "Q",
		Options: opts(false, false),
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if len(db.questions) != 0 {
		t.Errorf("%d questions stored, want 0", len(db.questions))
	}
}

func TestUpdateQuestionReplacesOptions(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newQuestionService(db)

	q, err := svc.CreateQuestion(ctx, model.CreateQuestionRequest{Text: "Q", Options: opts(true, false)})
	if err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}

	text := "Q modifiée"
	replacement := opts(false, false, true)
	got, err := svc.UpdateQuestion(ctx, q.ID, model.UpdateQuestionRequest{Text: &text, Options: &replacement})
	if err != nil {
		t.Fatalf("UpdateQuestion() error = %v", err)
	}
	if got.Text != text {
		t.Errorf("Text = %q, want %q", got.Text, text)
	}
	if len(got.Options) != 3 || !got.Options[2].IsCorrect {
		t.Errorf("options not replaced: %+v", got.Options)
	}
	for _, o := range q.Options {
		if _, ok := db.options[o.ID]; ok {
			t.Errorf("old option %d still stored", o.ID)
		}
	}
}

func TestUpdateQuestionKeepsOptionsWhenOmitted(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newQuestionService(db)

	q, _ := svc.CreateQuestion(ctx, model.CreateQuestionRequest{Text: "Q", Options: opts(true, false)})
	points := 3
	got, err := svc.UpdateQuestion(ctx, q.ID, model.UpdateQuestionRequest{Points: &points})
	if err != nil {
		t.Fatalf("UpdateQuestion() error = %v", err)
	}
	if got.Points != 3 || len(got.Options) != 2 || got.Options[0].ID != q.Options[0].ID {
		t.Errorf("unexpected update result: %+v", got)
	}
}

func TestUpdateQuestionNotFound(t *testing.T) {
	svc := newQuestionService(newMemDB())
	_, err := svc.UpdateQuestion(context.Background(), 42, model.UpdateQuestionRequest{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteQuestionReferencedByExam(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newQuestionService(db)

	q, _ := svc.CreateQuestion(ctx, model.CreateQuestionRequest{Text: "Q", Options: opts(true, false)})
	db.exams[500] = &model.Exam{ID: 500, Title: "Finale"}
	db.examQuestions[500] = []int64{q.ID}

	err := svc.DeleteQuestion(ctx, q.ID)
	if !errors.Is(err, ErrDependencyExists) || !errors.Is(err, ErrConflict) {
		t.Fatalf("error = %v, want ErrDependencyExists", err)
	}

	delete(db.examQuestions, 500)
	if err := svc.DeleteQuestion(ctx, q.ID); err != nil {
		t.Fatalf("DeleteQuestion() error = %v", err)
	}
	if err := svc.DeleteQuestion(ctx, q.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestCreateCategorySlugs(t *testing.T) {
	ctx := context.Background()
	svc := newQuestionService(newMemDB())

	first, err := svc.CreateCategory(ctx, "Théorie des graphes")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if first.Slug != "theorie-des-graphes" {
		t.Errorf("Slug = %q, want theorie-des-graphes", first.Slug)
	}

	second, err := svc.CreateCategory(ctx, "Théorie des Graphes!")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if second.Slug != "theorie-des-graphes-2" {
		t.Errorf("Slug = %q, want theorie-des-graphes-2", second.Slug)
	}

	if _, err := svc.CreateCategory(ctx, "Théorie des graphes"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate name error = %v, want ErrConflict", err)
	}
}

func TestGetOrCreateCategoryReuses(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newQuestionService(db)

	a, err := svc.GetOrCreateCategory(ctx, "Logique")
	if err != nil {
		t.Fatalf("GetOrCreateCategory() error = %v", err)
	}
	b, err := svc.GetOrCreateCategory(ctx, " Logique ")
	if err != nil {
		t.Fatalf("GetOrCreateCategory() error = %v", err)
	}
	if a.ID != b.ID || len(db.categories) != 1 {
		t.Errorf("category not reused: %d vs %d, %d stored", a.ID, b.ID, len(db.categories))
	}
}

func TestDeleteCategoryUncategorizesQuestions(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newQuestionService(db)

	c, _ := svc.CreateCategory(ctx, "Algo")
	q, err := svc.CreateQuestion(ctx, model.CreateQuestionRequest{CategoryID: &c.ID, Text: "Q", Options: opts(true, false)})
	if err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}
	if err := svc.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	got, _ := svc.GetQuestion(ctx, q.ID)
	if got.CategoryID != nil {
		t.Errorf("CategoryID = %v, want nil", *got.CategoryID)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Algorithmique", "algorithmique"},
		{"Théorie des graphes", "theorie-des-graphes"},
		{"  Probabilités & Statistiques  ", "probabilites-statistiques"},
		{"IA / Apprentissage", "ia-apprentissage"},
		{"2024 Édition", "2024-edition"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUniqueSlug(t *testing.T) {
	if got := uniqueSlug("algo", nil); got != "algo" {
		t.Errorf("uniqueSlug free = %q, want algo", got)
	}
	if got := uniqueSlug("algo", []string{"algo", "algo-2", "algo-4"}); got != "algo-3" {
		t.Errorf("uniqueSlug taken = %q, want algo-3", got)
	}
}
