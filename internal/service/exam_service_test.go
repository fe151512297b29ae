package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/oaib/exam-backend/internal/model"
	"github.com/rs/zerolog"
)

func questionsWithIDs(ids ...int64) []model.Question {
	qs := make([]model.Question, len(ids))
	for i, id := range ids {
		qs[i] = model.Question{ID: id, Points: 1}
	}
	return qs
}

func ids(qs []model.Question) []int64 {
	out := make([]int64, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestMaterializeQuestionSetPersistedOrder(t *testing.T) {
	in := questionsWithIDs(3, 1, 2)
	got := MaterializeQuestionSet(in, false, nil)
	if !slices.Equal(ids(got), []int64{3, 1, 2}) {
		t.Errorf("order = %v, want [3 1 2]", ids(got))
	}
}

func TestMaterializeQuestionSetShuffle(t *testing.T) {
	in := questionsWithIDs(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	before := ids(in)

	a := MaterializeQuestionSet(in, true, rand.New(rand.NewPCG(1, 2)))
	b := MaterializeQuestionSet(in, true, rand.New(rand.NewPCG(1, 2)))

	if !slices.Equal(ids(a), ids(b)) {
		t.Errorf("same seed gave %v and %v", ids(a), ids(b))
	}
	if !slices.Equal(ids(in), before) {
		t.Errorf("input reordered to %v", ids(in))
	}
	sorted := slices.Clone(ids(a))
	slices.Sort(sorted)
	if !slices.Equal(sorted, before) {
		t.Errorf("shuffle %v is not a permutation of %v", ids(a), before)
	}
}

func TestMaterializeQuestionSetEmpty(t *testing.T) {
	if got := MaterializeQuestionSet(nil, true, nil); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestCreateExamDefaults(t *testing.T) {
	db := newMemDB()
	svc := NewExamService(db, zerolog.Nop())

	e, err := svc.CreateExam(context.Background(), model.CreateExamRequest{PhaseID: 1, Title: "Qualifications"})
	if err != nil {
		t.Fatalf("CreateExam() error = %v", err)
	}
	if e.DurationMinutes != 60 || e.QuestionsCount != 20 || e.PassingScore != 60 || !e.RandomizeQuestions || e.Status != model.ExamStatusUpcoming {
		t.Errorf("defaults not applied: %+v", e)
	}
}

func TestCreateExamSchedule(t *testing.T) {
	svc := NewExamService(newMemDB(), zerolog.Nop())
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	_, err := svc.CreateExam(context.Background(), model.CreateExamRequest{
		PhaseID: 1, Title: "Finale", StartDatetime: &start, EndDatetime: &end,
	})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "end_datetime" {
		t.Fatalf("error = %v, want validation error on end_datetime", err)
	}
}

func TestCreateExamUnknownPhase(t *testing.T) {
	db := newMemDB()
	db.phases[1] = &model.Phase{ID: 1, EditionID: 1, PhaseNumber: 1}
	svc := NewExamService(db, zerolog.Nop())

	_, err := svc.CreateExam(context.Background(), model.CreateExamRequest{PhaseID: 2, Title: "Finale"})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "phase_id" {
		t.Fatalf("error = %v, want validation error on phase_id", err)
	}
}

func TestSetExamQuestions(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	qsvc := newQuestionService(db)
	svc := NewExamService(db, zerolog.Nop())

	e, _ := svc.CreateExam(ctx, model.CreateExamRequest{PhaseID: 1, Title: "Finale"})
	q1, _ := qsvc.CreateQuestion(ctx, model.CreateQuestionRequest{Text: "Q1", Options: opts(true, false)})
	q2, _ := qsvc.CreateQuestion(ctx, model.CreateQuestionRequest{Text: "Q2", Options: opts(true, false)})

	detail, err := svc.SetExamQuestions(ctx, e.ID, []int64{q2.ID, q1.ID})
	if err != nil {
		t.Fatalf("SetExamQuestions() error = %v", err)
	}
	if !slices.Equal(ids(detail.Questions), []int64{q2.ID, q1.ID}) {
		t.Errorf("questions = %v, want [%d %d]", ids(detail.Questions), q2.ID, q1.ID)
	}
	if got, _ := qsvc.GetQuestion(ctx, q1.ID); got.UsageCount != 1 {
		t.Errorf("UsageCount = %d, want 1", got.UsageCount)
	}

	t.Run("duplicate", func(t *testing.T) {
		_, err := svc.SetExamQuestions(ctx, e.ID, []int64{q1.ID, q1.ID})
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != "question_ids[1]" {
			t.Fatalf("error = %v, want validation error on question_ids[1]", err)
		}
	})

	t.Run("unknown question", func(t *testing.T) {
		_, err := svc.SetExamQuestions(ctx, e.ID, []int64{q1.ID, 9999})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("error = %v, want ErrValidation", err)
		}
		detail, _ := svc.GetExam(ctx, e.ID)
		if len(detail.Questions) != 2 {
			t.Errorf("failed replacement changed the list to %v", ids(detail.Questions))
		}
	})

	t.Run("unknown exam", func(t *testing.T) {
		if _, err := svc.SetExamQuestions(ctx, 9999, []int64{q1.ID}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestGetExamSummaryHidesCompleted(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := NewExamService(db, zerolog.Nop())

	e, _ := svc.CreateExam(ctx, model.CreateExamRequest{PhaseID: 1, Title: "Finale", Status: model.ExamStatusCompleted})
	if _, err := svc.GetExamSummary(ctx, e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
