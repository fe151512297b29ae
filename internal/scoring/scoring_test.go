package scoring

import (
	"testing"
)

func ptr(v int64) *int64 { return &v }

func TestPercentage(t *testing.T) {
	tests := []struct {
		name  string
		score int
		max   int
		want  float64
	}{
		{"one third", 1, 3, 33.33},
		{"two thirds", 2, 3, 66.67},
		{"full marks", 5, 5, 100},
		{"zero max", 0, 0, 0},
		{"zero max with score", 4, 0, 0},
		{"above max is not capped", 6, 4, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentage(tt.score, tt.max); got != tt.want {
				t.Errorf("Percentage(%d, %d) = %v, want %v", tt.score, tt.max, got, tt.want)
			}
		})
	}
}

func TestPassed(t *testing.T) {
	if !Passed(60, 60) {
		t.Error("percentage equal to threshold should pass")
	}
	if Passed(59.99, 60) {
		t.Error("percentage below threshold should fail")
	}
}

func TestEvaluateScenario(t *testing.T) {
	items := []Item{
		{QuestionID: 1, CategoryID: ptr(10), CategoryName: "Logique", Points: 1},
		{QuestionID: 2, CategoryID: ptr(20), CategoryName: "Algo", Points: 2},
	}
	marks := []Mark{
		{QuestionID: 1, IsCorrect: true},
		{QuestionID: 2, IsCorrect: false},
	}

	res := Evaluate(items, marks, MaxScore(items))

	if res.Score != 1 {
		t.Errorf("Score = %d, want 1", res.Score)
	}
	if res.Percentage != 33.33 {
		t.Errorf("Percentage = %v, want 33.33", res.Percentage)
	}
	if len(res.Categories) != 2 {
		t.Fatalf("len(Categories) = %d, want 2", len(res.Categories))
	}
	if c := res.Categories[0]; c.Score != 1 || c.MaxScore != 1 || c.Correct != 1 || c.Total != 1 {
		t.Errorf("Categories[0] = %+v", c)
	}
	if c := res.Categories[1]; c.Score != 0 || c.MaxScore != 2 || c.Correct != 0 || c.Total != 1 {
		t.Errorf("Categories[1] = %+v", c)
	}
}

func TestEvaluateUsesSnapshotMaxScore(t *testing.T) {
	// The exam grew after the session started; the stored max of 2 stays authoritative.
	items := []Item{
		{QuestionID: 1, Points: 2},
		{QuestionID: 2, Points: 3},
	}
	marks := []Mark{{QuestionID: 1, IsCorrect: true}, {QuestionID: 2, IsCorrect: true}}

	res := Evaluate(items, marks, 2)
	if res.Score != 5 {
		t.Errorf("Score = %d, want 5", res.Score)
	}
	if res.Percentage != 250 {
		t.Errorf("Percentage = %v, want 250", res.Percentage)
	}
}

func TestEvaluateGroupsUncategorized(t *testing.T) {
	items := []Item{
		{QuestionID: 1, Points: 1},
		{QuestionID: 2, CategoryID: ptr(7), CategoryName: "Maths", Points: 1},
		{QuestionID: 3, Points: 2},
		{QuestionID: 4, CategoryID: ptr(7), CategoryName: "Maths", Points: 1},
	}
	marks := []Mark{{QuestionID: 3, IsCorrect: true}, {QuestionID: 4, IsCorrect: true}}

	res := Evaluate(items, marks, MaxScore(items))
	if len(res.Categories) != 2 {
		t.Fatalf("len(Categories) = %d, want 2", len(res.Categories))
	}
	none := res.Categories[0]
	if none.CategoryID != nil || none.Total != 2 || none.Score != 2 || none.MaxScore != 3 {
		t.Errorf("uncategorized = %+v", none)
	}
	maths := res.Categories[1]
	if maths.CategoryID == nil || *maths.CategoryID != 7 || maths.Total != 2 || maths.Score != 1 {
		t.Errorf("maths = %+v", maths)
	}
	if res.Score != 3 || res.Percentage != 60 {
		t.Errorf("Score = %d, Percentage = %v, want 3, 60", res.Score, res.Percentage)
	}
}

func TestEvaluateNoItems(t *testing.T) {
	res := Evaluate(nil, nil, 0)
	if res.Score != 0 || res.Percentage != 0 {
		t.Errorf("got %+v, want zero result", res)
	}
	if res.Categories == nil {
		t.Error("Categories should be an empty list, not nil")
	}
}
