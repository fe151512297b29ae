// Package scoring computes session results from frozen answer correctness.
package scoring

import (
	"math"

	"github.com/oaib/exam-backend/internal/model"
)

// Item is one question of a session snapshot, as seen by the scorer.
type Item struct {
	QuestionID   int64
	CategoryID   *int64
	CategoryName string
	Points       int
}

// Mark is the recorded outcome of one answer.
type Mark struct {
	QuestionID int64
	IsCorrect  bool
}

// Result is the outcome of a finished session.
type Result struct {
	Score      int
	Percentage float64
	Categories []model.CategoryScore
}

// Percentage returns score/max*100 rounded to two decimals, or 0 when max is 0.
func Percentage(score, max int) float64 {
	if max <= 0 {
		return 0
	}
	return Round2(float64(score) / float64(max) * 100)
}

// Round2 rounds v half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Passed reports whether percentage meets the pass threshold.
func Passed(percentage float64, passingScore int) bool {
	return percentage >= float64(passingScore)
}

// MaxScore sums the points of items.
func MaxScore(items []Item) int {
	total := 0
	for _, it := range items {
		total += it.Points
	}
	return total
}

// Evaluate scores marks against the session snapshot.
//
// The score is the sum of points of questions marked correct; it is not capped
// at maxScore, which is the snapshot taken at start. Marks for questions absent
// from items carry no points. Categories keep the order in which they first
// appear in items, with uncategorized questions grouped under a nil ID.
func Evaluate(items []Item, marks []Mark, maxScore int) Result {
	correct := make(map[int64]bool, len(marks))
	for _, m := range marks {
		if m.IsCorrect {
			correct[m.QuestionID] = true
		}
	}

	var (
		score int
		cats  []model.CategoryScore
		index = make(map[int64]int)
		none  = -1
	)

	for _, it := range items {
		var pos int
		if it.CategoryID == nil {
			if none < 0 {
				cats = append(cats, model.CategoryScore{CategoryName: it.CategoryName})
				none = len(cats) - 1
			}
			pos = none
		} else if i, ok := index[*it.CategoryID]; ok {
			pos = i
		} else {
			id := *it.CategoryID
			cats = append(cats, model.CategoryScore{CategoryID: &id, CategoryName: it.CategoryName})
			pos = len(cats) - 1
			index[id] = pos
		}

		c := &cats[pos]
		c.Total++
		c.MaxScore += it.Points
		if correct[it.QuestionID] {
			c.Correct++
			c.Score += it.Points
			score += it.Points
		}
	}

	if cats == nil {
		cats = []model.CategoryScore{}
	}

	return Result{
		Score:      score,
		Percentage: Percentage(score, maxScore),
		Categories: cats,
	}
}
