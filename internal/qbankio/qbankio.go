// Package qbankio reads and writes question bank files.
//
// All formats share one record schema: question text, category name,
// difficulty, points, time limit, active flag and up to four options.
// Spreadsheet formats (xlsx, csv) flatten options into fixed column pairs
// after a single header row.
package qbankio

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/oaib/exam-backend/internal/model"
)

// ErrUnsupportedFormat is returned for a format other than json, xlsx or csv.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ErrInvalidFile is returned when a payload cannot be parsed as a whole.
var ErrInvalidFile = errors.New("invalid file")

// Header is the spreadsheet header row.
var Header = []string{
	"Question", "Catégorie", "Difficulté", "Points",
	"Temps (s)", "Active",
	"Option A", "Correcte A",
	"Option B", "Correcte B",
	"Option C", "Correcte C",
	"Option D", "Correcte D",
}

const firstOptionColumn = 6

// Writer streams records to a file in one format.
type Writer interface {
	Write(rec model.QuestionRecord) error
	// Close finishes the file. Nothing is guaranteed to reach the
	// underlying writer before Close returns.
	Close() error
}

// ParseFormat validates a format name.
func ParseFormat(s string) (model.TransferFormat, error) {
	switch f := model.TransferFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case model.FormatJSON, model.FormatXLSX, model.FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type of a format.
func ContentType(f model.TransferFormat) string {
	switch f {
	case model.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case model.FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json"
	}
}

// Decode parses every record of r. A record that is malformed on its own is
// returned with DecodeErr set so the caller can report it by index.
func Decode(f model.TransferFormat, r io.Reader) ([]model.QuestionRecord, error) {
	switch f {
	case model.FormatJSON:
		return decodeJSON(r)
	case model.FormatXLSX:
		return decodeXLSX(r)
	case model.FormatCSV:
		return decodeCSV(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// NewWriter returns a Writer for f.
func NewWriter(f model.TransferFormat, w io.Writer) (Writer, error) {
	switch f {
	case model.FormatJSON:
		return newJSONWriter(w), nil
	case model.FormatXLSX:
		return newXLSXWriter(w)
	case model.FormatCSV:
		return newCSVWriter(w), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// ─── Spreadsheet rows ──────────────────────────────────────────────

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oui", "true", "1", "yes":
		return true
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return "Oui"
	}
	return "Non"
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// recordFromRow converts a spreadsheet row. ok is false for rows that
// must be skipped (empty first cell).
func recordFromRow(row []string) (rec model.QuestionRecord, ok bool) {
	text := cell(row, 0)
	if text == "" {
		return rec, false
	}

	rec = model.QuestionRecord{
		Text:             text,
		Category:         cell(row, 1),
		Difficulty:       model.DefaultDifficulty,
		Points:           model.DefaultQuestionPoints,
		TimeLimitSeconds: model.DefaultTimeLimitSeconds,
		IsActive:         true,
	}

	if d := cell(row, 2); d != "" {
		rec.Difficulty = model.Difficulty(strings.ToLower(d))
	}
	if p := cell(row, 3); p != "" {
		n, err := parseWholeNumber(p)
		if err != nil {
			rec.DecodeErr = fmt.Sprintf("points: %q is not a number", p)
		}
		rec.Points = n
	}
	if s := cell(row, 4); s != "" {
		n, err := parseWholeNumber(s)
		if err != nil && rec.DecodeErr == "" {
			rec.DecodeErr = fmt.Sprintf("time_limit_seconds: %q is not a number", s)
		}
		rec.TimeLimitSeconds = n
	}
	if a := cell(row, 5); a != "" {
		rec.IsActive = isTruthy(a)
	}

	for i := 0; i < model.MaxSpreadsheetOptions; i++ {
		optText := cell(row, firstOptionColumn+i*2)
		if optText == "" {
			continue
		}
		rec.Options = append(rec.Options, model.RecordOption{
			Text:      optText,
			IsCorrect: isTruthy(cell(row, firstOptionColumn+i*2+1)),
			Order:     i + 1,
		})
	}

	return rec, true
}

// rowFromRecord flattens rec into spreadsheet cells. Options beyond the
// fourth do not fit the schema and are dropped.
func rowFromRecord(rec model.QuestionRecord) []string {
	row := make([]string, len(Header))
	row[0] = rec.Text
	row[1] = rec.Category
	row[2] = string(rec.Difficulty)
	row[3] = strconv.Itoa(rec.Points)
	row[4] = strconv.Itoa(rec.TimeLimitSeconds)
	row[5] = yesNo(rec.IsActive)
	for i, o := range rec.Options {
		if i >= model.MaxSpreadsheetOptions {
			break
		}
		row[firstOptionColumn+i*2] = o.Text
		row[firstOptionColumn+i*2+1] = yesNo(o.IsCorrect)
	}
	return row
}

// parseWholeNumber accepts "3" as well as spreadsheet renderings like "3.0".
func parseWholeNumber(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
