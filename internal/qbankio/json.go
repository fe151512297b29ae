package qbankio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/oaib/exam-backend/internal/model"
)

// jsonRecord mirrors model.QuestionRecord with optional fields so that
// omitted values get their defaults instead of zero values.
type jsonRecord struct {
	Text             string       `json:"text"`
	Category         string       `json:"category"`
	Difficulty       string       `json:"difficulty"`
	Points           *int         `json:"points"`
	TimeLimitSeconds *int         `json:"time_limit_seconds"`
	IsActive         *bool        `json:"is_active"`
	Options          []jsonOption `json:"options"`
}

type jsonOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Order     *int   `json:"order"`
}

func decodeJSON(r io.Reader) ([]model.QuestionRecord, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	records := make([]model.QuestionRecord, len(raw))
	for i, msg := range raw {
		var jr jsonRecord
		if err := json.Unmarshal(msg, &jr); err != nil {
			records[i] = model.QuestionRecord{DecodeErr: err.Error()}
			continue
		}
		records[i] = jr.toRecord()
	}
	return records, nil
}

func (jr jsonRecord) toRecord() model.QuestionRecord {
	rec := model.QuestionRecord{
		Text:             jr.Text,
		Category:         jr.Category,
		Difficulty:       model.DefaultDifficulty,
		Points:           model.DefaultQuestionPoints,
		TimeLimitSeconds: model.DefaultTimeLimitSeconds,
		IsActive:         true,
	}
	if jr.Difficulty != "" {
		rec.Difficulty = model.Difficulty(jr.Difficulty)
	}
	if jr.Points != nil {
		rec.Points = *jr.Points
	}
	if jr.TimeLimitSeconds != nil {
		rec.TimeLimitSeconds = *jr.TimeLimitSeconds
	}
	if jr.IsActive != nil {
		rec.IsActive = *jr.IsActive
	}
	for i, o := range jr.Options {
		order := i + 1
		if o.Order != nil {
			order = *o.Order
		}
		rec.Options = append(rec.Options, model.RecordOption{Text: o.Text, IsCorrect: o.IsCorrect, Order: order})
	}
	return rec
}

// jsonWriter emits a JSON array one element at a time.
type jsonWriter struct {
	w     io.Writer
	count int
}

func newJSONWriter(w io.Writer) *jsonWriter {
	return &jsonWriter{w: w}
}

func (jw *jsonWriter) Write(rec model.QuestionRecord) error {
	if rec.Options == nil {
		rec.Options = []model.RecordOption{}
	}
	b, err := json.MarshalIndent(rec, "  ", "  ")
	if err != nil {
		return err
	}

	sep := ",\n  "
	if jw.count == 0 {
		sep = "[\n  "
	}
	if _, err := io.WriteString(jw.w, sep); err != nil {
		return err
	}
	if _, err := jw.w.Write(b); err != nil {
		return err
	}
	jw.count++
	return nil
}

func (jw *jsonWriter) Close() error {
	end := "\n]\n"
	if jw.count == 0 {
		end = "[]\n"
	}
	_, err := io.WriteString(jw.w, end)
	return err
}
