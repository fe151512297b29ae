package qbankio

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/oaib/exam-backend/internal/model"
)

func sampleRecords() []model.QuestionRecord {
	return []model.QuestionRecord{
		{
			Text: "Quelle est la complexité de la recherche dichotomique ?", Category: "Algorithmique",
			Difficulty: model.DifficultyMedium, Points: 2, TimeLimitSeconds: 45, IsActive: true,
			Options: []model.RecordOption{
				{Text: "O(n)", IsCorrect: false, Order: 1},
				{Text: "O(log n)", IsCorrect: true, Order: 2},
				{Text: "O(1)", IsCorrect: false, Order: 3},
			},
		},
		{
			Text: "Un réseau de neurones est-il un modèle supervisé ?", Category: "",
			Difficulty: model.DifficultyEasy, Points: 1, TimeLimitSeconds: 60, IsActive: false,
			Options: []model.RecordOption{
				{Text: "Toujours", IsCorrect: false, Order: 1},
				{Text: "Cela dépend", IsCorrect: true, Order: 2},
			},
		},
	}
}

func writeAll(t *testing.T, f model.TransferFormat, recs []model.QuestionRecord) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(f, &buf)
	if err != nil {
		t.Fatalf("NewWriter(%s): %v", f, err)
	}
	for _, r := range recs {
		if err := w.Write(r); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []model.TransferFormat{model.FormatJSON, model.FormatXLSX, model.FormatCSV} {
		t.Run(string(f), func(t *testing.T) {
			want := sampleRecords()
			data := writeAll(t, f, want)

			got, err := Decode(f, bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, want)
			}
		})
	}
}

func TestEmptyExport(t *testing.T) {
	for _, f := range []model.TransferFormat{model.FormatJSON, model.FormatXLSX, model.FormatCSV} {
		t.Run(string(f), func(t *testing.T) {
			data := writeAll(t, f, nil)
			got, err := Decode(f, bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("got %d records, want 0", len(got))
			}
		})
	}
}

func TestDecodeJSONDefaults(t *testing.T) {
	in := `[{"text":"Q1","options":[{"text":"a","is_correct":true},{"text":"b"}]}]`
	got, err := Decode(model.FormatJSON, strings.NewReader(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	r := got[0]
	if r.Difficulty != model.DifficultyMedium || r.Points != 1 || r.TimeLimitSeconds != 60 || !r.IsActive {
		t.Errorf("defaults not applied: %+v", r)
	}
	if r.Options[0].Order != 1 || r.Options[1].Order != 2 {
		t.Errorf("option orders = %d, %d, want 1, 2", r.Options[0].Order, r.Options[1].Order)
	}
}

func TestDecodeJSONPerRecordError(t *testing.T) {
	in := `[{"text":"ok","options":[]}, {"text": 42}, {"text":"also ok"}]`
	got, err := Decode(model.FormatJSON, strings.NewReader(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].DecodeErr != "" || got[2].DecodeErr != "" {
		t.Errorf("unexpected decode errors: %q, %q", got[0].DecodeErr, got[2].DecodeErr)
	}
	if got[1].DecodeErr == "" {
		t.Error("record 1 should carry a decode error")
	}
}

func TestDecodeInvalidFile(t *testing.T) {
	cases := map[model.TransferFormat]string{
		model.FormatJSON: `{"not":"an array"}`,
		model.FormatXLSX: "definitely not a zip archive",
	}
	for f, in := range cases {
		t.Run(string(f), func(t *testing.T) {
			_, err := Decode(f, strings.NewReader(in))
			if !errors.Is(err, ErrInvalidFile) {
				t.Errorf("err = %v, want ErrInvalidFile", err)
			}
		})
	}
}

func TestDecodeCSVRows(t *testing.T) {
	in := strings.Join([]string{
		strings.Join(Header, ","),
		"Q1,Maths,HARD,3.0,,oui,A,Non,B,yes",
		",ignored,,,,,,,,",
		"Q2,,,x,,,A,1",
	}, "\n")

	got, err := Decode(model.FormatCSV, strings.NewReader(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (blank first cell skipped)", len(got))
	}

	q1 := got[0]
	if q1.Difficulty != model.DifficultyHard || q1.Points != 3 || q1.TimeLimitSeconds != 60 || !q1.IsActive {
		t.Errorf("q1 = %+v", q1)
	}
	if len(q1.Options) != 2 || q1.Options[0].IsCorrect || !q1.Options[1].IsCorrect {
		t.Errorf("q1 options = %+v", q1.Options)
	}

	if got[1].DecodeErr == "" {
		t.Error("q2 has a non-numeric points cell and should carry a decode error")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(" XLSX "); err != nil || f != model.FormatXLSX {
		t.Errorf("ParseFormat(XLSX) = %q, %v", f, err)
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ParseFormat(pdf) err = %v, want ErrUnsupportedFormat", err)
	}
}
