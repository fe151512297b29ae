package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/oaib/exam-backend/internal/model"
	"github.com/rs/zerolog"
)

func newTransferService(db *memDB) *TransferService {
	return NewTransferService(newQuestionService(db), db, zerolog.Nop())
}

func record(text, category string, correct ...bool) model.QuestionRecord {
	rec := model.QuestionRecord{
		Text:             text,
		Category:         category,
		Difficulty:       model.DifficultyEasy,
		Points:           2,
		TimeLimitSeconds: 45,
		IsActive:         true,
	}
	for i, c := range correct {
		rec.Options = append(rec.Options, model.RecordOption{Text: string(rune('a' + i)), IsCorrect: c, Order: i})
	}
	return rec
}

func TestBulkImportReportsFailingRecord(t *testing.T) {
	db := newMemDB()
	svc := newTransferService(db)

	res, err := svc.BulkImport(context.Background(), []model.QuestionRecord{
		record("Q1", "Logique", true, false),
		record("Q2", "Logique", false, false),
		record("Q3", "", false, true),
	})
	if err != nil {
		t.Fatalf("BulkImport() error = %v", err)
	}
	if res.Created != 2 {
		t.Errorf("Created = %d, want 2", res.Created)
	}
	if len(res.Errors) != 1 || res.Errors[0].Index != 1 || res.Errors[0].Error == "" {
		t.Fatalf("Errors = %+v, want one error at index 1", res.Errors)
	}
	if len(db.questions) != 2 {
		t.Errorf("%d questions stored, want 2", len(db.questions))
	}
	if len(db.categories) != 1 {
		t.Errorf("%d categories stored, want 1", len(db.categories))
	}
}

func TestBulkImportDecodeError(t *testing.T) {
	svc := newTransferService(newMemDB())
	bad := model.QuestionRecord{DecodeErr: "points: not a number"}

	res, err := svc.BulkImport(context.Background(), []model.QuestionRecord{bad, record("Q", "", true, false)})
	if err != nil {
		t.Fatalf("BulkImport() error = %v", err)
	}
	if res.Created != 1 || len(res.Errors) != 1 || res.Errors[0].Error != "points: not a number" {
		t.Errorf("result = %+v", res)
	}
}

func TestBulkImportEmptyHasNonNilErrors(t *testing.T) {
	res, err := newTransferService(newMemDB()).BulkImport(context.Background(), nil)
	if err != nil {
		t.Fatalf("BulkImport() error = %v", err)
	}
	if res.Errors == nil || res.Created != 0 {
		t.Errorf("result = %+v, want zero created and empty errors", res)
	}
}

func TestBulkImportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTransferService(newMemDB()).BulkImport(ctx, []model.QuestionRecord{record("Q", "", true, false)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newMemDB()
	srcSvc := newTransferService(src)
	if _, err := srcSvc.BulkImport(ctx, []model.QuestionRecord{
		record("Q1", "Algo", true, false, false),
		record("Q2", "", false, true),
	}); err != nil {
		t.Fatalf("seed import: %v", err)
	}

	var buf bytes.Buffer
	n, err := srcSvc.ExportFile(ctx, model.FormatJSON, model.QuestionFilter{}, &buf)
	if err != nil {
		t.Fatalf("ExportFile() error = %v", err)
	}
	if n != 2 {
		t.Errorf("exported %d questions, want 2", n)
	}

	dst := newMemDB()
	res, err := newTransferService(dst).ImportFile(ctx, model.FormatJSON, &buf)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if res.Created != 2 || len(res.Errors) != 0 {
		t.Fatalf("result = %+v", res)
	}

	var exported []model.QuestionRecord
	for rec, err := range newTransferService(dst).Export(ctx, model.QuestionFilter{}) {
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		exported = append(exported, rec)
	}
	if len(exported) != 2 {
		t.Fatalf("%d records after round trip, want 2", len(exported))
	}
	first := exported[0]
	if first.Text != "Q1" || first.Category != "Algo" || first.Points != 2 || len(first.Options) != 3 || !first.Options[0].IsCorrect {
		t.Errorf("first record = %+v", first)
	}
}

func TestExportFileEmpty(t *testing.T) {
	var buf bytes.Buffer
	n, err := newTransferService(newMemDB()).ExportFile(context.Background(), model.FormatCSV, model.QuestionFilter{}, &buf)
	if err != nil {
		t.Fatalf("ExportFile() error = %v", err)
	}
	if n != 0 || buf.Len() == 0 {
		t.Errorf("n = %d, len = %d; want 0 rows and a header", n, buf.Len())
	}
}
