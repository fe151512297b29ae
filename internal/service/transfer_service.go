package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/oaib/exam-backend/internal/model"
	"github.com/oaib/exam-backend/internal/qbankio"
	"github.com/rs/zerolog"
)

// TransferService imports and exports the question bank in bulk.
type TransferService struct {
	questions *QuestionService
	store     QuestionStore
	log       zerolog.Logger
}

// NewTransferService creates a new TransferService.
func NewTransferService(questions *QuestionService, store QuestionStore, log zerolog.Logger) *TransferService {
	return &TransferService{
		questions: questions,
		store:     store,
		log:       log.With().Str("component", "transfer_service").Logger(),
	}
}

// BulkImport creates one question per record. A failing record is reported
// with its zero-based index and never aborts the batch. The only error
// returned is the context's, when it is cancelled mid-import.
func (s *TransferService) BulkImport(ctx context.Context, records []model.QuestionRecord) (*model.ImportResult, error) {
	res := &model.ImportResult{Errors: []model.ImportError{}}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.importOne(ctx, rec); err != nil {
			res.Errors = append(res.Errors, model.ImportError{Index: i, Error: importMessage(err)})
			continue
		}
		res.Created++
	}

	s.log.Info().
		Int("records", len(records)).
		Int("created", res.Created).
		Int("failed", len(res.Errors)).
		Msg("Bulk import finished")
	return res, nil
}

func (s *TransferService) importOne(ctx context.Context, rec model.QuestionRecord) error {
	if rec.DecodeErr != "" {
		return invalid("", "%s", rec.DecodeErr)
	}

	req := model.CreateQuestionRequest{
		Text:             rec.Text,
		Difficulty:       rec.Difficulty,
		Points:           rec.Points,
		TimeLimitSeconds: rec.TimeLimitSeconds,
		IsActive:         &rec.IsActive,
		Options:          make([]model.OptionInput, len(rec.Options)),
	}
	for i, o := range rec.Options {
		order := o.Order
		req.Options[i] = model.OptionInput{Text: o.Text, IsCorrect: o.IsCorrect, Order: &order}
	}

	if rec.Category != "" {
		c, err := s.questions.GetOrCreateCategory(ctx, rec.Category)
		if err != nil {
			return err
		}
		req.CategoryID = &c.ID
	}

	_, err := s.questions.CreateQuestion(ctx, req)
	return err
}

// importMessage keeps validation messages readable and hides the rest behind the wrap chain.
func importMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}

// Export streams the questions matching f as flat records.
func (s *TransferService) Export(ctx context.Context, f model.QuestionFilter) iter.Seq2[model.QuestionRecord, error] {
	return s.store.StreamRecords(ctx, f)
}

// ImportFile decodes r in the given format and imports every record.
func (s *TransferService) ImportFile(ctx context.Context, format model.TransferFormat, r io.Reader) (*model.ImportResult, error) {
	records, err := qbankio.Decode(format, r)
	if err != nil {
		return nil, err
	}
	return s.BulkImport(ctx, records)
}

// ExportFile writes the questions matching f to w in the given format and
// returns how many were written.
func (s *TransferService) ExportFile(ctx context.Context, format model.TransferFormat, f model.QuestionFilter, w io.Writer) (int, error) {
	enc, err := qbankio.NewWriter(format, w)
	if err != nil {
		return 0, err
	}

	n := 0
	for rec, err := range s.Export(ctx, f) {
		if err != nil {
			_ = enc.Close()
			return n, fmt.Errorf("export questions: %w", err)
		}
		if err := enc.Write(rec); err != nil {
			_ = enc.Close()
			return n, fmt.Errorf("encode question %d: %w", n, err)
		}
		n++
	}
	if err := enc.Close(); err != nil {
		return n, fmt.Errorf("finish export: %w", err)
	}

	s.log.Info().Str("format", string(format)).Int("questions", n).Msg("Question bank exported")
	return n, nil
}
