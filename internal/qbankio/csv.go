package qbankio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/oaib/exam-backend/internal/model"
)

func decodeCSV(r io.Reader) ([]model.QuestionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.QuestionRecord{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	records := []model.QuestionRecord{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		if rec, ok := recordFromRow(row); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

type csvWriter struct {
	cw     *csv.Writer
	header bool
}

func newCSVWriter(w io.Writer) *csvWriter {
	return &csvWriter{cw: csv.NewWriter(w)}
}

func (c *csvWriter) writeHeader() error {
	if c.header {
		return nil
	}
	c.header = true
	return c.cw.Write(Header)
}

func (c *csvWriter) Write(rec model.QuestionRecord) error {
	if err := c.writeHeader(); err != nil {
		return err
	}
	return c.cw.Write(rowFromRecord(rec))
}

func (c *csvWriter) Close() error {
	if err := c.writeHeader(); err != nil {
		return err
	}
	c.cw.Flush()
	return c.cw.Error()
}
