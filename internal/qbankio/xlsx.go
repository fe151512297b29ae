package qbankio

import (
	"fmt"
	"io"

	"github.com/oaib/exam-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Questions"

func decodeXLSX(r io.Reader) ([]model.QuestionRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer rows.Close()

	records := []model.QuestionRecord{}
	header := true
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		if header {
			header = false
			continue
		}
		if rec, ok := recordFromRow(cols); ok {
			records = append(records, rec)
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return records, nil
}

// xlsxWriter streams rows into a workbook; the workbook itself is only
// serialized to out on Close.
type xlsxWriter struct {
	out  io.Writer
	f    *excelize.File
	sw   *excelize.StreamWriter
	row  int
	body int
	ok   int
}

var columnWidths = []struct {
	min, max int
	width    float64
}{
	{1, 1, 60},
	{2, 2, 18},
	{3, 6, 12},
	{7, 7, 35}, {8, 8, 12},
	{9, 9, 35}, {10, 10, 12},
	{11, 11, 35}, {12, 12, 12},
	{13, 13, 35}, {14, 14, 12},
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func newXLSXWriter(out io.Writer) (*xlsxWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1A535C"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorder(),
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{Border: thinBorder()})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("body style: %w", err)
	}
	okStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "00AA00"},
		Border: thinBorder(),
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("correct style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stream writer: %w", err)
	}
	for _, cw := range columnWidths {
		if err := sw.SetColWidth(cw.min, cw.max, cw.width); err != nil {
			f.Close()
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	head := make([]interface{}, len(Header))
	for i, h := range Header {
		head[i] = excelize.Cell{StyleID: headStyle, Value: h}
	}
	if err := sw.SetRow("A1", head); err != nil {
		f.Close()
		return nil, fmt.Errorf("header row: %w", err)
	}

	return &xlsxWriter{out: out, f: f, sw: sw, row: 1, body: bodyStyle, ok: okStyle}, nil
}

func (x *xlsxWriter) Write(rec model.QuestionRecord) error {
	x.row++
	values := []interface{}{
		excelize.Cell{StyleID: x.body, Value: rec.Text},
		excelize.Cell{StyleID: x.body, Value: rec.Category},
		excelize.Cell{StyleID: x.body, Value: string(rec.Difficulty)},
		excelize.Cell{StyleID: x.body, Value: rec.Points},
		excelize.Cell{StyleID: x.body, Value: rec.TimeLimitSeconds},
		excelize.Cell{StyleID: x.body, Value: yesNo(rec.IsActive)},
	}
	for i, o := range rec.Options {
		if i >= model.MaxSpreadsheetOptions {
			break
		}
		flag := excelize.Cell{StyleID: x.body, Value: yesNo(o.IsCorrect)}
		if o.IsCorrect {
			flag.StyleID = x.ok
		}
		values = append(values, excelize.Cell{StyleID: x.body, Value: o.Text}, flag)
	}

	cellName, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return err
	}
	return x.sw.SetRow(cellName, values)
}

func (x *xlsxWriter) Close() error {
	defer x.f.Close()
	if err := x.sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := x.f.Write(x.out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
