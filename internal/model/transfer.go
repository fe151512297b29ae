package model

// QuestionRecord is the flat import/export shape of a question.
// Category is referenced by name so records survive a move between databases.
type QuestionRecord struct {
	Text             string         `json:"text"`
	Category         string         `json:"category"`
	Difficulty       Difficulty     `json:"difficulty"`
	Points           int            `json:"points"`
	TimeLimitSeconds int            `json:"time_limit_seconds"`
	IsActive         bool           `json:"is_active"`
	Options          []RecordOption `json:"options"`

	// DecodeErr is set by a decoder when this record alone could not be parsed.
	DecodeErr string `json:"-"`
}

// RecordOption is an option inside a QuestionRecord.
type RecordOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Order     int    `json:"order"`
}

// ImportError reports why the record at Index (zero-based) was rejected.
type ImportError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// ImportResult is the outcome of a bulk import. Errors never abort the batch.
type ImportResult struct {
	Created int           `json:"created"`
	Errors  []ImportError `json:"errors"`
}

// TransferFormat names a supported question bank file format.
type TransferFormat string

const (
	FormatJSON TransferFormat = "json"
	FormatXLSX TransferFormat = "xlsx"
	FormatCSV  TransferFormat = "csv"
)
