package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oaib/exam-backend/internal/qbankio"
	"github.com/oaib/exam-backend/internal/response"
	"github.com/oaib/exam-backend/internal/service"
	"github.com/rs/zerolog"
)

// TransferHandler handles question bank import and export.
type TransferHandler struct {
	transferService *service.TransferService
	maxUploadBytes  int64
	log             zerolog.Logger
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferService *service.TransferService, maxUploadBytes int64, log zerolog.Logger) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		maxUploadBytes:  maxUploadBytes,
		log:             log.With().Str("component", "transfer_handler").Logger(),
	}
}

// ImportQuestions godoc
// POST /api/v1/admin/questions/import
// Multipart field "file". The format comes from ?format= or the file extension.
// Rejected records are reported by index; the rest are still imported.
func (h *TransferHandler) ImportQuestions(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	rawFormat := c.PostForm("format")
	if rawFormat == "" {
		rawFormat = c.Query("format")
	}
	if rawFormat == "" {
		rawFormat = strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	}
	format, err := qbankio.ParseFormat(rawFormat)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	result, err := h.transferService.ImportFile(c.Request.Context(), format, file)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	h.log.Info().
		Str("file", header.Filename).
		Str("format", string(format)).
		Int("created", result.Created).
		Int("rejected", len(result.Errors)).
		Msg("Question bank imported")
	response.Success(c, http.StatusOK, result)
}

// ExportQuestions godoc
// GET /api/v1/admin/questions/export?format=json|xlsx|csv
// Accepts the same filters as the question list.
func (h *TransferHandler) ExportQuestions(c *gin.Context) {
	format, err := qbankio.ParseFormat(c.DefaultQuery("format", "json"))
	if err != nil {
		failFromError(c, h.log, err)
		return
	}
	f, ok := questionFilter(c)
	if !ok {
		return
	}

	filename := fmt.Sprintf("questions-%s.%s", time.Now().Format("20060102-150405"), format)
	c.Header("Content-Type", qbankio.ContentType(format))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	n, err := h.transferService.ExportFile(c.Request.Context(), format, f, c.Writer)
	if err != nil {
		// Headers are already sent; the client sees a truncated file.
		h.log.Error().Err(err).Int("written", n).Msg("Question export aborted")
		_ = c.Error(err)
		return
	}
	h.log.Info().Str("format", string(format)).Int("exported", n).Msg("Question bank exported")
}
