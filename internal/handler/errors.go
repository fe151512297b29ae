package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/oaib/exam-backend/internal/qbankio"
	"github.com/oaib/exam-backend/internal/response"
	"github.com/oaib/exam-backend/internal/service"
	"github.com/rs/zerolog"
)

// failFromError maps a service error onto the response envelope.
// Unexpected errors are logged and reported as INTERNAL_ERROR.
func failFromError(c *gin.Context, log zerolog.Logger, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		field := ve.Field
		if field == "" {
			field = "detail"
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{field: ve.Message})
	case errors.Is(err, service.ErrValidation):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"detail": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrDependencyExists):
		response.Fail(c, http.StatusConflict, response.ErrDependencyExists)
	case errors.Is(err, service.ErrConflict):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, qbankio.ErrUnsupportedFormat):
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFormat)
	case errors.Is(err, qbankio.ErrInvalidFile):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrInvalidFile, err.Error())
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// paramID parses a positive integer path parameter, writing INVALID_ID otherwise.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// pageQuery reads ?page= and ?per_page=. Bounds are enforced by the services.
func pageQuery(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "10"))
	return page, perPage
}

// optionalInt64 parses an optional positive id query parameter.
func optionalInt64(c *gin.Context, key string) (*int64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{key: "doit être un identifiant positif"})
		return nil, false
	}
	return &v, true
}

// optionalBool parses an optional boolean query parameter.
func optionalBool(c *gin.Context, key string) (*bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{key: "doit être true ou false"})
		return nil, false
	}
	return &v, true
}
