package handlers

import (
	"errors"
	"net/http"
	"strings"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
)

// envelope starts a response body whose keys serialize in insertion order,
// keeping "message" ahead of the payload instead of the alphabetical order a
// plain map would produce.
func envelope(message string) *dto.Record {
	return dto.NewRecord().Set("message", message)
}

// respondError maps service errors onto HTTP status codes. Internal failures
// never leak their underlying cause to the client.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, envelope("An unexpected error occurred").
			Set("error", "Internal server error"))
		return
	}

	switch appErr.Kind {
	case apperrors.KindNotFound:
		c.JSON(http.StatusNotFound, envelope(appErr.Message).
			Set("error", appErr.Message))
	case apperrors.KindValidation:
		body := envelope(appErr.Message).Set("error", "Validation failed")
		if len(appErr.Fields) > 0 {
			body.Set("errors", appErr.Fields)
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	case apperrors.KindUnauthenticated:
		c.JSON(http.StatusUnauthorized, envelope(appErr.Message).
			Set("error", "Unauthenticated"))
	default:
		c.JSON(http.StatusInternalServerError, envelope(appErr.Message).
			Set("error", "Internal server error"))
	}
}

// respondBindingError turns gin binding failures into 422 responses with
// per-field messages so clients see which inputs were rejected.
func respondBindingError(c *gin.Context, err error) {
	fields := make(map[string][]string)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := toSnakeCase(fe.Field())
			fields[field] = append(fields[field], fieldMessage(field, fe))
		}
	}

	body := envelope("The given data was invalid").Set("error", "Validation failed")
	if len(fields) > 0 {
		body.Set("errors", fields)
	}
	c.JSON(http.StatusUnprocessableEntity, body)
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "The " + field + " field is required"
	case "email":
		return "The " + field + " must be a valid email address"
	case "min":
		return "The " + field + " must be at least " + fe.Param() + " characters"
	case "max":
		return "The " + field + " may not be greater than " + fe.Param() + " characters"
	case "oneof":
		return "The " + field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "The " + field + " is not a valid date"
	case "gte", "lte":
		return "The " + field + " is out of range"
	case "uuid":
		return "The " + field + " must be a valid UUID"
	default:
		return "The " + field + " is invalid"
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseIDParam reads the :id path segment as a UUID. A malformed value
// behaves like a missing resource.
func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, envelope("Resource not found").
			Set("error", "Resource not found"))
		return uuid.Nil, false
	}
	return id, true
}

func parseBulkIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.FromString(s); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
