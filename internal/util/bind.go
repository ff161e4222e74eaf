package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
)

// BindJSON decodes the request body into dst, rejecting unknown fields and
// trailing data. Decode failures come back as field errors.
func BindJSON(c *gin.Context, dst any) []FieldError {
	if c.Request.Body == nil {
		return []FieldError{{Field: "body", Message: "request body is required"}}
	}

	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return []FieldError{decodeError(err)}
	}
	if dec.More() {
		return []FieldError{{Field: "body", Message: "request body must contain a single JSON object"}}
	}
	return nil
}

func decodeError(err error) FieldError {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return FieldError{Field: "body", Message: "request body is required"}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return FieldError{Field: typeErr.Field, Message: fmt.Sprintf("%s has the wrong type", typeErr.Field)}
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return FieldError{Field: field, Message: fmt.Sprintf("%s is not a recognised field", field)}
	default:
		return FieldError{Field: "body", Message: "request body must be valid JSON"}
	}
}
