package util

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimals are validated as their value rounded to cents, so 0.004 fails gt=0
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		switch d := field.Interface().(type) {
		case decimal.Decimal:
			return d.Round(2).InexactFloat64()
		case Amount:
			return d.Round(2).InexactFloat64()
		}
		return nil
	}, decimal.Decimal{}, Amount{})

	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, _, err := ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// ValidateStruct checks s against its `validate` tags and returns one
// FieldError per failed field, or nil.
func ValidateStruct(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		if fe.Param() == "1" {
			return fmt.Sprintf("%s must not be empty", field)
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "isodate":
		return fmt.Sprintf("%s must be a valid ISO 8601 date", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,      // 2024-01-05T10:00:00.000Z
	"2006-01-02T15:04:05", // 2024-01-05T10:00:00
	"2006-01-02T15:04",    // 2024-01-05T10:00
	"2006-01-02",          // 2024-01-05
}

// ParseDate parses an ISO 8601 date or timestamp. dateOnly is true for the
// YYYY-MM-DD form. Values without a zone are taken as UTC and every result
// is normalised to UTC, which is how occurred_at is stored.
func ParseDate(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, errors.New("date is empty")
	}
	for i, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), i == len(dateLayouts)-1, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q", s)
}
