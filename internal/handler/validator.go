package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05Z07:00"
)

var (
	errRequired        = errors.New("is required")
	errInvalidDate     = errors.New("must be a date in YYYY-MM-DD format")
	errInvalidDateTime = errors.New("must be a valid datetime in RFC3339 format")
	errNotNegative     = errors.New("must not be negative")
)

// fieldMessages keys are "<json field>.<tag>".
var fieldMessages = map[string]error{
	"trip_type.required":        errRequired,
	"payment_method.required":   errRequired,
	"dob.datetime":              errInvalidDate,
	"pickup_date_time.datetime": errInvalidDateTime,
	"return_date_time.datetime": errInvalidDateTime,
	"distance_miles.gte":        errNotNegative,
	"origin.required":           errRequired,
	"destination.required":      errRequired,
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors converts validator errors into a field → message map.
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return out
	}
	for _, e := range validationErrs {
		msg := e.Field() + " is invalid"
		if v, ok := fieldMessages[e.Field()+"."+e.Tag()]; ok {
			msg = v.Error()
		}
		out[e.Field()] = msg
	}
	return out
}
