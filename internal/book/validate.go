package book

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their wire names so forms can match them to inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return e.Field + ": " + e.Message }

// ValidationErrors is the set of problems found in a draft.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Error())
	}
	return "invalid book: " + strings.Join(parts, "; ")
}

// Field returns the message for field, or "" when it is valid.
func (e ValidationErrors) Field(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Validate checks that every required field of d is populated. It returns
// nil or a ValidationErrors value.
func (d Draft) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate book: %w", err)
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe.Field(), fe.Tag())})
	}
	return out
}

func fieldMessage(field, tag string) string {
	switch field {
	case "numPages":
		return "Valid page number (minimum 1) is required"
	case "cover":
		return "Valid cover URL is required"
	}
	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}
	if tag == "required" {
		return label + " is required"
	}
	return label + " is invalid"
}

var fieldLabels = map[string]string{
	"isbn":      "ISBN",
	"title":     "Title",
	"author":    "Author",
	"publisher": "Publisher",
	"price":     "Price",
	"abstract":  "Abstract",
}
