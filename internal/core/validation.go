package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// UserChoices are the options a user picks for one file.
type UserChoices struct {
	CleanDuplicates bool `json:"clean_duplicates"`
	FillMissing     bool `json:"fill_missing"`

	// SelectedColumns keeps only these columns, in this order.
	// Empty keeps every column.
	SelectedColumns []string `json:"selected_columns" validate:"omitempty,dive,required"`

	ChartRequested bool   `json:"chart_requested"`
	ExportFormat   Format `json:"export_format" validate:"omitempty,oneof=csv excel"`

	// Export asks for an artifact in ExportFormat.
	Export bool `json:"export"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so messages match the API.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the choices and wraps any failure in ErrInvalidChoices.
func (c UserChoices) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidChoices, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s must not be empty", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidChoices, strings.Join(msgs, "; "))
}
