package task

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report parameters by the names used on the command line and in task files
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks the `validate` struct tags of v. The error names every
// offending field.
func Validate(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fe.Field()+" is required")
		case "oneof":
			messages = append(messages, fe.Field()+" must be one of ["+fe.Param()+"]")
		default:
			messages = append(messages, fe.Field()+" failed "+fe.Tag()+" validation")
		}
	}
	return errors.New(strings.Join(messages, "; "))
}

// ValidateParameters validates the parameters of a task and returns a
// KindParameter error.
func ValidateParameters(taskName string, params any) error {
	if err := Validate(params); err != nil {
		return &Error{Kind: KindParameter, Task: taskName, Err: err}
	}
	return nil
}
