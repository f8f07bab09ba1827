package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names so clients see the field they sent
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ReadAndValidateRequest binds, applies defaults and validates req. It returns
// nil or a []ValidationError ready for BadRequestResponse.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return validationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return validationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return validationErrors(err)
	}
	return nil
}

// ValidateStruct validates a value that did not come from an HTTP request.
func ValidateStruct(v interface{}) []ValidationError {
	if err := defaults.Set(v); err != nil {
		return validationErrors(err)
	}
	if err := validate.Struct(v); err != nil {
		return validationErrors(err)
	}
	return nil
}

func validationErrors(err error) []ValidationError {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		out := make([]ValidationError, 0, len(ves))
		for _, fe := range ves {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: fieldMessage(fe),
				Params:  fieldParams(fe),
			})
		}
		return out
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: "ERR_MALFORMED", Message: fmt.Sprintf("%v", he.Message)}}
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	unit := ""
	switch fe.Type().Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array:
		unit = " items"
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s%s", field, fe.Param(), unit)
	case "max":
		return fmt.Sprintf("%s must have at most %s%s", field, fe.Param(), unit)
	case "len":
		return fmt.Sprintf("%s must have exactly %s%s", field, fe.Param(), unit)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

func fieldParams(fe validator.FieldError) map[string]interface{} {
	switch fe.Tag() {
	case "min", "gte":
		return map[string]interface{}{"min": fe.Param()}
	case "max", "lte":
		return map[string]interface{}{"max": fe.Param()}
	case "len":
		return map[string]interface{}{"len": fe.Param()}
	case "oneof":
		return map[string]interface{}{"options": strings.Split(fe.Param(), " ")}
	}
	return nil
}
