package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"imdb/proj/internal/utils"

	govalidator "github.com/go-playground/validator/v10"
)

// Errors maps a field name (as it appears in JSON) to a human readable message.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func NewError(field, msg string) Errors {
	return Errors{field: msg}
}

var slugRx = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// New returns a validator with the custom tags used across the project registered.
func New() *govalidator.Validate {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return fieldName(f)
	})
	if err := v.RegisterValidation("notfutureyear", ValidateNotFutureYear); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("slug", ValidateSlug); err != nil {
		panic(err)
	}
	return v
}

func fieldName(f reflect.StructField) string {
	for _, tagName := range []string{"json", "schema"} {
		if tag := f.Tag.Get(tagName); tag != "" && tag != "-" {
			if name := strings.Split(tag, ",")[0]; name != "" {
				return name
			}
		}
	}
	return utils.CamelToSnake(f.Name)
}

func ProcessValidationErrors(obj any, errs govalidator.ValidationErrors) Errors {
	processedErrors := make(Errors)
	for _, e := range errs {
		processedErrors[fieldPath(e)] = GetErrorMsgForField(obj, e)
	}
	return processedErrors
}

// fieldPath drops the top-level struct name from the namespace ("Input.genre[0]" -> "genre[0]").
func fieldPath(e govalidator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// ValidateStruct returns nil when obj is valid and the per-field messages otherwise.
func ValidateStruct(validator *govalidator.Validate, obj any) Errors {
	err := validator.Struct(obj)
	if err == nil {
		return nil
	}
	validationErrs, ok := err.(govalidator.ValidationErrors)
	if !ok {
		panic(err)
	}
	return ProcessValidationErrors(obj, validationErrs)
}

func GetErrorMsgForField(obj any, err govalidator.FieldError) (errorMsg string) {
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if field, found := t.FieldByName(err.StructField()); found {
		errorMsg = field.Tag.Get("errorMsg")
	}
	if errorMsg != "" {
		return
	}
	switch err.Tag() {
	case "required":
		errorMsg = "This field is required"
	case "max":
		if err.Kind() == reflect.String || err.Kind() == reflect.Slice {
			errorMsg = fmt.Sprintf("Ensure this field has no more than %s characters", err.Param())
		} else {
			errorMsg = fmt.Sprintf("The maximum value is %s", err.Param())
		}
	case "min":
		if err.Kind() == reflect.String || err.Kind() == reflect.Slice {
			errorMsg = fmt.Sprintf("Ensure this field has at least %s characters", err.Param())
		} else {
			errorMsg = fmt.Sprintf("The minimum value is %s", err.Param())
		}
	case "gte":
		errorMsg = fmt.Sprintf("Value should be greater than or equal to %s", err.Param())
	case "lte":
		errorMsg = fmt.Sprintf("Value should be less than or equal to %s", err.Param())
	case "lt":
		errorMsg = fmt.Sprintf("Value should be less than %s", err.Param())
	case "gt":
		errorMsg = fmt.Sprintf("Value should be greater than %s", err.Param())
	case "oneof":
		errorMsg = fmt.Sprintf("Value should be one of %s", err.Param())
	case "len":
		errorMsg = fmt.Sprintf("Length should be equal to %s", err.Param())
	case "unique":
		errorMsg = "Value must not contain duplicate values"
	case "email":
		errorMsg = "Value must be a valid email address"
	case "alphanum":
		errorMsg = "Value must be alphanumeric"
	case "slug":
		errorMsg = "Enter a valid slug consisting of letters, numbers, underscores or hyphens"
	case "notfutureyear":
		errorMsg = fmt.Sprintf("Year cannot be greater than %d", time.Now().Year())
	default:
		errorMsg = "This field is invalid"
	}
	return
}

// CUSTOM VALIDATORS

// ValidateNotFutureYear rejects years after the current calendar year.
func ValidateNotFutureYear(fl govalidator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return f.Int() <= int64(time.Now().Year())
	}
	return false
}

func ValidateSlug(fl govalidator.FieldLevel) bool {
	return slugRx.MatchString(fl.Field().String())
}
