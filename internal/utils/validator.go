package utils

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	Validate     *validator.Validate
	validateOnce sync.Once

	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// InitValidator builds the shared validator. Field errors are reported with
// their JSON names.
func InitValidator() {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})

		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})

		Validate = v
	})
}

// ValidationMessages flattens validator errors into field -> messages.
func ValidationMessages(errs validator.ValidationErrors) map[string][]string {
	out := make(map[string][]string, len(errs))
	for _, fe := range errs {
		field := fieldPath(fe)
		out[field] = append(out[field], validationMessage(fe))
	}
	return out
}

// fieldPath drops the struct name prefix: "RecipeWriteRequest.ingredients[0].amount"
// becomes "ingredients[0].amount".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "ensure this field has at least " + fe.Param() + " elements"
		}
		if fe.Kind() == reflect.String {
			return "ensure this field has at least " + fe.Param() + " characters"
		}
		return "ensure this value is greater than or equal to " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "ensure this field has no more than " + fe.Param() + " characters"
		}
		return "ensure this value is less than or equal to " + fe.Param()
	case "username":
		return "letters, digits and @/./+/-/_ only"
	case "slug":
		return "letters, digits, hyphens and underscores only"
	case "hexcolor":
		return "enter a valid hex color"
	default:
		return "invalid value (" + fe.Tag() + ")"
	}
}
