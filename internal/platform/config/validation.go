package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their koanf key and adds the checks that
// span several fields.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(f.Name)
		}

		return name
	})

	v.RegisterStructValidation(validateGemini, GeminiConfig{})
	v.RegisterStructValidation(validateRetry, RetryConfig{})

	return v
}

func validateGemini(sl validator.StructLevel) {
	g := sl.Current().Interface().(GeminiConfig)

	if g.OverallTimeout > 0 && g.OverallTimeout < g.AttemptTimeout {
		sl.ReportError(g.OverallTimeout, "overall_timeout", "OverallTimeout", "gtefield", "attempt_timeout")
	}
}

func validateRetry(sl validator.StructLevel) {
	r := sl.Current().Interface().(RetryConfig)

	if r.MaxInterval > 0 && r.MaxInterval < r.InitialInterval {
		sl.ReportError(r.MaxInterval, "max_interval", "MaxInterval", "gtefield", "initial_interval")
	}
}

// Validate checks c and lists every violation in one error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	lines := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		lines[i] = describe(fe)
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(lines, "\n  "))
}

// describe renders one violation as "<key> <problem>".
func describe(fe validator.FieldError) string {
	key := keyPath(fe.Namespace())

	var problem string
	switch fe.Tag() {
	case "required":
		problem = "is required"
	case "required_if":
		problem = "is required when " + conditionKey(fe.Param())
	case "min":
		problem = "must be at least " + fe.Param()
	case "max":
		problem = "must be at most " + fe.Param()
	case "oneof":
		problem = "must be one of: " + fe.Param()
	case "url":
		problem = "must be a valid URL"
	case "gtefield":
		problem = "must be at least " + keyPath(parentPath(fe.Namespace())+"."+fe.Param())
	default:
		problem = "failed validation: " + fe.Tag()
	}

	return key + " " + problem
}

// keyPath drops the root struct from a namespace: "Config.server.port"
// becomes "server.port".
func keyPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}

	return rest
}

func parentPath(namespace string) string {
	if i := strings.LastIndex(namespace, "."); i >= 0 {
		return namespace[:i]
	}

	return namespace
}

// conditionKey lowercases the field name in a required_if param such as
// "Enabled true".
func conditionKey(param string) string {
	field, value, _ := strings.Cut(param, " ")

	return strings.ToLower(field) + " " + value
}
