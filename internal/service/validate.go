package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Check runs struct validation and turns the first failure into an
// INVALID_INPUT error naming the json field. Services call it on their
// inputs and the HTTP layer uses it as echo's validator.
func Check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return Invalid(err.Error())
	}
	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return Invalid(fmt.Sprintf("%s is required", fe.Field()))
	case "min", "max":
		return Invalid(fmt.Sprintf("%s must be %s %s", fe.Field(), map[string]string{"min": "at least", "max": "at most"}[fe.Tag()], fe.Param()))
	case "oneof":
		return Invalid(fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param()))
	case "email":
		return Invalid(fmt.Sprintf("%s must be a valid email", fe.Field()))
	}
	return Invalid(fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
}
