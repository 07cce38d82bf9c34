package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	v *validator.Validate

	identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
)

func init() {
	v = validator.New()

	// sqlident accept plain or schema qualified sql identifier, e.g: users or public.users
	err := v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
		return identifierRegex.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

func Validate(i interface{}) error {
	if i == nil {
		return fmt.Errorf("data to validate is nil")
	}

	return v.Struct(i)
}

// Var validates single value using tag, e.g: Var(tableName, "required,sqlident").
func Var(field interface{}, tag string) error {
	return v.Var(field, tag)
}
