package middleware

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
)

// fieldNameTags name a field in validation errors, first match wins, so
// errors read "id" for a path parameter rather than "ChannelID".
var fieldNameTags = []string{"json", "param", "query", "header"}

// Validator adds two rules to the go-playground defaults:
//
//	objectid  a 24 character hex document id
//	nonblank  a string with at least one non space rune
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return models.ObjectID(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), func(r rune) bool { return !unicode.IsSpace(r) }) >= 0
	})
	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}

func fieldName(f reflect.StructField) string {
	for _, tag := range fieldNameTags {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}
