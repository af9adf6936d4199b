package helper

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"gopkg.in/go-playground/validator.v9"
	en_translations "gopkg.in/go-playground/validator.v9/translations/en"

	"knowledge-base/models"
)

// Validator checks API inputs and reports field-level messages in English.
type Validator struct {
	Validate   *validator.Validate
	Translator ut.Translator
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		panic("register validator translations: " + err.Error())
	}

	return &Validator{Validate: v, Translator: trans}
}

// Struct validates s and returns a VALIDATION_FAILED error keyed by the
// inputs' json names, or nil.
func (u *Validator) Struct(s interface{}) error {
	err := u.Validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return models.NewValidationError(err.Error(), nil)
	}

	fields := map[string][]string{}
	for _, fe := range validationErrors {
		key := fe.Field()
		fields[key] = append(fields[key], fe.Translate(u.Translator))
	}
	return models.NewValidationError("invalid input", fields)
}
