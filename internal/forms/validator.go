package forms

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	es_translations "github.com/go-playground/validator/v10/translations/es"
	"golang.org/x/text/language"
)

const notBlankTag = "notblank"

// FieldErrors maps a field (json name) to its localized message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

// Validator checks form values locally so that invalid input never reaches
// the backend.
type Validator struct {
	validate *validator.Validate
	uni      *ut.UniversalTranslator
}

func NewValidator() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation(notBlankTag, notBlank); err != nil {
		return nil, fmt.Errorf("register %s: %w", notBlankTag, err)
	}

	_en, _es := en.New(), es.New()
	uni := ut.New(_en, _en, _es)

	enTrans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, enTrans); err != nil {
		return nil, fmt.Errorf("register en translations: %w", err)
	}
	esTrans, _ := uni.GetTranslator("es")
	if err := es_translations.RegisterDefaultTranslations(v, esTrans); err != nil {
		return nil, fmt.Errorf("register es translations: %w", err)
	}

	custom := map[ut.Translator]string{
		enTrans: "{0} cannot be blank",
		esTrans: "{0} no puede estar vacío",
	}
	for trans, text := range custom {
		err := v.RegisterTranslation(notBlankTag, trans,
			func(t ut.Translator) error { return t.Add(notBlankTag, text, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T(notBlankTag, fe.Field())
				return msg
			},
		)
		if err != nil {
			return nil, fmt.Errorf("register %s translation: %w", notBlankTag, err)
		}
	}

	return &Validator{validate: v, uni: uni}, nil
}

func notBlank(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}

// translator picks the validator translator of a BCP 47 locale.
func (v *Validator) translator(locale string) ut.Translator {
	base, _ := language.Make(locale).Base()
	trans, _ := v.uni.FindTranslator(base.String(), "en")
	return trans
}

// Struct validates s and returns FieldErrors, or nil.
func (v *Validator) Struct(locale string, s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return v.translate(locale, "", err)
}

// Var validates a single value against tag and returns the message of the
// first failure, or "" when the value is valid.
func (v *Validator) Var(locale string, value any, tag string) string {
	if tag == "" {
		return ""
	}
	err := v.validate.Var(value, tag)
	if err == nil {
		return ""
	}
	fe, ok := v.translate(locale, "value", err).(FieldErrors)
	if !ok {
		return err.Error()
	}
	for _, msg := range fe {
		return msg
	}
	return ""
}

func (v *Validator) translate(locale, name string, err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	trans := v.translator(locale)
	out := FieldErrors{}
	for _, fe := range verrs {
		field, msg := fe.Field(), fe.Translate(trans)
		if field == "" {
			// Var failures have no field name to lead the message.
			field, msg = name, strings.TrimSpace(msg)
		}
		if _, exists := out[field]; !exists {
			out[field] = msg
		}
	}
	return out
}
