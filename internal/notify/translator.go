package notify

import (
	"github.com/aussiebroadwan/studio/internal/i18n"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// Translator maps backend error codes to localized messages.
type Translator struct {
	bundle *i18n.Bundle
	locale string
}

func NewTranslator(bundle *i18n.Bundle, locale string) *Translator {
	return &Translator{bundle: bundle, locale: locale}
}

// Key returns the catalog key of err: errors.<CODE> when the catalog knows
// the code, errors.UNKNOWN_ERROR otherwise.
func (t *Translator) Key(err error) string {
	key := "errors." + apiclient.Code(err)
	if t.bundle.Has(key) {
		return key
	}
	return "errors." + apiclient.CodeUnknownError
}

// Message returns the localized message of err.
func (t *Translator) Message(err error) string {
	return t.bundle.Text(t.locale, t.Key(err))
}

// Text formats a catalog key in the translator locale.
func (t *Translator) Text(key string, args ...any) string {
	return t.bundle.Text(t.locale, key, args...)
}
