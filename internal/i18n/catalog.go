// Package i18n loads the embedded message catalogs and formats localized
// text for notifications and validation errors.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every other catalog falls back to.
const BaseLocale = "en-US"

//go:embed locales/*/*.yaml
var embedded embed.FS

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Bundle holds the messages of every locale.
type Bundle struct {
	locales map[string]map[string]string
	builder *catalog.Builder
	tags    []language.Tag
	matcher language.Matcher
}

var defaultBundle = sync.OnceValues(LoadEmbedded)

// Default returns the process wide embedded bundle.
func Default() (*Bundle, error) {
	return defaultBundle()
}

// LoadEmbedded loads the catalogs shipped with the binary.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embedded)
}

// LoadFromFS loads locales/<locale>/<namespace>.yaml files from fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	b := &Bundle{locales: map[string]map[string]string{}}
	for _, p := range paths {
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}

		var file catalogFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := b.add(p, file); err != nil {
			return nil, err
		}
	}

	if _, ok := b.locales[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	if err := b.build(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bundle) add(p string, file catalogFile) error {
	dirLocale := path.Base(path.Dir(p))
	if file.Locale != dirLocale {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", p, file.Locale, dirLocale)
	}
	if ns := strings.TrimSuffix(path.Base(p), path.Ext(p)); file.Namespace != ns {
		return fmt.Errorf("catalog %s: namespace %q must match filename %q", p, file.Namespace, ns)
	}
	if len(file.Messages) == 0 {
		return fmt.Errorf("catalog %s: no messages", p)
	}

	msgs, ok := b.locales[file.Locale]
	if !ok {
		msgs = map[string]string{}
		b.locales[file.Locale] = msgs
	}
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: blank message key", p)
		}
		if _, dup := msgs[key]; dup {
			return fmt.Errorf("catalog %s: duplicate key %q", p, key)
		}
		msgs[key] = value
	}
	return nil
}

// build registers every message with an x/text catalog. Keys missing in a
// locale are filled from the base locale.
func (b *Bundle) build() error {
	base := language.MustParse(BaseLocale)
	b.builder = catalog.NewBuilder(catalog.Fallback(base))
	b.tags = []language.Tag{base}

	for _, locale := range b.Locales() {
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		if locale != BaseLocale {
			b.tags = append(b.tags, tag)
		}

		for key, value := range b.locales[BaseLocale] {
			if own, ok := b.locales[locale][key]; ok {
				value = own
			}
			if err := b.builder.SetString(tag, key, value); err != nil {
				return fmt.Errorf("register %s %s: %w", locale, key, err)
			}
		}
	}

	b.matcher = language.NewMatcher(b.tags)
	return nil
}

// Locales returns the available locales, sorted.
func (b *Bundle) Locales() []string {
	out := make([]string, 0, len(b.locales))
	for l := range b.locales {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Has reports whether key exists in the base locale.
func (b *Bundle) Has(key string) bool {
	_, ok := b.locales[BaseLocale][key]
	return ok
}

// Match returns the supported tag closest to locale, which may be any
// BCP 47 string or an Accept-Language style list.
func (b *Bundle) Match(locale string) language.Tag {
	desired, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(desired) == 0 {
		return b.tags[0]
	}
	_, idx, _ := b.matcher.Match(desired...)
	return b.tags[idx]
}

// Printer returns a printer for the closest supported locale.
func (b *Bundle) Printer(locale string) *message.Printer {
	return message.NewPrinter(b.Match(locale), message.Catalog(b.builder))
}

// Text formats key for locale. Unknown keys are returned as is.
func (b *Bundle) Text(locale, key string, args ...any) string {
	if !b.Has(key) {
		return key
	}
	return b.Printer(locale).Sprintf(key, args...)
}
