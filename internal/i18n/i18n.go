package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// DefaultLanguage is used when no supported language was requested.
const DefaultLanguage = "en"

//go:embed locales/*.json
var localesFS embed.FS

// Localizer serves the panel texts. Catalogs are read once from the embedded
// locales and never change afterwards.
type Localizer struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string
}

// NewLocalizer loads the catalog of every supported language. A catalog that
// misses a key present in the English one is an error.
func NewLocalizer() (*Localizer, error) {
	l := &Localizer{catalogs: make(map[string]map[string]string, len(Languages()))}

	for _, lang := range Languages() {
		catalog, err := readCatalog(lang)
		if err != nil {
			return nil, err
		}
		l.catalogs[lang] = catalog
	}

	for _, lang := range Languages() {
		for key := range l.catalogs[DefaultLanguage] {
			if _, ok := l.catalogs[lang][key]; !ok {
				return nil, fmt.Errorf("locale %s is missing key %q", lang, key)
			}
		}
	}

	return l, nil
}

func readCatalog(lang string) (map[string]string, error) {
	path := "locales/" + lang + ".json"
	raw, err := localesFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locale %s: %w", path, err)
	}

	catalog := make(map[string]string)
	if err = json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("failed to decode locale %s: %w", path, err)
	}
	return catalog, nil
}

// Get translates key into lang. Unknown languages and missing keys fall back
// to English; a key unknown to English is returned unchanged.
func (l *Localizer) Get(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, candidate := range []string{lang, DefaultLanguage} {
		if text, ok := l.catalogs[candidate][key]; ok {
			return text
		}
	}
	return key
}

// GetWithData translates key and fills its {name} placeholders.
// Example: GetWithData("en", "dashboard.welcome", map[string]interface{}{"username": "admin"}).
func (l *Localizer) GetWithData(lang, key string, data map[string]interface{}) string {
	text := l.Get(lang, key)
	if len(data) == 0 {
		return text
	}

	pairs := make([]string, 0, 2*len(data)) //nolint:mnd // old/new pairs
	for name, value := range data {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Has reports whether key is translated in English, the fallback language.
func (l *Localizer) Has(key string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.catalogs[DefaultLanguage][key]
	return ok
}

// Languages returns the supported language codes.
func Languages() []string {
	return []string{DefaultLanguage, "uk"}
}

// NormalizeLanguageCode maps a language tag like "en-US" or "ua" onto a supported language.
func NormalizeLanguageCode(lang string) string {
	const langCodeShortLength = 2
	lang = strings.ToLower(strings.TrimSpace(lang))
	if len(lang) < langCodeShortLength {
		return DefaultLanguage
	}

	switch lang[:langCodeShortLength] {
	case "uk", "ua": // Both uk and ua map to Ukrainian
		return "uk"
	default:
		return DefaultLanguage
	}
}

// FromAcceptLanguage picks the first supported language of an Accept-Language
// header, in the order the browser listed them. Quality values are ignored.
func FromAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" || tag == "*" {
			continue
		}
		lower := strings.ToLower(tag)
		if strings.HasPrefix(lower, "en") || strings.HasPrefix(lower, "uk") || strings.HasPrefix(lower, "ua") {
			return NormalizeLanguageCode(lower)
		}
	}
	return DefaultLanguage
}
