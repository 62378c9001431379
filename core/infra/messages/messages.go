package messages

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en_US"

//go:embed messages.yaml
var embeddedCatalog []byte

// Formatter renders a message key with named {placeholder} parameters.
type Formatter interface {
	Format(key string, params map[string]string) string
}

// Catalog holds translated message templates keyed by locale and message key.
type Catalog struct {
	locale   string
	fallback string
	entries  map[string]map[string]string
}

type rawCatalog struct {
	Fallback string                       `yaml:"fallback"`
	Locales  map[string]map[string]string `yaml:"locales"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog in DefaultLocale.
func Default() *Catalog {
	defaultOnce.Do(func() {
		cat, err := Parse(embeddedCatalog, DefaultLocale)
		if err != nil {
			panic(fmt.Sprintf("embedded message catalog: %v", err))
		}
		defaultCatalog = cat
	})
	return defaultCatalog
}

// ForLocale returns the embedded catalog bound to locale.
func ForLocale(locale string) (*Catalog, error) {
	return Parse(embeddedCatalog, locale)
}

// Parse decodes a YAML catalog and binds it to locale. Unknown locales fall
// back to a locale sharing the same language, then to the catalog fallback.
func Parse(data []byte, locale string) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse message catalog: %w", err)
	}
	if len(raw.Locales) == 0 {
		return nil, errors.New("message catalog has no locales")
	}
	fallback := normalizeLocale(raw.Fallback)
	if fallback == "" {
		fallback = DefaultLocale
	}
	entries := make(map[string]map[string]string, len(raw.Locales))
	for loc, msgs := range raw.Locales {
		entries[normalizeLocale(loc)] = msgs
	}
	if _, ok := entries[fallback]; !ok {
		return nil, fmt.Errorf("message catalog fallback locale %q not defined", fallback)
	}
	return &Catalog{
		locale:   resolveLocale(entries, normalizeLocale(locale), fallback),
		fallback: fallback,
		entries:  entries,
	}, nil
}

// Locale reports the locale the catalog renders in.
func (c *Catalog) Locale() string {
	if c == nil {
		return ""
	}
	return c.locale
}

// Format renders key in the catalog locale. Missing keys render as the key
// itself so callers always get non-empty text.
func (c *Catalog) Format(key string, params map[string]string) string {
	tmpl := key
	if c != nil {
		if msg, ok := c.entries[c.locale][key]; ok {
			tmpl = msg
		} else if msg, ok := c.entries[c.fallback][key]; ok {
			tmpl = msg
		}
	}
	return render(tmpl, params)
}

func render(tmpl string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", params[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func resolveLocale(entries map[string]map[string]string, locale, fallback string) string {
	if locale == "" {
		return fallback
	}
	if _, ok := entries[locale]; ok {
		return locale
	}
	lang, _, _ := strings.Cut(locale, "_")
	candidates := make([]string, 0, len(entries))
	for loc := range entries {
		if strings.HasPrefix(loc, lang+"_") || loc == lang {
			candidates = append(candidates, loc)
		}
	}
	if len(candidates) > 0 {
		sort.Strings(candidates)
		return candidates[0]
	}
	return fallback
}

func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.TrimSpace(locale), "-", "_")
}
