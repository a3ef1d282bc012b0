// Package i18n holds the embedded translation tables.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

const (
	// English is the default language.
	English = "en"
	// French is the only other supported language.
	French = "fr"
)

// Supported lists the languages with a translation table.
var Supported = []string{English, French}

// Catalog maps a language code to its translation tree.
type Catalog struct {
	tables map[string]map[string]any
}

// Default is the catalog built from the embedded locale files.
var Default = mustLoad()

func mustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Load parses the embedded locale files.
func Load() (*Catalog, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}

	c := &Catalog{tables: make(map[string]map[string]any, len(entries))}
	for _, e := range entries {
		data, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", e.Name(), err)
		}
		var table map[string]any
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", e.Name(), err)
		}
		c.tables[strings.TrimSuffix(e.Name(), path.Ext(e.Name()))] = table
	}
	return c, nil
}

// Languages returns the language codes in the catalog, sorted.
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.tables))
	for l := range c.tables {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Has reports whether the catalog has a table for lang.
func (c *Catalog) Has(lang string) bool {
	_, ok := c.tables[lang]
	return ok
}

// Translate resolves a dotted key such as "settings.alerts.success" in the table
// for lang. The key itself is returned when the language, the key or a leaf
// string is missing.
func (c *Catalog) Translate(lang, key string) string {
	var node any = c.tables[lang]
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return key
		}
		if node, ok = m[part]; !ok {
			return key
		}
	}
	s, ok := node.(string)
	if !ok || s == "" {
		return key
	}
	return s
}

// Translatef translates key and replaces {{name}} placeholders with vars.
func (c *Catalog) Translatef(lang, key string, vars map[string]any) string {
	s := c.Translate(lang, key)
	if len(vars) == 0 {
		return s
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, v := range vars {
		pairs = append(pairs, "{{"+name+"}}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
