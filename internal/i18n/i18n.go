// Package i18n loads YAML translation catalogs and resolves keys per language.
//
// Each file maps a language code to a tree of keys; nested keys are flattened
// with dots. Lookups fall back to the default language and finally to the key.
package i18n

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	T(key string) string
	Lang() string
}

type catalog map[string]map[string]string

// Manager holds the catalogs of every loaded language.
type Manager struct {
	catalogs    catalog
	defaultLang string
}

// LoadFromDir loads every *.yaml and *.yml file in dir.
func LoadFromDir(dir, defaultLang string) (*Manager, error) {
	return LoadFS(os.DirFS(dir), defaultLang)
}

// LoadFS loads every YAML file at the root of fsys. Later files override keys
// of earlier ones, in lexical file order.
func LoadFS(fsys fs.FS, defaultLang string) (*Manager, error) {
	if defaultLang == "" {
		defaultLang = "en"
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("i18n: read locales: %w", err)
	}

	all := make(catalog)
	files := 0
	for _, entry := range entries {
		ext := strings.ToLower(path.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		files++

		if err := loadFile(fsys, entry.Name(), all); err != nil {
			return nil, err
		}
	}

	if files == 0 {
		return nil, fmt.Errorf("i18n: no yaml files found")
	}
	if _, ok := all[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	return &Manager{catalogs: all, defaultLang: defaultLang}, nil
}

func loadFile(fsys fs.FS, name string, into catalog) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("i18n: read %s: %w", name, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("i18n: parse %s: %w", name, err)
	}
	if len(root.Content) == 0 {
		return nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return fmt.Errorf("i18n: %s: top level must map languages to keys", name)
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		lang := normalizeLang(doc.Content[i].Value)
		if lang == "" {
			continue
		}
		if into[lang] == nil {
			into[lang] = make(map[string]string)
		}
		flatten("", doc.Content[i+1], into[lang])
	}

	return nil
}

func flatten(prefix string, node *yaml.Node, out map[string]string) {
	switch node.Kind {
	case yaml.ScalarNode:
		if prefix != "" {
			out[prefix] = node.Value
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := strings.TrimSpace(node.Content[i].Value)
			if key == "" {
				continue
			}
			if prefix != "" {
				key = prefix + "." + key
			}
			flatten(key, node.Content[i+1], out)
		}
	}
}

func normalizeLang(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}

// Translator returns a translator for lang. Regional tags such as "pt-br"
// fall back to their base language before the default one.
func (m *Manager) Translator(lang string) Translator {
	if m == nil {
		return translator{}
	}

	lang = normalizeLang(lang)
	if _, ok := m.catalogs[lang]; !ok {
		base, _, _ := strings.Cut(lang, "-")
		if _, ok := m.catalogs[base]; ok {
			lang = base
		} else {
			lang = m.defaultLang
		}
	}

	return translator{
		lang:    lang,
		primary: m.catalogs[lang],
		backup:  m.catalogs[m.defaultLang],
	}
}

// Languages returns the loaded language codes, sorted.
func (m *Manager) Languages() []string {
	if m == nil {
		return nil
	}

	langs := make([]string, 0, len(m.catalogs))
	for lang := range m.catalogs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

type translator struct {
	lang    string
	primary map[string]string
	backup  map[string]string
}

func (t translator) Lang() string { return t.lang }

func (t translator) T(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if v, ok := t.primary[key]; ok && v != "" {
		return v
	}
	if v, ok := t.backup[key]; ok && v != "" {
		return v
	}
	return key
}

// Has reports whether key resolves to a translation.
func Has(t Translator, key string) bool {
	if t == nil {
		return false
	}
	return t.T(key) != strings.TrimSpace(key)
}

// TextOr returns the translation of key or fallback when none exists.
func TextOr(t Translator, key, fallback string) string {
	if !Has(t, key) {
		return fallback
	}
	return t.T(key)
}

// Render translates key and substitutes {{.Name}} placeholders from vars.
func Render(t Translator, key string, vars map[string]string) string {
	text := TextOr(t, key, key)
	for name, value := range vars {
		text = strings.ReplaceAll(text, "{{."+name+"}}", value)
	}
	return text
}
