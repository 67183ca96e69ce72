package i18n

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDir_BundledLocales(t *testing.T) {
	m, err := LoadFromDir("locales", "en")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"en", "ru"}, m.Languages())

	ru := m.Translator("RU ")
	assert.Equal(t, "ru", ru.Lang())
	assert.Equal(t, "🔙 Назад", ru.T("back-button"))
	// Missing in ru, served from en.
	assert.Equal(t, "Lifecycle", ru.T("lifecycle-button"))

	unknown := m.Translator("xx")
	assert.Equal(t, "en", unknown.Lang())
	assert.Equal(t, "no-such-key", unknown.T("no-such-key"))
}

func TestLoadFromDir_Errors(t *testing.T) {
	_, err := LoadFromDir(t.TempDir(), "en")
	assert.ErrorContains(t, err, "no yaml files")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "de.yaml"), []byte("de:\n  hello: Hallo\n"), 0o600))
	_, err = LoadFromDir(dir, "en")
	assert.ErrorContains(t, err, `default language "en" is missing`)
}

func TestLoadFromDir_FlattensNestedKeys(t *testing.T) {
	dir := t.TempDir()
	content := "en:\n  menu:\n    help: Help\n    nested:\n      deep: Deep\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yml"), []byte(content), 0o600))

	m, err := LoadFromDir(dir, "")
	require.NoError(t, err)

	tr := m.Translator("en")
	assert.Equal(t, "Help", tr.T("menu.help"))
	assert.Equal(t, "Deep", tr.T("menu.nested.deep"))
}

func TestHelpers(t *testing.T) {
	m, err := LoadFromDir("locales", "en")
	require.NoError(t, err)
	tr := m.Translator("en")

	assert.True(t, Has(tr, "main-help"))
	assert.False(t, Has(tr, "ghost-category"))
	assert.False(t, Has(nil, "main-help"))

	assert.Equal(t, "General", TextOr(tr, "ghost-category", "General"))
	assert.Equal(t, "Operations", TextOr(tr, "lifecycle-category", "General"))

	text := Render(tr, "category-header", map[string]string{"Category": "Operations"})
	assert.Contains(t, text, "<b>Operations Topics</b>")
	assert.Equal(t, "unknown-key", Render(tr, "unknown-key", nil))
}

func TestTranslator_RegionalFallback(t *testing.T) {
	m, err := LoadFS(fstest.MapFS{
		"en.yaml": {Data: []byte("en:\n  close: Close\n  back: Back\n")},
		"pt.yaml": {Data: []byte("pt:\n  close: Fechar\n")},
	}, "en")
	require.NoError(t, err)

	tr := m.Translator("pt-BR")
	assert.Equal(t, "pt", tr.Lang())
	assert.Equal(t, "Fechar", tr.T("close"))
	assert.Equal(t, "Back", tr.T("back"))
	assert.Equal(t, []string{"en", "pt"}, m.Languages())
}

func TestLoadFS_LaterFilesOverride(t *testing.T) {
	m, err := LoadFS(fstest.MapFS{
		"a_en.yaml": {Data: []byte("en:\n  greeting: Hi\n  count: 3\n")},
		"b_en.yml":  {Data: []byte("en:\n  greeting: Hello\n")},
		"notes.txt": {Data: []byte("ignored")},
	}, "en")
	require.NoError(t, err)

	tr := m.Translator("en")
	assert.Equal(t, "Hello", tr.T("greeting"))
	assert.Equal(t, "3", tr.T("count"))
}

func TestLoadFS_RejectsNonMapping(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{"en.yaml": {Data: []byte("- en\n- ru\n")}}, "en")
	assert.ErrorContains(t, err, "top level")
}
