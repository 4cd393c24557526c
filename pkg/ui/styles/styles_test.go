package styles_test

import (
	"testing"

	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/ui/styles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedStyles(t *testing.T) {
	for _, name := range []string{
		"Header", "TableHeader", "Success", "Error", "Warning", "Info",
		"Muted", "GUID", "Version", "Soft", "FilePath", "Active", "Indent",
	} {
		_, ok := styles.StyleRegistry[name]
		assert.True(t, ok, "style %s should exist", name)
	}
}

func TestGetStyleUnknownIsPlain(t *testing.T) {
	assert.Equal(t, "text", styles.GetStyle("NoSuchStyle").Render("text"))
}

func TestLoadStylesFromDataErrors(t *testing.T) {
	before := styles.StyleRegistry

	err := styles.LoadStylesFromData([]byte("colors: [not, a, map"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrParse))

	err = styles.LoadStylesFromData([]byte("styles:\n  Bad:\n    foreground: nowhere\n"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrParse))

	assert.Equal(t, len(before), len(styles.StyleRegistry), "failed loads keep the registry")
}

func TestLoadStylesFromData(t *testing.T) {
	t.Cleanup(func() {
		require.NoError(t, styles.LoadStylesFromData(mustEmbedded(t)))
	})

	doc := "colors:\n  c:\n    light: '#000000'\n    dark: '#ffffff'\nstyles:\n  Only:\n    bold: true\n    foreground: c\n"
	require.NoError(t, styles.LoadStylesFromData([]byte(doc)))
	assert.Len(t, styles.StyleRegistry, 1)
	assert.True(t, styles.GetStyle("Only").GetBold())
}

func mustEmbedded(t *testing.T) []byte {
	t.Helper()
	data, err := styles.Embedded()
	require.NoError(t, err)
	return data
}
