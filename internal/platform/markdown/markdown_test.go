package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderThenSplit(t *testing.T) {
	doc, err := RenderFrontmatter(map[string]any{"sessions": 2, "schema_version": 1}, "# Title\n")
	require.NoError(t, err)
	assert.Equal(t, "---\nschema_version: 1\nsessions: 2\n---\n\n# Title\n", doc)

	meta, body, err := SplitFrontmatter(doc)
	require.NoError(t, err)
	assert.Equal(t, 2, meta["sessions"])
	assert.Equal(t, "\n# Title\n", body)
}

func TestSplitWithoutFrontmatter(t *testing.T) {
	meta, body, err := SplitFrontmatter("plain body")
	require.NoError(t, err)
	assert.Empty(t, meta)
	assert.Equal(t, "plain body", body)
}

func TestSplitFrontmatterOnly(t *testing.T) {
	meta, body, err := SplitFrontmatter("---\nsessions: 0\n---")
	require.NoError(t, err)
	assert.Equal(t, 0, meta["sessions"])
	assert.Empty(t, body)
}

func TestSplitRejectsUnterminatedFrontmatter(t *testing.T) {
	_, _, err := SplitFrontmatter("---\nsessions: 1\n")
	require.Error(t, err)
}

func TestTableEscapesAndPads(t *testing.T) {
	got := Table([]string{"Target", "Error"}, [][]string{
		{"orders", "a|b\nc"},
		{"catalog"},
	})
	want := "| Target | Error |\n" +
		"|---|---|\n" +
		"| orders | a\\|b c |\n" +
		"| catalog |  |\n"
	assert.Equal(t, want, got)
}
