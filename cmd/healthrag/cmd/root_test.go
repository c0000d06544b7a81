package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv points every command at a static embedder and a temp store.
func isolateEnv(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("RAG_CONFIG", filepath.Join(tmp, "missing.yaml"))
	t.Setenv("EMBEDDING_PROVIDER", "static")
	t.Setenv("VECTOR_STORE_DIR", filepath.Join(tmp, "store"))
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CHUNK_SIZE", "60")
	t.Setenv("CHUNK_OVERLAP", "10")
	return tmp
}

func writeDocs(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "# Medication Safety\n\n" + strings.Repeat("Standard 5 covers safe and quality use of medicines. ", 6)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "medication.md"), []byte(content), 0o644))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(&bytes.Buffer{})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	// Given: the root command
	rootCmd := NewRootCmd()

	// Then: every subcommand is registered
	for _, name := range []string{"ingest", "search", "ask", "download"} {
		sub, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	// Given: search without a question
	isolateEnv(t)

	// When
	_, err := run(t, "search")

	// Then
	require.Error(t, err)
}

func TestSearchCmd_RejectsUnknownFormat(t *testing.T) {
	isolateEnv(t)

	_, err := run(t, "search", "falls", "--format", "xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestIngestCmd_MissingDir(t *testing.T) {
	// Given: a directory that does not exist
	tmp := isolateEnv(t)

	// When
	_, err := run(t, "ingest", "--dir", filepath.Join(tmp, "nope"))

	// Then: the user is pointed at download
	require.Error(t, err)
	assert.Contains(t, err.Error(), "healthrag download")
}

func TestIngestThenSearch(t *testing.T) {
	// Given: a directory with one document
	tmp := isolateEnv(t)
	docs := filepath.Join(tmp, "docs")
	writeDocs(t, docs)

	// When: ingesting twice
	out, err := run(t, "ingest", "--dir", docs)
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 1 documents")

	out, err = run(t, "ingest", "--dir", docs)
	require.NoError(t, err)

	// Then: the second run stores nothing new
	assert.Contains(t, out, "(0 new,")

	// When: searching
	out, err = run(t, "search", "medicines", "--top-k", "2")
	require.NoError(t, err)

	// Then: results carry citations
	assert.Contains(t, out, "1. [Source: Medication Safety, Standard 5")
	assert.Contains(t, out, "distance")
}

func TestSearchCmd_JSON(t *testing.T) {
	tmp := isolateEnv(t)
	docs := filepath.Join(tmp, "docs")
	writeDocs(t, docs)
	_, err := run(t, "ingest", "--dir", docs)
	require.NoError(t, err)

	out, err := run(t, "search", "medicines", "-k", "1", "-f", "json")
	require.NoError(t, err)

	assert.Contains(t, out, `"document_filename": "medication.md"`)
	assert.Contains(t, out, `"page_numbers": [`)
}

func TestSearchCmd_EmptyStore(t *testing.T) {
	// Given: nothing ingested
	isolateEnv(t)

	// When
	out, err := run(t, "search", "anything")

	// Then
	require.NoError(t, err)
	assert.Contains(t, out, "insufficient evidence")
}

func TestAskCmd_RequiresAnthropicKey(t *testing.T) {
	isolateEnv(t)

	_, err := run(t, "ask", "What is Standard 5?")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestConfigFlag_BadFile(t *testing.T) {
	// Given: an explicit config file that does not parse
	tmp := isolateEnv(t)
	bad := filepath.Join(tmp, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("chunking: [unclosed"), 0o644))

	// When
	_, err := run(t, "--config", bad, "search", "falls")

	// Then
	require.Error(t, err)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("a\n b\t\tc "))

	long := strings.Repeat("x", previewLen+10)
	got := preview(long)
	assert.Equal(t, previewLen+3, len(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}
