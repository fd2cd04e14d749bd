package tokenizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
  "version": "1.0",
  "model": {"type": "WordPiece", "vocab": {"[UNK]": 0, "hello": 1}}
}`

func TestFromStringParsesModel(t *testing.T) {
	doc, err := FromString(sampleDocument)
	require.NoError(t, err)
	assert.Equal(t, "1.0", doc.Version)
	assert.Contains(t, string(doc.Model), "WordPiece")
}

func TestFromStringRejectsMalformedJSON(t *testing.T) {
	_, err := FromString("{not json")
	assert.ErrorIs(t, err, ErrSerialization)
}

func TestFromFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokenizer.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o644))

	doc, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0", doc.Version)
}

func TestSaveWritesParsableDocument(t *testing.T) {
	doc, err := FromString(sampleDocument)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, doc.Save(path))

	reread, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DocumentVersion, reread.Version)
}
