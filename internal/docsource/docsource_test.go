package docsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("Claim# 1001 Smith, Ann"), 0o644))

	loader := NewLoader(zap.NewNop())
	doc, err := loader.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "Claim# 1001 Smith, Ann", doc.Text)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 1, doc.Pages[0].PageNumber)
	assert.False(t, doc.Pages[0].IsScanned)
	assert.Equal(t, 1.0, doc.Pages[0].Confidence)
}

func TestLoadMissingFile(t *testing.T) {
	loader := NewLoader(zap.NewNop())
	_, err := loader.Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.docx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	loader := NewLoader(zap.NewNop())
	_, err := loader.Load(path)
	assert.ErrorContains(t, err, "unsupported source type")
}

func TestDecodePDFString(t *testing.T) {
	assert.Equal(t, "plain", decodePDFString([]byte("plain")))
	assert.Equal(t, "a(b)c", decodePDFString([]byte(`a\(b\)c`)))
	assert.Equal(t, "a\nb", decodePDFString([]byte(`a\nb`)))
	// Octal escape \040 is a space.
	assert.Equal(t, "a b", decodePDFString([]byte(`a\040b`)))
	assert.Equal(t, `a\`, decodePDFString([]byte(`a\\`)))
}

func TestExtractTextFromStream(t *testing.T) {
	stream := []byte("BT\n(Claim# 1001) Tj\n1 0 0 1 50 700 Td\n(Smith, Ann) Tj\nT*\n[(Med Paid) -250 (1500.00)] TJ\nET")
	got := extractTextFromStream(stream)
	assert.Contains(t, got, "Claim# 1001")
	assert.Contains(t, got, "Smith, Ann")
	assert.Contains(t, got, "Med Paid")
	assert.Contains(t, got, "1500.00")
}

func TestCleanPDFText(t *testing.T) {
	assert.Equal(t, "a b c", cleanPDFText("  a \t b\n\nc  "))
	assert.Equal(t, "", cleanPDFText("\x00\x01  "))
}
