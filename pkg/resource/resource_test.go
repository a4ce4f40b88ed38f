package resource

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `
Info:
  SECRET_API_TOKEN: iAmPlaintextToken
  OBFUSCATED_API_TOKEN: "ABC%3D"
Other:
  name: value
`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	val, err := doc.String("Info", "SECRET_API_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "iAmPlaintextToken", val)

	val, err = doc.String("Info", "OBFUSCATED_API_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "ABC%3D", val)
}

func TestParse_Empty(t *testing.T) {
	doc, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	_, err = doc.String("Info", "anything")
	assert.ErrorIs(t, err, ErrConfigKeyMissing)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse(strings.NewReader("Info: [not, a, map"))
	assert.Error(t, err)
}

func TestDocument_Missing(t *testing.T) {
	doc := Document{}
	doc.Set("Info", "present", "yes")

	_, err := doc.String("Nope", "present")
	assert.ErrorIs(t, err, ErrConfigKeyMissing)
	_, err = doc.String("Info", "absent")
	assert.ErrorIs(t, err, ErrConfigKeyMissing)
}

func TestWriteParse(t *testing.T) {
	doc := Document{}
	doc.Set("Info", "ENCRYPTED_API_TOKEN", "AAE%2B%2F")
	doc.Set("Info", "SECRET_API_TOKEN", "plain")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc))
	parsed, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, doc, parsed)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.yaml")
	doc := Document{}
	doc.Set("Info", "SECRET_API_TOKEN", "iAmPlaintextToken")
	require.NoError(t, SaveFile(path, doc))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path())
	val, err := f.String("Info", "SECRET_API_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "iAmPlaintextToken", val)

	_, err = f.String("Info", "ENCRYPTED_API_TOKEN")
	assert.ErrorIs(t, err, ErrConfigKeyMissing)
	assert.Contains(t, err.Error(), path)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
