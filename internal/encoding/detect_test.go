package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/jmorgal/bankfeed/internal/encoding"
)

func decode(t *testing.T, input []byte) string {
	t.Helper()

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "Date;Descrição;Montante\nCafé;-3,50\n"
	assert.Equal(t, input, decode(t, []byte(input)))
}

func TestNewUTF8Reader_UTF8BOMStripped(t *testing.T) {
	content := "Date,Description,Amount\n"
	input := append([]byte{0xEF, 0xBB, 0xBF}, content...)
	assert.Equal(t, content, decode(t, input))
}

func TestNewUTF8Reader_UTF16LE(t *testing.T) {
	content := "Date,Description,Amount\n"

	encoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, _, err := transform.Bytes(encoder, []byte(content))
	require.NoError(t, err)

	assert.Equal(t, content, decode(t, encoded))
}

func TestNewUTF8Reader_Windows1252Fallback(t *testing.T) {
	// Windows-1252 bytes for "Descrição": ç = 0xE7, ã = 0xE3.
	input := []byte{
		'D', 'e', 's', 'c', 'r', 'i', 0xE7, 0xE3, 'o', ',',
		'M', 'o', 'n', 't', 'a', 'n', 't', 'e', '\n',
	}

	assert.Equal(t, "Descrição,Montante\n", decode(t, input))
}

func TestNewUTF8Reader_Empty(t *testing.T) {
	assert.Equal(t, "", decode(t, nil))
}
