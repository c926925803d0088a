// Package encoding normalizes uploaded statement files to UTF-8. Banks
// export CSV files in a mix of legacy single-byte charsets and UTF-16, often
// with a BOM, and the parser downstream only speaks UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffLen is how many bytes are buffered for BOM and charset detection.
const sniffLen = 4096

type bom struct {
	prefix  []byte
	decoder func() *encoding.Decoder
	strip   bool
}

var boms = []bom{
	// A UTF-8 BOM is stripped and the rest passed through untouched.
	{prefix: []byte{0xEF, 0xBB, 0xBF}, strip: true},
	{prefix: []byte{0xFF, 0xFE}, decoder: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder},
	{prefix: []byte{0xFE, 0xFF}, decoder: unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder},
}

// charsets maps chardet results to decoders. Charsets not listed here fall
// through to the Windows-1252 fallback.
var charsets = map[string]*charmap.Charmap{
	"ISO-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"ISO-8859-9":   charmap.ISO8859_9,
	"ISO-8859-15":  charmap.ISO8859_15,
}

// NewUTF8Reader detects the encoding of r and returns a reader that yields
// UTF-8. Detection order: BOM, then valid-UTF-8 passthrough, then chardet
// heuristics, then a Windows-1252 fallback.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	for _, b := range boms {
		if !bytes.HasPrefix(head, b.prefix) {
			continue
		}

		if b.strip {
			_, _ = br.Discard(len(b.prefix))
			return br, nil
		}

		return transform.NewReader(br, b.decoder()), nil
	}

	if utf8.Valid(head) {
		return br, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(head); err == nil {
		if result.Charset == "UTF-8" {
			return br, nil
		}

		if cm, ok := charsets[result.Charset]; ok {
			return transform.NewReader(br, cm.NewDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}
