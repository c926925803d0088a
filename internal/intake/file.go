package intake

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Payload is the content of a queued file. It must be re-openable so a
// retried file can be uploaded again without re-selection.
type Payload interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

type pathPayload struct {
	path string
	size int64
}

// FromPath wraps a file on disk as a Payload. The file is stat'ed once; it
// is opened fresh for every upload attempt.
func FromPath(path string) (Payload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	return &pathPayload{path: path, size: info.Size()}, nil
}

func (p *pathPayload) Name() string { return filepath.Base(p.path) }
func (p *pathPayload) Size() int64  { return p.size }

func (p *pathPayload) Open() (io.ReadCloser, error) {
	return os.Open(p.path)
}

type bytesPayload struct {
	name string
	data []byte
}

// FromBytes wraps in-memory content as a Payload.
func FromBytes(name string, data []byte) Payload {
	return &bytesPayload{name: name, data: data}
}

func (p *bytesPayload) Name() string { return p.name }
func (p *bytesPayload) Size() int64  { return int64(len(p.data)) }

func (p *bytesPayload) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(p.data)), nil
}
