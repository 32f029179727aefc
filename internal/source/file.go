package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/lsofctl/internal/lsof"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// StdinPath selects standard input in OpenFile.
const StdinPath = "-"

// OpenFile opens a saved `lsof -F` dump. Files ending in .zst or .gz are
// decompressed transparently.
func OpenFile(path string) (io.ReadCloser, error) {
	if path == StdinPath {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, unavailable("open "+path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, unavailable("zstd "+path, err)
		}
		return &stream{Reader: dec, close: func() error {
			dec.Close()
			return f.Close()
		}}, nil
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, unavailable("gzip "+path, err)
		}
		return &stream{Reader: gz, close: func() error {
			gz.Close()
			return f.Close()
		}}, nil
	default:
		return f, nil
	}
}

func unavailable(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", lsof.ErrSourceUnavailable, what, err)
}

// stream pairs a reader with the cleanup of everything beneath it.
type stream struct {
	io.Reader
	close func() error
}

func (s *stream) Close() error {
	return s.close()
}
