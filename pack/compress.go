package pack

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the codec applied to the tar archive.
type Compression string

const (
	// CompressionGzip is gzip at best compression. The default; it is
	// what the submission host accepts.
	CompressionGzip Compression = "gzip"

	// CompressionZstd is zstd at its strongest level.
	CompressionZstd Compression = "zstd"

	// CompressionLZ4 is lz4 frame format at level 9.
	CompressionLZ4 Compression = "lz4"
)

// Compressions lists every supported codec.
var Compressions = []Compression{CompressionGzip, CompressionZstd, CompressionLZ4}

// ParseCompression parses a codec name.
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(name); c {
	case CompressionGzip, CompressionZstd, CompressionLZ4:
		return c, nil
	default:
		return "", fmt.Errorf("unknown compression: %q", name)
	}
}

// Ext returns the file extension appended to the tar name, without the dot.
func (c Compression) Ext() string {
	switch c {
	case CompressionGzip:
		return "gz"
	case CompressionZstd:
		return "zst"
	case CompressionLZ4:
		return "lz4"
	default:
		return ""
	}
}

// NewWriter wraps w with the codec. Output is deterministic for equal input:
// gzip headers carry no name or mtime and encoders run single-threaded.
func (c Compression) NewWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CompressionGzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case CompressionZstd:
		return zstd.NewWriter(w,
			zstd.WithEncoderLevel(zstd.SpeedBestCompression),
			zstd.WithEncoderConcurrency(1),
		)
	case CompressionLZ4:
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.CompressionLevelOption(lz4.Level9), lz4.ConcurrencyOption(1)); err != nil {
			return nil, fmt.Errorf("configure lz4: %w", err)
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("unsupported compression: %q", c)
	}
}

// NewReader returns a decompressing reader for data written by NewWriter.
func (c Compression) NewReader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case CompressionGzip:
		return gzip.NewReader(r)
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported compression: %q", c)
	}
}
