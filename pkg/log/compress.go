package log

import (
	"errors"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// CompressedSuffix marks a capture file written as zstd frames. Appending
// to such a file adds a frame; readers decode the frames in sequence.
const CompressedSuffix = ".zst"

// IsCompressed reports whether path names a compressed capture.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, CompressedSuffix)
}

// zstdWriteCloser flushes the zstd frame before closing the file.
type zstdWriteCloser struct {
	enc  *zstd.Encoder
	file io.Closer
}

func newZstdWriteCloser(w io.WriteCloser) (*zstdWriteCloser, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	return &zstdWriteCloser{enc: enc, file: w}, nil
}

func (z *zstdWriteCloser) Write(p []byte) (int, error) {
	return z.enc.Write(p)
}

func (z *zstdWriteCloser) Close() error {
	return errors.Join(z.enc.Close(), z.file.Close())
}

// zstdReadCloser releases the decoder and the file together.
type zstdReadCloser struct {
	dec  *zstd.Decoder
	file io.Closer
}

func newZstdReadCloser(r io.ReadCloser) (*zstdReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &zstdReadCloser{dec: dec, file: r}, nil
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.file.Close()
}
