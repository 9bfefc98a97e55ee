package log

import (
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger writes protocol events to a file in CBOR format.
// It is safe for concurrent use from multiple goroutines.
type FileLogger struct {
	w       io.WriteCloser
	encoder *cbor.Encoder
	mu      sync.Mutex
	closed  bool
	written int
	failed  int
}

// NewFileLogger creates a FileLogger that appends to the file at path,
// creating it with permissions 0644 if needed. Paths ending in
// CompressedSuffix are written zstd compressed.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	if !IsCompressed(path) {
		return NewWriterLogger(f), nil
	}
	zw, err := newZstdWriteCloser(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return NewWriterLogger(zw), nil
}

// NewWriterLogger creates a FileLogger that writes to w. Close closes w.
func NewWriterLogger(w io.WriteCloser) *FileLogger {
	return &FileLogger{
		w:       w,
		encoder: newEventEncoder(w),
	}
}

// Log writes an event. Encoding errors are counted, not returned: logging
// must not disrupt the stream.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if err := l.encoder.Encode(event); err != nil {
		l.failed++
		return
	}
	l.written++
}

// Stats returns the number of events written and the number that failed.
func (l *FileLogger) Stats() (written, failed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written, l.failed
}

// Close closes the underlying writer.
// It is safe to call Close multiple times; later Log calls are ignored.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.w.Close()
}

var _ Logger = (*FileLogger)(nil)
