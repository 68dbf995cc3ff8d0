// Package imageload turns an uploaded or local image into a data URI
// off the calling goroutine.
package imageload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

// DefaultLimit bounds how many bytes a single load reads.
const DefaultLimit int64 = 5 << 20

var (
	// ErrEmptySource is reported when the source yields no bytes.
	ErrEmptySource = errors.New("imageload: empty source")
	// ErrTooLarge is reported when the source exceeds the configured limit.
	ErrTooLarge = errors.New("imageload: source exceeds size limit")
)

// Result is delivered exactly once per Load call.
type Result struct {
	Name    string
	MIME    string
	DataURI string
	Size    int64
	Err     error
}

// Option configures a Loader.
type Option func(*Loader)

// WithLimit caps the bytes read from a source. Non-positive values keep the
// default.
func WithLimit(limit int64) Option {
	return func(l *Loader) {
		if limit > 0 {
			l.limit = limit
		}
	}
}

// WithLogger sets the logger used for load failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader reads image sources asynchronously.
type Loader struct {
	limit  int64
	logger *slog.Logger
	wg     sync.WaitGroup
}

func New(options ...Option) *Loader {
	l := &Loader{limit: DefaultLimit, logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Limit reports the configured size limit.
func (l *Loader) Limit() int64 {
	return l.limit
}

// Load returns immediately and reads src on a new goroutine. done receives
// the encoded data URI, or an error in Result.Err; the caller keeps its
// previous image on error. src is closed when it implements io.Closer.
func (l *Loader) Load(ctx context.Context, src io.Reader, name string, done func(Result)) {
	if ctx == nil {
		ctx = context.Background()
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if closer, ok := src.(io.Closer); ok {
			defer closer.Close()
		}

		result := l.read(ctx, src, name)
		if result.Err != nil {
			l.logger.Warn("image load failed", "name", name, "error", result.Err)
		}
		if done != nil {
			done(result)
		}
	}()
}

// LoadFile opens path and loads it like Load. Open failures are delivered
// through done as well.
func (l *Loader) LoadFile(ctx context.Context, path string, done func(Result)) {
	file, err := os.Open(path)
	if err != nil {
		l.Load(ctx, failingReader{err: fmt.Errorf("imageload: open %q: %w", path, err)}, filepath.Base(path), done)
		return
	}
	l.Load(ctx, file, filepath.Base(path), done)
}

// Wait blocks until every in-flight load delivered its result.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// LoadSync is a blocking convenience wrapper around Load.
func (l *Loader) LoadSync(ctx context.Context, src io.Reader, name string) (Result, error) {
	ch := make(chan Result, 1)
	l.Load(ctx, src, name, func(result Result) {
		ch <- result
	})
	select {
	case result := <-ch:
		return result, result.Err
	case <-ctx.Done():
		return Result{Name: name, Err: ctx.Err()}, ctx.Err()
	}
}

func (l *Loader) read(ctx context.Context, src io.Reader, name string) Result {
	result := Result{Name: name}
	if src == nil {
		result.Err = ErrEmptySource
		return result
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(contextReader{ctx: ctx, r: src}, l.limit+1))
	if err != nil {
		result.Err = fmt.Errorf("imageload: read %q: %w", name, err)
		return result
	}
	if n == 0 {
		result.Err = ErrEmptySource
		return result
	}
	if n > l.limit {
		result.Err = fmt.Errorf("%w: %q over %d bytes", ErrTooLarge, name, l.limit)
		return result
	}

	data := buf.Bytes()
	result.Size = n
	result.MIME = http.DetectContentType(data)
	result.DataURI = EncodeDataURI(result.MIME, data)
	return result
}

// EncodeDataURI formats data as a base64 data URI.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

type failingReader struct {
	err error
}

func (f failingReader) Read([]byte) (int, error) {
	return 0, f.err
}
