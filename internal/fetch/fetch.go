// Package fetch retrieves raw census payloads from files, stdin or HTTP(S)
// URLs. Each retrieval resolves exactly once, with a payload or an error.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/harrison/catcensus/internal/parser"
)

// StdinSource is the source name that reads the payload from standard input.
const StdinSource = "-"

// DefaultMaxBytes caps the size of a single payload.
const DefaultMaxBytes int64 = 32 << 20

// Payload is the raw text of one source together with its detected format.
type Payload struct {
	Source      string
	Format      parser.Format
	ContentType string
	Data        []byte
}

// FetchError reports a failed retrieval. StatusCode is set for HTTP
// responses outside the 2xx range.
type FetchError struct {
	Source     string
	StatusCode int
	Err        error
}

// Error implements the error interface for FetchError.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves payloads. The zero value is not usable; use NewFetcher.
type Fetcher struct {
	client   *http.Client
	stdin    io.Reader
	timeout  time.Duration
	maxBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithStdin overrides the reader used for the "-" source.
func WithStdin(r io.Reader) Option {
	return func(f *Fetcher) {
		f.stdin = r
	}
}

// WithTimeout bounds each retrieval. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBytes caps payload size. Values <= 0 keep the default.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   http.DefaultClient,
		stdin:    os.Stdin,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IsURL reports whether source is an http or https URL.
func IsURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Fetch retrieves a single source.
func (f *Fetcher) Fetch(ctx context.Context, source string) (*Payload, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	switch {
	case source == StdinSource:
		return f.fetchStdin(ctx, source)
	case IsURL(source):
		return f.fetchURL(ctx, source)
	default:
		return f.fetchFile(ctx, source)
	}
}

func (f *Fetcher) fetchFile(ctx context.Context, path string) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Source: path, Err: err}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &FetchError{Source: path, Err: err}
	}
	defer file.Close()

	return f.fetchReader(path, file)
}

// fetchStdin reads stdin until EOF or until ctx is done. A read that is
// still blocked when ctx ends is abandoned; stdin is consumed at most once
// per process, so nothing else waits on it.
func (f *Fetcher) fetchStdin(ctx context.Context, source string) (*Payload, error) {
	type readResult struct {
		payload *Payload
		err     error
	}

	done := make(chan readResult, 1)
	go func() {
		payload, err := f.fetchReader(source, f.stdin)
		done <- readResult{payload: payload, err: err}
	}()

	select {
	case res := <-done:
		return res.payload, res.err
	case <-ctx.Done():
		return nil, &FetchError{Source: source, Err: ctx.Err()}
	}
}

func (f *Fetcher) fetchReader(source string, r io.Reader) (*Payload, error) {
	if r == nil {
		return nil, &FetchError{Source: source, Err: fmt.Errorf("no reader configured")}
	}

	data, err := f.readLimited(r)
	if err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}

	return &Payload{
		Source: source,
		Format: parser.DetectFormat(source),
		Data:   data,
	}, nil
}

func (f *Fetcher) fetchURL(ctx context.Context, url string) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Source: url, Err: err}
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, text/markdown;q=0.8, */*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{Source: url, StatusCode: resp.StatusCode}
	}

	data, err := f.readLimited(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: url, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	format := parser.FormatFromContentType(contentType)
	if format == parser.FormatUnknown {
		format = parser.DetectFormat(url)
	}

	return &Payload{
		Source:      url,
		Format:      format,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("payload exceeds %d bytes", f.maxBytes)
	}
	return data, nil
}
