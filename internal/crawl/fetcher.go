package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/undercut/internal/common"
	"github.com/Veraticus/undercut/internal/service"
)

// DefaultMaxDocumentBytes caps a single crawl document.
const DefaultMaxDocumentBytes = 32 << 20

// Fetcher reads crawl documents from local files, stdin ("-") or HTTP(S) URLs.
// MaxBytes applies to every source; zero means DefaultMaxDocumentBytes.
type Fetcher struct {
	Client   *http.Client
	Stdin    io.Reader
	Retry    service.RetryOptions
	MaxBytes int64
}

// NewFetcher returns a fetcher whose HTTP requests time out after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: timeout},
		Stdin:    os.Stdin,
		Retry:    common.DefaultRetryOptions(),
		MaxBytes: DefaultMaxDocumentBytes,
	}
}

// IsRemote reports whether location is fetched over HTTP.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Fetch returns the raw document at location.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	switch {
	case location == "-":
		return f.read("stdin", f.Stdin)
	case IsRemote(location):
		var body []byte
		err := common.WithRetry(ctx, func() error {
			var fetchErr error
			body, fetchErr = f.get(ctx, location)
			return fetchErr
		}, f.Retry)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", common.ErrFetchFailed, location, err)
		}
		return body, nil
	default:
		file, err := os.Open(location) // #nosec G304 -- operator-supplied path
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", location, err)
		}
		defer func() { _ = file.Close() }()
		return f.read(location, file)
	}
}

// read consumes r up to the size cap, failing instead of truncating.
func (f *Fetcher) read(location string, r io.Reader) ([]byte, error) {
	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxDocumentBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", common.ErrDocumentTooLarge, location, limit)
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, common.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, common.Permanent(err)
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %w", common.ErrUpstreamTimeout, err)
		}
		return nil, common.Transient(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP %d", common.ErrRateLimit, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, common.Transient(fmt.Errorf("HTTP %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, common.Permanent(fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	body, err := f.read(url, resp.Body)
	if errors.Is(err, common.ErrDocumentTooLarge) {
		return nil, common.Permanent(err)
	}
	if err != nil {
		return nil, common.Transient(err)
	}
	return body, nil
}
