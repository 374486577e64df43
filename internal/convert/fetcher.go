package convert

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"pagestack/internal/pkg/errors"
)

// DefaultFetchTimeout bounds the whole download of a remote document.
// A fetch that exceeds it fails the job; there are no retries.
const DefaultFetchTimeout = 30 * time.Second

// Fetcher retrieves raw document bytes from a remote reference.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the document at rawURL. Timeouts map to FETCH_TIMEOUT,
// other transport failures and non-2xx responses to FETCH_ERROR.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeFetch, "convert.fetch", "invalid document url")
	}

	res, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, errors.FetchTimeout(rawURL)
		}
		return nil, errors.WrapWithCode(err, errors.CodeFetch, "convert.fetch", "failed to download document")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, errors.Fetchf("document download returned http %d", res.StatusCode).
			WithField("url", rawURL)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, errors.FetchTimeout(rawURL)
		}
		return nil, errors.WrapWithCode(err, errors.CodeFetch, "convert.fetch", "failed to read document body")
	}

	return data, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
