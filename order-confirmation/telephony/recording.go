package telephony

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"voice-order-confirm/order-confirmation/types"
)

const recordingMaxElapsed = 30 * time.Second

// RecordingFetcher downloads call recordings with account credentials
type RecordingFetcher struct {
	AccountSID string
	AuthToken  string
	HTTP       *http.Client
	// NewBackOff overrides the retry schedule; tests use it to avoid waiting
	NewBackOff func() backoff.BackOff
}

// NewRecordingFetcher creates a fetcher with a 30 second per-request timeout
func NewRecordingFetcher(accountSID, authToken string) *RecordingFetcher {
	return &RecordingFetcher{
		AccountSID: accountSID,
		AuthToken:  authToken,
		HTTP:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *RecordingFetcher) backOff() backoff.BackOff {
	if f.NewBackOff != nil {
		return f.NewBackOff()
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = recordingMaxElapsed
	return bo
}

// Fetch downloads the MP3 rendition of the recording at recordingURL. The
// recording is often not available the instant the callback fires, so 404s
// and server errors are retried.
func (f *RecordingFetcher) Fetch(ctx context.Context, recordingURL string) ([]byte, error) {
	u := strings.TrimSpace(recordingURL)
	if u == "" {
		return nil, &types.ValidationError{Msg: "recording url is required"}
	}
	if !strings.HasSuffix(u, ".mp3") {
		u += ".mp3"
	}

	var audio []byte
	err := backoff.Retry(func() error {
		data, err := f.get(ctx, u)
		if err != nil {
			if te, ok := err.(*types.TransportError); ok && !retryableStatus(te.StatusCode) {
				return backoff.Permanent(err)
			}
			return err
		}
		audio = data
		return nil
	}, backoff.WithContext(f.backOff(), ctx))
	if err != nil {
		return nil, err
	}
	return audio, nil
}

func (f *RecordingFetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(&types.ValidationError{Msg: fmt.Sprintf("bad recording url: %v", err)})
	}
	req.SetBasicAuth(f.AccountSID, f.AuthToken)

	httpClient := f.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &types.TransportError{Op: "download recording", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &types.TransportError{
			Op:         "download recording",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response %s", resp.Status),
		}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.TransportError{Op: "download recording", Err: err}
	}
	return data, nil
}

// retryableStatus is true for network errors (status 0), 404, 429 and 5xx
func retryableStatus(code int) bool {
	return code == 0 || code == http.StatusNotFound || code == http.StatusTooManyRequests || code >= 500
}
