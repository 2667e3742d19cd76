package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-order-confirm/order-confirmation/types"
)

func testFetcher() *RecordingFetcher {
	f := NewRecordingFetcher("AC1", "secret")
	f.NewBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
	}
	return f
}

func TestFetchRetriesUntilAvailable(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC1" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "/Recordings/RE1.mp3", r.URL.Path)
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ID3audio"))
	}))
	defer srv.Close()

	data, err := testFetcher().Fetch(context.Background(), srv.URL+"/Recordings/RE1")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3audio"), data)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), srv.URL+"/Recordings/RE1.mp3")
	var tErr *types.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusForbidden, tErr.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), srv.URL+"/r")
	var tErr *types.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusBadGateway, tErr.StatusCode)
}

func TestFetchEmptyURL(t *testing.T) {
	_, err := testFetcher().Fetch(context.Background(), "  ")
	var vErr *types.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
