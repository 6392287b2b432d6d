package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(url+"/", "TEST-TOKEN", nil)
	require.NoError(t, err)
	c.transport.backoff = func() retry.Backoff {
		return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
	}
	return c
}

var pref = Preference{
	Items:      []Item{{Title: "Compra", Quantity: 1, UnitPrice: 150, CurrencyID: "ARS"}},
	BackURLs:   BackURLs{Success: "s", Failure: "f", Pending: "p"},
	AutoReturn: "approved",
}

func TestCreatePreference_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer TEST-TOKEN", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))

		var got Preference
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, pref, got)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp/init"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv.URL).CreatePreference(context.Background(), pref)
	require.NoError(t, err)
	assert.Equal(t, "pref-1", res.ID)
	assert.Equal(t, "https://mp/init", res.InitPoint)
}

func TestCreatePreference_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	keys := make(chan string, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys <- r.Header.Get("X-Idempotency-Key")
		if calls.Add(1) < 2 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":"pref-2"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv.URL).CreatePreference(context.Background(), pref)
	require.NoError(t, err)
	assert.Equal(t, "pref-2", res.ID)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, <-keys, <-keys, "retries reuse the idempotency key")
}

func TestCreatePreference_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"message":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).CreatePreference(context.Background(), pref)
	require.ErrorIs(t, err, common.ErrorPaymentProvider)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreatePreference_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).CreatePreference(context.Background(), pref)
	require.ErrorIs(t, err, common.ErrorPaymentProvider)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCreatePreference_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).CreatePreference(context.Background(), pref)
	require.ErrorIs(t, err, common.ErrorPaymentProvider)
}

func TestCreatePreference_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, srv.URL).CreatePreference(ctx, pref)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, common.ErrorPaymentProvider)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRetryTransport_RewindsBodyAndRewritesHost(t *testing.T) {
	base, err := url.Parse("http://sandbox.local/mp")
	require.NoError(t, err)

	var bodies []string
	rt := &retryTransport{
		base: base,
		next: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			assert.Equal(t, "sandbox.local", r.URL.Host)
			assert.Equal(t, "/mp/checkout/preferences", r.URL.Path)
			b, _ := io.ReadAll(r.Body)
			bodies = append(bodies, string(b))
			if len(bodies) == 1 {
				return nil, errors.New("connection reset")
			}
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}"))}, nil
		}),
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
		},
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.mercadopago.com/checkout/preferences", strings.NewReader(`{"items":[]}`))
	require.NoError(t, err)

	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, []string{`{"items":[]}`, `{"items":[]}`}, bodies)
	assert.Equal(t, "api.mercadopago.com", req.URL.Host, "caller request is untouched")
}
