// Package payments talks to the MercadoPago checkout API through the
// official SDK.
package payments

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/google/uuid"
	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/sethvargo/go-retry"
)

const idempotencyHeader = "X-Idempotency-Key"

// Item is one line of a checkout preference.
type Item struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

// BackURLs are where the buyer is sent after paying.
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// Preference describes a checkout to create.
type Preference struct {
	Items      []Item   `json:"items"`
	BackURLs   BackURLs `json:"back_urls"`
	AutoReturn string   `json:"auto_return,omitempty"`
}

// PreferenceResult is the created checkout.
type PreferenceResult struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Client creates checkout preferences.
type Client struct {
	preferences preference.Client
	transport   *retryTransport
}

// NewClient builds a client for accessToken. A non-empty baseURL replaces
// the SDK's API host, which is how tests and sandboxes are pointed at.
func NewClient(baseURL, accessToken string, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	var base *url.URL
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/"))
		if err != nil {
			return nil, fmt.Errorf("invalid payment provider url: %w", err)
		}
		base = u
	}

	next := httpClient.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	rt := &retryTransport{
		base: base,
		next: next,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
		},
	}

	cfg, err := config.New(accessToken, config.WithHTTPClient(&http.Client{
		Transport: rt,
		Timeout:   httpClient.Timeout,
	}))
	if err != nil {
		return nil, fmt.Errorf("payment provider config: %w", err)
	}

	return &Client{preferences: preference.NewClient(cfg), transport: rt}, nil
}

// CreatePreference creates a checkout preference. Network failures and
// 429/5xx answers are retried with the same idempotency key; anything else
// fails with common.ErrorPaymentProvider.
func (c *Client) CreatePreference(ctx context.Context, p Preference) (*PreferenceResult, error) {
	req := preference.Request{
		Items: make([]preference.ItemRequest, 0, len(p.Items)),
		BackURLs: &preference.BackURLsRequest{
			Success: p.BackURLs.Success,
			Failure: p.BackURLs.Failure,
			Pending: p.BackURLs.Pending,
		},
		AutoReturn: p.AutoReturn,
	}
	for _, it := range p.Items {
		req.Items = append(req.Items, preference.ItemRequest{
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			CurrencyID: it.CurrencyID,
		})
	}

	res, err := c.preferences.Create(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: create preference: %v", common.ErrorPaymentProvider, err)
	}
	if res == nil || res.ID == "" {
		return nil, fmt.Errorf("%w: preference without id", common.ErrorPaymentProvider)
	}

	return &PreferenceResult{
		ID:               res.ID,
		InitPoint:        res.InitPoint,
		SandboxInitPoint: res.SandboxInitPoint,
	}, nil
}

// retryTransport retries idempotent-keyed requests and optionally rewrites
// them onto another host.
type retryTransport struct {
	base    *url.URL
	next    http.RoundTripper
	backoff func() retry.Backoff
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.base != nil {
		req.URL.Scheme = t.base.Scheme
		req.URL.Host = t.base.Host
		req.URL.Path = t.base.Path + req.URL.Path
		req.Host = ""
	}
	if req.Header.Get(idempotencyHeader) == "" {
		req.Header.Set(idempotencyHeader, uuid.NewString())
	}

	// A body that cannot be rewound gets exactly one attempt.
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return t.next.RoundTrip(req)
	}

	var last *http.Response
	err := retry.Do(req.Context(), t.backoff(), func(ctx context.Context) error {
		if last != nil {
			_, _ = io.Copy(io.Discard, last.Body)
			last.Body.Close()
			last = nil
		}

		attempt := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return err
			}
			attempt.Body = body
		}

		resp, err := t.next.RoundTrip(attempt)
		if err != nil {
			return retry.RetryableError(err)
		}
		last = resp
		if retryableStatus(resp.StatusCode) {
			return retry.RetryableError(fmt.Errorf("payment provider answered %d", resp.StatusCode))
		}
		return nil
	})
	if last != nil {
		// Exhausted retries still hand the final answer to the SDK.
		return last, nil
	}
	return nil, err
}
