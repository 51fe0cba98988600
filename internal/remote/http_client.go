package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/funmbia/Novelty/internal/domain"
	"github.com/funmbia/Novelty/internal/session"
)

// cartEnvelope is the wire shape every cart endpoint responds with.
type cartEnvelope struct {
	Cart domain.Cart `json:"cart"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

// HTTPClient talks to the remote cart service over its REST contract. All
// calls run through a circuit breaker so a flapping backend trips fast
// instead of queueing timeouts behind every click.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[domain.Cart]
}

// NewHTTPClient creates a client for the cart service at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	settings := gobreaker.Settings{
		Name:    "remote-cart",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Business rejections are healthy responses as far as the
		// breaker is concerned.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrCartNotFound) ||
				errors.Is(err, domain.ErrStockExceeded)
		},
	}

	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[domain.Cart](settings),
	}
}

func (c *HTTPClient) Fetch(ctx context.Context, identity session.Identity) (domain.Cart, error) {
	return c.do(ctx, identity, http.MethodGet, c.userPath(identity), nil)
}

func (c *HTTPClient) Create(ctx context.Context, identity session.Identity) (domain.Cart, error) {
	return c.do(ctx, identity, http.MethodPost, c.userPath(identity), nil)
}

func (c *HTTPClient) AddItem(ctx context.Context, identity session.Identity, bookID int64, quantity int) (domain.Cart, error) {
	params := url.Values{}
	params.Set("bookId", strconv.FormatInt(bookID, 10))
	params.Set("quantity", strconv.Itoa(quantity))
	return c.do(ctx, identity, http.MethodPost, c.userPath(identity)+"/items", params)
}

func (c *HTTPClient) SetQuantity(ctx context.Context, identity session.Identity, lineID string, quantity int) (domain.Cart, error) {
	params := url.Values{}
	params.Set("quantity", strconv.Itoa(quantity))
	return c.do(ctx, identity, http.MethodPut, c.userPath(identity)+"/items/"+url.PathEscape(lineID), params)
}

func (c *HTTPClient) RemoveItem(ctx context.Context, identity session.Identity, lineID string) (domain.Cart, error) {
	return c.do(ctx, identity, http.MethodDelete, c.userPath(identity)+"/items/"+url.PathEscape(lineID), nil)
}

func (c *HTTPClient) Clear(ctx context.Context, identity session.Identity) (domain.Cart, error) {
	return c.do(ctx, identity, http.MethodDelete, c.userPath(identity), nil)
}

func (c *HTTPClient) userPath(identity session.Identity) string {
	return fmt.Sprintf("%s/cart/user/%d", c.baseURL, identity.UserID)
}

func (c *HTTPClient) do(ctx context.Context, identity session.Identity, method, rawURL string, params url.Values) (domain.Cart, error) {
	cart, err := c.breaker.Execute(func() (domain.Cart, error) {
		if len(params) > 0 {
			rawURL = rawURL + "?" + params.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("failed to build cart request: %w", err)
		}
		if identity.Credential != nil {
			identity.Credential.Apply(req.Header.Set)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
		}
		defer resp.Body.Close()

		return decodeCartResponse(resp)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.Cart{}, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	return cart, err
}

func decodeCartResponse(resp *http.Response) (domain.Cart, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%w: reading response: %v", domain.ErrRemoteUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.Cart{}, domain.ErrCartNotFound
	case resp.StatusCode == http.StatusConflict:
		var e errorEnvelope
		if jsonErr := json.Unmarshal(body, &e); jsonErr == nil && e.Error != "" {
			return domain.Cart{}, fmt.Errorf("%w: %s", domain.ErrStockExceeded, e.Error)
		}
		return domain.Cart{}, domain.ErrStockExceeded
	case resp.StatusCode >= 500:
		return domain.Cart{}, fmt.Errorf("%w: status %d", domain.ErrRemoteUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		var e errorEnvelope
		if jsonErr := json.Unmarshal(body, &e); jsonErr == nil && e.Error != "" {
			return domain.Cart{}, fmt.Errorf("cart request rejected: %s", e.Error)
		}
		return domain.Cart{}, fmt.Errorf("cart request rejected: status %d", resp.StatusCode)
	}

	var envelope cartEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return domain.Cart{}, fmt.Errorf("failed to decode cart response: %w", err)
	}

	return envelope.Cart, nil
}

var _ Client = (*HTTPClient)(nil)
