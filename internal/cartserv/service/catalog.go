package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	wire "github.com/funmbia/Novelty/internal/domain"
)

// BookSource resolves a book id to its catalog details so cart items can
// carry title and price without the caller supplying them.
type BookSource interface {
	BookByID(ctx context.Context, bookID int64) (wire.Book, error)
}

// HTTPCatalog looks books up in the catalog service.
type HTTPCatalog struct {
	baseURL string
	client  *http.Client
}

func NewHTTPCatalog(baseURL string) *HTTPCatalog {
	return &HTTPCatalog{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *HTTPCatalog) BookByID(ctx context.Context, bookID int64) (wire.Book, error) {
	url := fmt.Sprintf("%s/books/%d", c.baseURL, bookID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return wire.Book{}, fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return wire.Book{}, fmt.Errorf("catalog lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return wire.Book{}, fmt.Errorf("catalog lookup returned status %d", resp.StatusCode)
	}

	var book wire.Book
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return wire.Book{}, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	return book, nil
}

var _ BookSource = (*HTTPCatalog)(nil)
