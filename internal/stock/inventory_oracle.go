package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/funmbia/Novelty/internal/domain"
)

// InventoryOracle asks the inventory service for live availability and
// falls back to the catalog figure when the service is unreachable. A stale
// clamp beats failing the whole add.
type InventoryOracle struct {
	baseURL string
	client  *http.Client
}

func NewInventoryOracle(baseURL string) *InventoryOracle {
	return &InventoryOracle{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type stockResponse struct {
	BookID    int64 `json:"bookId"`
	Available int   `json:"available"`
}

func (o *InventoryOracle) Available(ctx context.Context, book domain.Book) (int, error) {
	url := fmt.Sprintf("%s/inventory/%d", o.baseURL, book.BookID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build inventory request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		log.Printf("inventory lookup failed, using catalog stock: %v", err)
		return book.AvailableStock, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("inventory lookup returned %d, using catalog stock", resp.StatusCode)
		return book.AvailableStock, nil
	}

	var body stockResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode inventory response: %w", err)
	}

	return body.Available, nil
}

var _ Oracle = (*InventoryOracle)(nil)
