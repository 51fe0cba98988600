package poller

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"

	c "github.com/funmbia/Novelty/internal/cartserv/cache"
	r "github.com/funmbia/Novelty/internal/cartserv/repository"
)

// MessageReader is the slice of kafka.Reader the poller consumes.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Poller empties a user's cart when their order completes. The order
// pipeline owns the items from that point on.
type Poller struct {
	repo   r.CartRepository
	cache  c.CartCache
	reader MessageReader
}

func NewPoller(repo r.CartRepository, cache c.CartCache, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "order-completed",
		GroupID:  "cartserv-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{repo: repo, cache: cache, reader: reader}
}

// NewPollerWithReader wires an explicit reader, used by tests.
func NewPollerWithReader(repo r.CartRepository, cache c.CartCache, reader MessageReader) *Poller {
	return &Poller{repo: repo, cache: cache, reader: reader}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.consumeAndEmptyCart(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		log.Printf("error closing reader: %v", err)
	}
}

func (p *Poller) consumeAndEmptyCart(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("error reading message: %v", err)
		}
		return
	}

	var payload map[string]interface{}
	if errUnMarshal := json.Unmarshal(m.Value, &payload); errUnMarshal != nil {
		log.Printf("error parsing message: %v", errUnMarshal)
		return
	}
	rawUserID, ok := payload["user_id"].(float64)
	if !ok {
		log.Printf("missing or invalid user_id")
		return
	}
	userID := int64(rawUserID)

	if errClear := p.repo.ClearCart(ctx, userID); errClear != nil {
		log.Printf("failed to clear cart for user %d: %v", userID, errClear)
	}

	if errCacheDelete := p.cache.Delete(ctx, userID); errCacheDelete != nil {
		log.Printf("failed to delete cache for user %d: %v", userID, errCacheDelete)
	}
}
