package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/funmbia/Novelty/internal/cartserv/cache"
	"github.com/funmbia/Novelty/internal/cartserv/domain"
	"github.com/funmbia/Novelty/internal/cartserv/repository"
	wire "github.com/funmbia/Novelty/internal/domain"
	"github.com/funmbia/Novelty/internal/stock"
)

// ErrStockExceeded rejects an add that would push the cart past the
// available stock for a book.
var ErrStockExceeded = errors.New("requested quantity exceeds available stock")

type CartService struct {
	repo   repository.CartRepository
	cache  cache.CartCache
	books  BookSource   // optional, enriches items with catalog details
	oracle stock.Oracle // optional, rejects adds beyond available stock
	sfg    singleflight.Group
}

func NewCartService(repo repository.CartRepository, cartCache cache.CartCache, books BookSource, oracle stock.Oracle) *CartService {
	return &CartService{
		repo:   repo,
		cache:  cartCache,
		books:  books,
		oracle: oracle,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil {
			return nil, errGet
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), userID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil // cart was not in cache, return it from repo
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *CartService) CreateCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := s.repo.CreateCart(ctx, userID)
	if err != nil {
		log.Printf("repo create cart error: %v", err)
		return nil, err
	}

	invalidateCache(s, userID)
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, userID int64, bookID int64, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	item := domain.CartItem{
		LineID:   uuid.NewString(),
		BookID:   bookID,
		Quantity: quantity,
	}

	if s.books != nil {
		book, err := s.books.BookByID(ctx, bookID)
		if err != nil {
			// A cart with a bare book id still renders; details backfill
			// on the next catalog sync.
			log.Printf("catalog lookup for book %d failed: %v", bookID, err)
		} else {
			item.Title = book.Title
			item.Author = book.Author
			item.Price = book.Price
			item.ImageURL = book.ImageURL

			if err := s.checkStock(ctx, userID, book, quantity); err != nil {
				return nil, err
			}
		}
	}

	if errAdd := s.repo.AddItem(ctx, userID, item); errAdd != nil {
		log.Printf("repo add item error: %v", errAdd)
		return nil, errAdd
	}

	invalidateCache(s, userID)
	return s.repo.GetCart(ctx, userID)
}

func (s *CartService) SetQuantity(ctx context.Context, userID int64, lineID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, lineID)
	}

	if errUpdate := s.repo.SetItemQuantity(ctx, userID, lineID, quantity); errUpdate != nil {
		log.Printf("repo update item quantity error: %v", errUpdate)
		return nil, errUpdate
	}

	invalidateCache(s, userID)
	return s.repo.GetCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID int64, lineID string) (*domain.Cart, error) {
	if errRemove := s.repo.RemoveItem(ctx, userID, lineID); errRemove != nil {
		log.Printf("repo remove item error: %v", errRemove)
		return nil, errRemove
	}

	invalidateCache(s, userID)
	return s.repo.GetCart(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID int64) (*domain.Cart, error) {
	if errClear := s.repo.ClearCart(ctx, userID); errClear != nil {
		log.Printf("repo clear cart error: %v", errClear)
		return nil, errClear
	}

	invalidateCache(s, userID)
	return s.repo.GetCart(ctx, userID)
}

// checkStock rejects an add when the cart's existing quantity for the book
// plus the requested quantity exceeds what the oracle reports available.
// Oracle failures do not block the add.
func (s *CartService) checkStock(ctx context.Context, userID int64, book wire.Book, quantity int) error {
	if s.oracle == nil {
		return nil
	}

	available, err := s.oracle.Available(ctx, book)
	if err != nil {
		log.Printf("stock lookup for book %d failed: %v", book.BookID, err)
		return nil
	}

	current := 0
	if cart, errGet := s.repo.GetCart(ctx, userID); errGet == nil {
		if item, ok := cart.FindByBook(book.BookID); ok {
			current = item.Quantity
		}
	}

	if current+quantity > available {
		return fmt.Errorf("%w: %d requested, %d available", ErrStockExceeded, current+quantity, available)
	}
	return nil
}

func invalidateCache(s *CartService, userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, userID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v", errInvalidate)
	}
}
