// Package storage holds the book catalog adapters the enrichment service reads from and commits to.
package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
)

// ErrNotFound is returned when no book has the requested ID
var ErrNotFound = errors.New("book not found")

// BookStore reads a book by ID and commits a whole updated book in one write
type BookStore interface {
	Get(ctx context.Context, id string) (models.Book, error)
	Commit(ctx context.Context, book models.Book) error
}

// MemoryStore keeps books in a map; used by tests and by `serve --memory`
type MemoryStore struct {
	books map[string]models.Book
	mu    sync.RWMutex
}

func NewMemory(books ...models.Book) *MemoryStore {
	s := &MemoryStore{
		books: make(map[string]models.Book, len(books)),
	}
	for _, b := range books {
		s.books[b.ID] = b.Clone()
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, id string) (models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, exists := s.books[id]
	if !exists {
		return models.Book{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return book.Clone(), nil
}

func (s *MemoryStore) Commit(ctx context.Context, book models.Book) error {
	if book.ID == "" {
		return errors.New("book id is required")
	}
	book = book.Clone()
	book.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[book.ID] = book
	return nil
}

// All returns copies of every stored book ordered by ID
func (s *MemoryStore) All() []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Book, 0, len(s.books))
	for _, b := range s.books {
		result = append(result, b.Clone())
	}
	slices.SortFunc(result, func(a, b models.Book) int { return strings.Compare(a.ID, b.ID) })
	return result
}

func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.books, id)
}
