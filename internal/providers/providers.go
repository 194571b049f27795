package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
)

// Provider is implemented by every metadata source.
//
// Search must not panic, must honour ctx cancellation during network I/O and
// must not mutate shared state. Returning an error and returning no records are
// treated the same by callers; the error only feeds logging.
type Provider interface {
	Info() models.SourceInfo
	Search(ctx context.Context, query, genericCover, locale string) ([]models.MetaRecord, error)
}

// Checker is implemented by providers that can tell at registration time whether
// they are usable (credentials present, data file readable).
type Checker interface {
	Ready() error
}

var (
	// ErrDuplicateID is wrapped by DuplicateIDError
	ErrDuplicateID = errors.New("duplicate source id")
	// ErrUnknownSource is returned for IDs that were never registered
	ErrUnknownSource = errors.New("unknown source")
)

// DuplicateIDError reports a second registration under an existing ID
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("source %q already registered", e.ID)
}

func (e *DuplicateIDError) Unwrap() error {
	return ErrDuplicateID
}

// Func adapts a plain function into a Provider; handy for tests and small in-process sources
type Func struct {
	Source   models.SourceInfo
	SearchFn func(ctx context.Context, query, genericCover, locale string) ([]models.MetaRecord, error)
}

func (f Func) Info() models.SourceInfo { return f.Source }

func (f Func) Search(ctx context.Context, query, genericCover, locale string) ([]models.MetaRecord, error) {
	return f.SearchFn(ctx, query, genericCover, locale)
}
