package search

import (
	"context"

	"github.com/totto/penpot-wizard-sub002/internal/domain/search/request"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/result"
)

// Index is a searchable document store.
type Index interface {
	Search(ctx context.Context, req request.Request) ([]result.Hit, error)
}
