package validation

import (
	"context"

	"github.com/totto/penpot-wizard-sub002/internal/domain/search/request"
	"github.com/totto/penpot-wizard-sub002/internal/domain/search/result"
	"github.com/totto/penpot-wizard-sub002/internal/usecase/search"
)

// Searcher runs one query against an index.
type Searcher interface {
	Search(ctx context.Context, idx search.Index, query string, opts request.Options) ([]result.Hit, error)
}
