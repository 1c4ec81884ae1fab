package definition

import (
	"context"
	"sort"

	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/util"
	"github.com/openpipe/connectorhub/internal/util/pagination"
)

type ListDefinitionsExecutor interface {
	// FetchPage fetches a page of results.
	FetchPage(ctx context.Context) pagination.PageResult[*Definition]

	// Enumerate fetches pages of results until the callback returns false or there are no more results.
	Enumerate(ctx context.Context, callback func(pagination.PageResult[*Definition]) (keepGoing bool, err error)) error
}

type ListDefinitionsBuilder interface {
	ListDefinitionsExecutor
	Limit(int32) ListDefinitionsBuilder
	ForConnectorType(database.ConnectorType) ListDefinitionsBuilder
	IncludeTombstoned() ListDefinitionsBuilder
}

// listDefinitionsFilters is serialized into the page cursor so a follow-up
// request continues with the same filters and position.
type listDefinitionsFilters struct {
	LimitVal         int32                   `json:"limit,omitempty"`
	ConnectorTypeVal *database.ConnectorType `json:"connector_type,omitempty"`
	TombstonedVal    bool                    `json:"tombstoned,omitempty"`
	AfterID          string                  `json:"after_id,omitempty"`
	HasAppliedCursor bool                    `json:"cursor,omitempty"`
}

type listDefinitionsExecutor struct {
	registry *registry
	filters  listDefinitionsFilters
}

func (r *registry) ListDefinitionsBuilder() ListDefinitionsBuilder {
	return &listDefinitionsExecutor{registry: r}
}

func (r *registry) ListDefinitionsFromCursor(ctx context.Context, cursor string) (ListDefinitionsExecutor, error) {
	filters, err := pagination.ParseCursor[listDefinitionsFilters](ctx, r.secretKey, cursor)
	if err != nil {
		return nil, err
	}

	return &listDefinitionsExecutor{registry: r, filters: *filters}, nil
}

func (e *listDefinitionsExecutor) Limit(limit int32) ListDefinitionsBuilder {
	e.filters.LimitVal = limit
	return e
}

func (e *listDefinitionsExecutor) ForConnectorType(ct database.ConnectorType) ListDefinitionsBuilder {
	e.filters.ConnectorTypeVal = util.ToPtr(ct)
	return e
}

func (e *listDefinitionsExecutor) IncludeTombstoned() ListDefinitionsBuilder {
	e.filters.TombstonedVal = true
	return e
}

func (e *listDefinitionsExecutor) matches(d *Definition) bool {
	if e.filters.ConnectorTypeVal != nil && d.ConnectorType != *e.filters.ConnectorTypeVal {
		return false
	}

	if d.Tombstone && !e.filters.TombstonedVal {
		return false
	}

	return true
}

func (e *listDefinitionsExecutor) FetchPage(ctx context.Context) pagination.PageResult[*Definition] {
	matching := make([]*Definition, 0, len(e.registry.ordered))
	for _, d := range e.registry.ordered {
		if e.matches(d) {
			matching = append(matching, d)
		}
	}
	total := int64(len(matching))

	// Resume past the position recorded in the cursor. The catalog is ordered
	// by id, so anything at or before the recorded id has already been seen.
	results := matching
	if e.filters.HasAppliedCursor {
		idx := sort.Search(len(matching), func(i int) bool {
			return matching[i].ID > e.filters.AfterID
		})
		results = matching[idx:]
	}

	hasMore := false
	if e.filters.LimitVal > 0 && int32(len(results)) > e.filters.LimitVal {
		results = results[:e.filters.LimitVal]
		hasMore = true
	}

	result := pagination.PageResult[*Definition]{
		Results: results,
		HasMore: hasMore,
		Total:   &total,
	}

	if hasMore {
		next := e.filters
		next.AfterID = results[len(results)-1].ID
		next.HasAppliedCursor = true

		cursor, err := pagination.MakeCursor(ctx, e.registry.secretKey, &next)
		if err != nil {
			return pagination.PageResult[*Definition]{Error: err}
		}
		result.Cursor = cursor
	}

	return result
}

func (e *listDefinitionsExecutor) Enumerate(ctx context.Context, callback func(pagination.PageResult[*Definition]) (keepGoing bool, err error)) error {
	var ex ListDefinitionsExecutor = e
	for {
		page := ex.FetchPage(ctx)
		keepGoing, err := callback(page)
		if err != nil {
			return err
		}

		if !keepGoing || page.Error != nil || !page.HasMore {
			return page.Error
		}

		next, err := e.registry.ListDefinitionsFromCursor(ctx, page.Cursor)
		if err != nil {
			return err
		}
		ex = next
	}
}
