package pagination

// PageResult is the result of a paged query
type PageResult[T any] struct {
	// Results is the list of results for this page
	Results []T

	// HasMore indicates whether there are more results to fetch
	HasMore bool

	// Cursor is the opaque page token to use to fetch the next page of results. Empty when the page
	// reached the end of the result set.
	Cursor string

	// Error is set if there was an error fetching the results
	Error error

	// Total is the total number of results matching the query across all pages, when the system
	// providing the results computes it.
	Total *int64
}
