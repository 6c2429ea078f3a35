package domain

// DefaultSimilarity is the similarity threshold used when a caller does
// not express a preference. A similarity of 0.8 admits matches with
// cosine distance <= 0.2.
const DefaultSimilarity = 0.8

const (
	// DefaultSearchLimit is the page size applied when none is given
	DefaultSearchLimit = 10

	// MaxSearchLimit caps a single page
	MaxSearchLimit = 100
)

// SearchOptions configures a similarity search request.
type SearchOptions struct {
	// Similarity is the user-facing threshold in [0, 1]; higher is
	// stricter. It is inverted to a cosine distance threshold before
	// the store is queried. Negative means "use the default".
	Similarity float64 `json:"similarity"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
	GroupID    *int64  `json:"group_id,omitempty"`
}

// DefaultSearchOptions returns sensible defaults
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Similarity: DefaultSimilarity,
		Limit:      DefaultSearchLimit,
		Offset:     0,
	}
}

// SearchQuery is the request-scoped value handed to the vector store
// once the query text has been embedded and the threshold inverted.
type SearchQuery struct {
	UserID            int64
	Text              string
	Vector            []float32
	DistanceThreshold float64
	Limit             int
	Offset            int
	GroupID           *int64
}

// NewSearchQuery validates options, applies defaults and performs the
// exact similarity-to-distance inversion: distance = 1 - similarity.
func NewSearchQuery(userID int64, text string, vector []float32, opts SearchOptions) (*SearchQuery, error) {
	if opts.Limit == 0 {
		opts.Limit = DefaultSearchLimit
	}
	if opts.Limit < 0 {
		return nil, ErrInvalidPagination
	}
	if opts.Limit > MaxSearchLimit {
		opts.Limit = MaxSearchLimit
	}
	if opts.Offset < 0 {
		return nil, ErrInvalidPagination
	}
	if opts.Similarity < 0 {
		opts.Similarity = DefaultSimilarity
	}
	if opts.Similarity > 1 {
		return nil, ErrInvalidThreshold
	}
	return &SearchQuery{
		UserID:            userID,
		Text:              text,
		Vector:            vector,
		DistanceThreshold: 1 - opts.Similarity,
		Limit:             opts.Limit,
		Offset:            opts.Offset,
		GroupID:           opts.GroupID,
	}, nil
}

// SearchHit is a single ranked match. Distance is cosine distance
// (1 - cosine similarity): never negative, bounded by 2, lower is better.
type SearchHit struct {
	ID       int64             `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Distance float64           `json:"distance"`
}

// SearchResult is the outcome of a similarity search. Total counts every
// eligible document under the filter and threshold, not just this page,
// so callers can paginate exactly.
type SearchResult struct {
	Hits  []SearchHit `json:"results"`
	Total int         `json:"total"`
}

// EmptySearchResult is what a degraded search returns when the embedding
// gateway is unavailable: zero hits, zero total, no error.
func EmptySearchResult() *SearchResult {
	return &SearchResult{Hits: []SearchHit{}, Total: 0}
}
