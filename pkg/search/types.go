package search

import "time"

type Config struct {
	// IndexPath empty means an in-memory index.
	IndexPath    string
	QueryTimeout time.Duration
	BatchSize    int
}

type Doc struct {
	ID     string
	Type   string
	Fields map[string]any
}

type SearchRequest struct {
	Keyword      string
	SearchFields []string

	// exact matches on keyword fields, e.g. {"user_id": {"7"}}
	MustTerms map[string][]string

	SortBy []string
	From   int
	Size   int
}

type Hit struct {
	ID     string
	Score  float64
	Fields map[string]any
}

type SearchResult struct {
	Total uint64
	Took  time.Duration
	Hits  []Hit
}

// IDs returns hit ids in rank order.
func (r SearchResult) IDs() []string {
	ids := make([]string, 0, len(r.Hits))
	for _, h := range r.Hits {
		ids = append(ids, h.ID)
	}
	return ids
}
