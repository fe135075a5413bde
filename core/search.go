package core

// SearchResult is a memory item returned by MemoryStore.Search, ordered by
// Score descending.
type SearchResult struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
