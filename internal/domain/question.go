package domain

// QueryPlan is the ordered set of search queries generated for a single
// question. It is produced once per question and discarded after the
// search stage consumed it.
type QueryPlan struct {
	Queries []string `json:"queries"`
}

// SearchResult is one web-search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// ResultSet maps each planned query to its ordered results. The key set
// always equals the query set that was executed: a query whose search
// failed maps to an empty slice, never to a missing key.
type ResultSet map[string][]SearchResult

// Answer is the terminal artifact of the pipeline: Markdown prose plus the
// ordered sources it cites. It is handed to the display layer and not
// persisted anywhere.
type Answer struct {
	RequestID string         `json:"request_id"`
	Markdown  string         `json:"markdown"`
	Sources   []SearchResult `json:"sources"`
}
