package v1

// Commit is one entry of the commit log.
type Commit struct {
	Hash    string `json:"hash"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Message string `json:"message"`
	Diff    string `json:"diff,omitempty"`
}

// SearchResult is a commit ranked by similarity to a query.
type SearchResult struct {
	Commit   Commit  `json:"commit"`
	Score    float64 `json:"score"`
	Position int     `json:"position"`
}

// Answer is a generated reply together with the commits it was grounded on.
// Failed is set when the model call failed; Text then holds the error.
type Answer struct {
	Text    string         `json:"text"`
	Failed  bool           `json:"failed"`
	Results []SearchResult `json:"results"`
}
