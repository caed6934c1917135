package entity

// SourceCategory is one named listing URL inside a source.
type SourceCategory struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SourceDescriptor is one input to a scraping run: a named site with
// category listing pages, or a flat list of direct URLs produced by the
// discovery step. It is read-only for the duration of the run.
type SourceDescriptor struct {
	Name       string           `json:"name"`
	BaseURL    string           `json:"base_url,omitempty"`
	Categories []SourceCategory `json:"categories,omitempty"`
	DirectURLs []string         `json:"direct_urls,omitempty"`
}

// Empty reports whether the descriptor carries no usable URLs.
func (s *SourceDescriptor) Empty() bool {
	return len(s.Categories) == 0 && len(s.DirectURLs) == 0
}
