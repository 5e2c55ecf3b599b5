package entities

// ExternalBookCandidate is a search hit from a book search provider.
type ExternalBookCandidate struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Authors       []string `json:"authors,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	ThumbnailURL  string   `json:"thumbnail_url,omitempty"`
	Description   string   `json:"description,omitempty"`
	ISBN          string   `json:"isbn,omitempty"`
	PageCount     int      `json:"page_count,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	SourceTag     string   `json:"source_tag"`
}

// Draft maps the candidate into a new book draft. Missing authors fall back
// to UnknownAuthor so search imports never fail author validation.
func (c ExternalBookCandidate) Draft() BookDraft {
	authors := c.Authors
	if len(authors) == 0 && c.Author != "" {
		authors = []string{c.Author}
	}
	if len(authors) == 0 {
		authors = []string{UnknownAuthor}
	}
	source := c.SourceTag
	if source == "" {
		source = SourceManual
	}
	return BookDraft{
		Title:         c.Title,
		Authors:       append([]string(nil), authors...),
		Publisher:     c.Publisher,
		PublishedDate: c.PublishedDate,
		Description:   c.Description,
		ThumbnailURL:  c.ThumbnailURL,
		ISBN:          c.ISBN,
		Source:        source,
		Categories:    append([]string(nil), c.Categories...),
		Status:        StatusWantToRead,
		PageCount:     max(c.PageCount, 0),
	}
}
