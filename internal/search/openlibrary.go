package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/mrlokans/readtrack/internal/entities"
)

const (
	openLibraryBaseURL = "https://openlibrary.org"
	maxSubjects        = 5
)

// OpenLibraryClient searches the OpenLibrary catalogue.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
}

type openLibrarySearchResult struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	Publisher        []string `json:"publisher"`
	FirstPublishYear int      `json:"first_publish_year"`
	ISBN             []string `json:"isbn"`
	CoverI           int      `json:"cover_i"`
	NumberOfPages    int      `json:"number_of_pages_median"`
	Subject          []string `json:"subject"`
	FirstSentence    []string `json:"first_sentence"`
}

// Search runs a free-text query. A query shaped like an ISBN is sent as an
// ISBN lookup.
func (c *OpenLibraryClient) Search(ctx context.Context, query string) ([]entities.ExternalBookCandidate, error) {
	query, err := checkQuery(query)
	if err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	if isbn := normalizeISBN(query); isbn != "" {
		params.Set("isbn", isbn)
	} else {
		params.Set("q", query)
	}
	params.Set("limit", strconv.Itoa(defaultLimit))

	req, err := newRequest(ctx, fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result openLibrarySearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	candidates := make([]entities.ExternalBookCandidate, 0, len(result.Docs))
	for i := range result.Docs {
		candidates = append(candidates, c.convertSearchDoc(&result.Docs[i]))
	}
	return candidates, nil
}

func (c *OpenLibraryClient) convertSearchDoc(doc *openLibrarySearchDoc) entities.ExternalBookCandidate {
	candidate := entities.ExternalBookCandidate{
		Title:       doc.Title,
		Author:      joinAuthors(doc.AuthorName),
		Authors:     doc.AuthorName,
		Publisher:   firstOf(doc.Publisher),
		Description: firstOf(doc.FirstSentence),
		PageCount:   doc.NumberOfPages,
		SourceTag:   entities.SourceOpenLibrary,
	}

	if doc.FirstPublishYear > 0 {
		candidate.PublishedDate = strconv.Itoa(doc.FirstPublishYear)
	}

	for _, isbn := range doc.ISBN {
		if normalized := normalizeISBN(isbn); normalized != "" {
			candidate.ISBN = normalized
			break
		}
	}

	if doc.CoverI != 0 {
		candidate.ThumbnailURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", doc.CoverI)
	} else if candidate.ISBN != "" {
		candidate.ThumbnailURL = fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-M.jpg", candidate.ISBN)
	}

	if len(doc.Subject) > 0 {
		candidate.Categories = doc.Subject[:min(len(doc.Subject), maxSubjects)]
	}

	return candidate
}
