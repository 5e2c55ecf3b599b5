package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/mrlokans/readtrack/internal/entities"
)

const googleBooksBaseURL = "https://www.googleapis.com/books/v1"

// GoogleBooksClient searches the Google Books volumes API. The API key is
// optional.
type GoogleBooksClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	rateLimiter *rate.Limiter
}

type googleVolumes struct {
	TotalItems int            `json:"totalItems"`
	Items      []googleVolume `json:"items"`
}

type googleVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title               string   `json:"title"`
		Authors             []string `json:"authors"`
		Publisher           string   `json:"publisher"`
		PublishedDate       string   `json:"publishedDate"`
		Description         string   `json:"description"`
		PageCount           int      `json:"pageCount"`
		Categories          []string `json:"categories"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
		ImageLinks struct {
			SmallThumbnail string `json:"smallThumbnail"`
			Thumbnail      string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

func (c *GoogleBooksClient) Search(ctx context.Context, query string) ([]entities.ExternalBookCandidate, error) {
	query, err := checkQuery(query)
	if err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	if isbn := normalizeISBN(query); isbn != "" {
		params.Set("q", "isbn:"+isbn)
	} else {
		params.Set("q", query)
	}
	params.Set("maxResults", strconv.Itoa(defaultLimit))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := newRequest(ctx, fmt.Sprintf("%s/volumes?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search volumes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result googleVolumes
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode volumes response: %w", err)
	}

	candidates := make([]entities.ExternalBookCandidate, 0, len(result.Items))
	for i := range result.Items {
		candidates = append(candidates, convertVolume(&result.Items[i]))
	}
	return candidates, nil
}

func convertVolume(v *googleVolume) entities.ExternalBookCandidate {
	info := v.VolumeInfo
	candidate := entities.ExternalBookCandidate{
		Title:         info.Title,
		Author:        joinAuthors(info.Authors),
		Authors:       info.Authors,
		Publisher:     info.Publisher,
		PublishedDate: info.PublishedDate,
		Description:   info.Description,
		PageCount:     info.PageCount,
		Categories:    info.Categories,
		SourceTag:     entities.SourceGoogleBooks,
	}

	// Prefer ISBN-13 over ISBN-10.
	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			candidate.ISBN = id.Identifier
			break
		}
		if id.Type == "ISBN_10" && candidate.ISBN == "" {
			candidate.ISBN = id.Identifier
		}
	}

	thumb := info.ImageLinks.Thumbnail
	if thumb == "" {
		thumb = info.ImageLinks.SmallThumbnail
	}
	candidate.ThumbnailURL = strings.Replace(thumb, "http://", "https://", 1)

	return candidate
}
