// Package search looks up books in external catalogues and returns them as
// candidates that the library can import.
package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/errors"
)

const (
	ProviderOpenLibrary = "openlibrary"
	ProviderGoogleBooks = "googlebooks"

	userAgent    = "ReadTrack/1.0 (https://github.com/mrlokans/readtrack)"
	defaultLimit = 20
)

// Provider searches a book catalogue.
type Provider interface {
	Search(ctx context.Context, query string) ([]entities.ExternalBookCandidate, error)
}

type Config struct {
	Provider       string
	Timeout        time.Duration
	RatePerSecond  float64
	GoogleBooksKey string
}

// New returns the provider named in cfg.
func New(cfg Config) (Provider, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)

	switch cfg.Provider {
	case "", ProviderOpenLibrary:
		return &OpenLibraryClient{httpClient: httpClient, baseURL: openLibraryBaseURL, rateLimiter: limiter}, nil
	case ProviderGoogleBooks:
		return &GoogleBooksClient{httpClient: httpClient, baseURL: googleBooksBaseURL, apiKey: cfg.GoogleBooksKey, rateLimiter: limiter}, nil
	}
	return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
}

// BestMatch picks the candidate closest to title and author: exact title
// matches beat partial ones, matching authors add weight, and candidates with
// an ISBN or a cover win ties.
func BestMatch(candidates []entities.ExternalBookCandidate, title, author string) (entities.ExternalBookCandidate, bool) {
	if len(candidates) == 0 {
		return entities.ExternalBookCandidate{}, false
	}

	titleLower := strings.ToLower(strings.TrimSpace(title))
	authorLower := strings.ToLower(strings.TrimSpace(author))

	best, bestScore := 0, -1
	for i, c := range candidates {
		score := 0

		candidateTitle := strings.ToLower(c.Title)
		if candidateTitle == titleLower {
			score += 10
		} else if titleLower != "" && strings.Contains(candidateTitle, titleLower) {
			score += 5
		}

		if authorLower != "" {
			for _, a := range candidateAuthors(c) {
				a = strings.ToLower(a)
				if a == authorLower {
					score += 10
					break
				} else if strings.Contains(a, authorLower) {
					score += 5
					break
				}
			}
		}

		if c.ISBN != "" {
			score += 2
		}
		if c.ThumbnailURL != "" {
			score++
		}

		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return candidates[best], true
}

func candidateAuthors(c entities.ExternalBookCandidate) []string {
	if len(c.Authors) > 0 {
		return c.Authors
	}
	if c.Author != "" {
		return []string{c.Author}
	}
	return nil
}

func checkQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.ValidationField("q", "is required")
	}
	return query, nil
}

func newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// normalizeISBN removes hyphens and spaces; it returns "" for anything that
// is not ISBN-10 or ISBN-13 shaped.
func normalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.TrimSpace(isbn)

	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	for i, r := range isbn {
		if r >= '0' && r <= '9' {
			continue
		}
		if i == 9 && len(isbn) == 10 && (r == 'X' || r == 'x') {
			continue
		}
		return ""
	}
	return isbn
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func joinAuthors(authors []string) string {
	return strings.Join(authors, ", ")
}
