// Package demo provides the bundled sample library and the read-only guard
// used when the server runs as a public demo.
package demo

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/mrlokans/readtrack/internal/entities"
)

//go:embed seed.json
var seedJSON []byte

// Seed returns a fresh copy of the bundled sample books.
func Seed() ([]entities.Book, error) {
	var books []entities.Book
	if err := json.Unmarshal(seedJSON, &books); err != nil {
		return nil, fmt.Errorf("parse demo seed: %w", err)
	}
	for i := range books {
		books[i].Normalize()
	}
	return books, nil
}
