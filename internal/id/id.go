// Package id generates the prefixed identifiers used for books and their
// nested records.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each record kind.
const (
	PrefixBook       = "book"
	PrefixBookmark   = "bm"
	PrefixAnnotation = "ann"
	PrefixSession    = "sess"
)

// Generate creates a prefixed NanoID, e.g. "book-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}
