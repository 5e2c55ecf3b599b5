package kvstore

import (
	"encoding/json"
	"fmt"

	"github.com/mrlokans/readtrack/internal/entities"
)

// bookRecord is a book without its nested collections.
type bookRecord struct {
	entities.Book
	Position int `json:"position"`
}

type childRecord[T any] struct {
	BookID string `json:"book_id"`
	Item   T      `json:"item"`
}

type entry struct {
	key   []byte
	value []byte
}

// childKey zero-pads the position so keys iterate in stored order.
func childKey(prefix, bookID string, pos int) []byte {
	return []byte(fmt.Sprintf("%s%s:%06d", prefix, bookID, pos))
}

func encodeGraph(books []entities.Book) ([]entry, error) {
	var entries []entry
	add := func(key []byte, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		entries = append(entries, entry{key: key, value: data})
		return nil
	}

	for pos, b := range books {
		head := b
		head.Bookmarks = nil
		head.Reviews = nil
		head.Quotes = nil
		head.Notes = nil
		head.ReadingSessions = nil
		if err := add([]byte(prefixBook+b.ID), bookRecord{Book: head, Position: pos}); err != nil {
			return nil, err
		}

		for i, bm := range b.Bookmarks {
			if err := add(childKey(prefixBookmark, b.ID, i), childRecord[entities.Bookmark]{BookID: b.ID, Item: bm}); err != nil {
				return nil, err
			}
		}

		n := 0
		for _, kind := range []entities.AnnotationKind{entities.AnnotationReview, entities.AnnotationQuote, entities.AnnotationNote} {
			for _, a := range b.Annotations(kind) {
				a.Kind = kind
				if err := add(childKey(prefixAnnotation, b.ID, n), childRecord[entities.Annotation]{BookID: b.ID, Item: a}); err != nil {
					return nil, err
				}
				n++
			}
		}

		for i, s := range b.ReadingSessions {
			if err := add(childKey(prefixSession, b.ID, i), childRecord[entities.ReadingSession]{BookID: b.ID, Item: s}); err != nil {
				return nil, err
			}
		}
	}
	return entries, nil
}
