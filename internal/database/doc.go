// Package database is the SQLite persistence adapter for the book library.
//
// # Schema
//
// One table per collection, children keyed by (book_id, id):
//
//	books              one row per book, ordered by position
//	bookmarks          page-anchored notes
//	annotations        reviews, quotes and notes (kind column)
//	reading_sessions   finished reading sessions
//	settings           key/value application settings
//
// Author, category and tag lists are JSON text columns.
//
// # Usage
//
//	db, err := database.NewDatabase("./readtrack.db")
//	if err := db.Init(ctx); err != nil { ... }
//	books, err := db.Load(ctx)
//	err = db.SaveAll(ctx, books)
//
// SaveAll is a full replace executed in a single transaction: deleting a book
// from the list and saving removes all of its nested rows.
package database
