package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/errors"
)

type BooksController struct {
	store BookStore
}

func NewBooksController(store BookStore) *BooksController {
	return &BooksController{
		store: store,
	}
}

// ListBooks handles GET /api/books?status=&tag=&q=&sort=&desc=&limit=
func (controller *BooksController) ListBooks(c *gin.Context) {
	opts := entities.ListOptions{
		Status: entities.Status(c.Query("status")),
		Tag:    strings.TrimSpace(c.Query("tag")),
		Search: c.Query("q"),
		Sort:   entities.SortKey(c.Query("sort")),
		Desc:   c.Query("desc") == "true",
	}
	if opts.Status != "" && !opts.Status.Valid() {
		respondBadRequest(c, "invalid status")
		return
	}
	switch opts.Sort {
	case "", entities.SortRecent, entities.SortCreated, entities.SortTitle, entities.SortAuthor:
	default:
		respondBadRequest(c, "invalid sort")
		return
	}
	limit, ok := parseIntQuery(c, "limit", 0)
	if !ok {
		return
	}
	opts.Limit = limit

	books := controller.store.ListBooks(opts)
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// GetBook handles GET /api/books/:id
func (controller *BooksController) GetBook(c *gin.Context) {
	book, ok := controller.store.GetBook(c.Param("id"))
	if !ok {
		respondError(c, errors.NotFoundf("book %s not found", c.Param("id")), "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// CreateBook handles POST /api/books
func (controller *BooksController) CreateBook(c *gin.Context) {
	var draft entities.BookDraft
	if !bindJSON(c, &draft) {
		return
	}
	if draft.Source == "" {
		draft.Source = entities.SourceManual
	}

	book, err := controller.store.AddBook(draft)
	if err != nil {
		respondError(c, err, "create book")
		return
	}
	respondCreated(c, book)
}

// UpdateBook handles PATCH /api/books/:id
func (controller *BooksController) UpdateBook(c *gin.Context) {
	var patch entities.BookPatch
	if !bindJSON(c, &patch) {
		return
	}

	book, err := controller.store.UpdateBook(c.Param("id"), patch)
	if err != nil {
		respondError(c, err, "update book")
		return
	}
	c.JSON(http.StatusOK, book)
}

type setStatusRequest struct {
	Status entities.Status `json:"status"`
}

// SetStatus handles PUT /api/books/:id/status
func (controller *BooksController) SetStatus(c *gin.Context) {
	var req setStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := controller.store.SetStatus(c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, "set status")
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/:id
func (controller *BooksController) DeleteBook(c *gin.Context) {
	if err := controller.store.RemoveBook(c.Param("id")); err != nil {
		respondError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}
