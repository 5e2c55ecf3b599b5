package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/errors"
)

// CollectionsController handles bookmarks, reviews, quotes and notes.
type CollectionsController struct {
	store CollectionStore
}

func NewCollectionsController(store CollectionStore) *CollectionsController {
	return &CollectionsController{store: store}
}

// AddBookmark handles POST /api/books/:id/bookmarks
func (cc *CollectionsController) AddBookmark(c *gin.Context) {
	var in entities.BookmarkInput
	if !bindJSON(c, &in) {
		return
	}

	bookmark, err := cc.store.AddBookmark(c.Param("id"), in)
	if err != nil {
		respondError(c, err, "add bookmark")
		return
	}
	respondCreated(c, bookmark)
}

// UpdateBookmark handles PATCH /api/books/:id/bookmarks/:bookmarkId
func (cc *CollectionsController) UpdateBookmark(c *gin.Context) {
	var patch entities.BookmarkPatch
	if !bindJSON(c, &patch) {
		return
	}

	bookmark, err := cc.store.UpdateBookmark(c.Param("id"), c.Param("bookmarkId"), patch)
	if err != nil {
		respondError(c, err, "update bookmark")
		return
	}
	c.JSON(http.StatusOK, bookmark)
}

// DeleteBookmark handles DELETE /api/books/:id/bookmarks/:bookmarkId
func (cc *CollectionsController) DeleteBookmark(c *gin.Context) {
	if err := cc.store.DeleteBookmark(c.Param("id"), c.Param("bookmarkId")); err != nil {
		respondError(c, err, "delete bookmark")
		return
	}
	respondSuccess(c, "bookmark deleted")
}

// AddAnnotation handles POST /api/books/:id/annotations/:kind
func (cc *CollectionsController) AddAnnotation(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	var in entities.AnnotationInput
	if !bindJSON(c, &in) {
		return
	}

	annotation, err := cc.store.AddAnnotation(c.Param("id"), kind, in)
	if err != nil {
		respondError(c, err, "add annotation")
		return
	}
	respondCreated(c, annotation)
}

// UpdateAnnotation handles PATCH /api/books/:id/annotations/:kind/:annotationId
func (cc *CollectionsController) UpdateAnnotation(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	var patch entities.AnnotationPatch
	if !bindJSON(c, &patch) {
		return
	}

	annotation, err := cc.store.UpdateAnnotation(c.Param("id"), kind, c.Param("annotationId"), patch)
	if err != nil {
		respondError(c, err, "update annotation")
		return
	}
	c.JSON(http.StatusOK, annotation)
}

// DeleteAnnotation handles DELETE /api/books/:id/annotations/:kind/:annotationId
func (cc *CollectionsController) DeleteAnnotation(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		return
	}
	if err := cc.store.DeleteAnnotation(c.Param("id"), kind, c.Param("annotationId")); err != nil {
		respondError(c, err, "delete annotation")
		return
	}
	respondSuccess(c, string(kind)+" deleted")
}

// parseKind accepts both singular and plural kinds ("quote", "quotes").
func parseKind(c *gin.Context) (entities.AnnotationKind, bool) {
	kind := entities.AnnotationKind(strings.TrimSuffix(strings.ToLower(c.Param("kind")), "s"))
	if !kind.Valid() {
		respondError(c, errors.ValidationField("kind", "must be one of review, quote, note"), "parse kind")
		return "", false
	}
	return kind, true
}
