package library

import (
	"fmt"
	"slices"
	"time"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/errors"
	"github.com/mrlokans/readtrack/internal/id"
)

// AddBookmark appends a bookmark. The page must be positive and, when the
// page count is known, no greater than it.
func (r *Repository) AddBookmark(bookID string, in entities.BookmarkInput) (entities.Bookmark, error) {
	if err := r.validator.Validate(in); err != nil {
		return entities.Bookmark{}, err
	}
	bookmarkID, err := id.Generate(id.PrefixBookmark)
	if err != nil {
		return entities.Bookmark{}, errors.Wrap(err, errors.CodeInternal, "failed to generate bookmark id")
	}

	var created entities.Bookmark
	_, err = r.mutate(bookID, func(b *entities.Book, now time.Time) error {
		if err := checkPage(b, in.Page); err != nil {
			return err
		}
		created = entities.Bookmark{
			ID:        bookmarkID,
			Page:      in.Page,
			Note:      in.Note,
			Tags:      tagsOrEmpty(in.Tags),
			CreatedAt: now,
		}
		b.Bookmarks = append(slices.Clone(b.Bookmarks), created)
		return nil
	})
	if err != nil {
		return entities.Bookmark{}, err
	}
	return cloneBookmark(created), nil
}

func (r *Repository) UpdateBookmark(bookID, bookmarkID string, patch entities.BookmarkPatch) (entities.Bookmark, error) {
	if err := r.validator.Validate(patch); err != nil {
		return entities.Bookmark{}, err
	}

	var updated entities.Bookmark
	_, err := r.mutate(bookID, func(b *entities.Book, _ time.Time) error {
		i := slices.IndexFunc(b.Bookmarks, func(bm entities.Bookmark) bool { return bm.ID == bookmarkID })
		if i < 0 {
			return errors.NotFoundf("bookmark %s not found", bookmarkID)
		}
		bm := b.Bookmarks[i]
		if patch.Page != nil {
			if err := checkPage(b, *patch.Page); err != nil {
				return err
			}
			bm.Page = *patch.Page
		}
		if patch.Note != nil {
			bm.Note = *patch.Note
		}
		if patch.Tags != nil {
			bm.Tags = tagsOrEmpty(*patch.Tags)
		}
		items := slices.Clone(b.Bookmarks)
		items[i] = bm
		b.Bookmarks = items
		updated = bm
		return nil
	})
	if err != nil {
		return entities.Bookmark{}, err
	}
	return cloneBookmark(updated), nil
}

func (r *Repository) DeleteBookmark(bookID, bookmarkID string) error {
	_, err := r.mutate(bookID, func(b *entities.Book, _ time.Time) error {
		i := slices.IndexFunc(b.Bookmarks, func(bm entities.Bookmark) bool { return bm.ID == bookmarkID })
		if i < 0 {
			return errors.NotFoundf("bookmark %s not found", bookmarkID)
		}
		b.Bookmarks = slices.Delete(slices.Clone(b.Bookmarks), i, i+1)
		return nil
	})
	return err
}

// AddAnnotation appends a review, quote or note. Ratings are only accepted
// on reviews.
func (r *Repository) AddAnnotation(bookID string, kind entities.AnnotationKind, in entities.AnnotationInput) (entities.Annotation, error) {
	if err := checkKind(kind); err != nil {
		return entities.Annotation{}, err
	}
	if err := r.validator.Validate(in); err != nil {
		return entities.Annotation{}, err
	}
	if in.Rating != nil && kind != entities.AnnotationReview {
		return entities.Annotation{}, errors.ValidationField("rating", "is only allowed on reviews")
	}
	annotationID, err := id.Generate(id.PrefixAnnotation)
	if err != nil {
		return entities.Annotation{}, errors.Wrap(err, errors.CodeInternal, "failed to generate annotation id")
	}

	var created entities.Annotation
	_, err = r.mutate(bookID, func(b *entities.Book, now time.Time) error {
		created = entities.Annotation{
			ID:        annotationID,
			Kind:      kind,
			Rating:    copyInt(in.Rating),
			Text:      in.Text,
			Tags:      tagsOrEmpty(in.Tags),
			CreatedAt: now,
			UpdatedAt: now,
		}
		b.SetAnnotations(kind, append(slices.Clone(b.Annotations(kind)), created))
		return nil
	})
	if err != nil {
		return entities.Annotation{}, err
	}
	return cloneAnnotation(created), nil
}

func (r *Repository) UpdateAnnotation(bookID string, kind entities.AnnotationKind, annotationID string, patch entities.AnnotationPatch) (entities.Annotation, error) {
	if err := checkKind(kind); err != nil {
		return entities.Annotation{}, err
	}
	if err := r.validator.Validate(patch); err != nil {
		return entities.Annotation{}, err
	}
	if patch.Rating != nil && kind != entities.AnnotationReview {
		return entities.Annotation{}, errors.ValidationField("rating", "is only allowed on reviews")
	}

	var updated entities.Annotation
	_, err := r.mutate(bookID, func(b *entities.Book, now time.Time) error {
		items := b.Annotations(kind)
		i := slices.IndexFunc(items, func(a entities.Annotation) bool { return a.ID == annotationID })
		if i < 0 {
			return errors.NotFoundf("%s %s not found", kind, annotationID)
		}
		a := items[i]
		if patch.Rating != nil {
			a.Rating = copyInt(patch.Rating)
		}
		if patch.Text != nil {
			a.Text = *patch.Text
		}
		if patch.Tags != nil {
			a.Tags = tagsOrEmpty(*patch.Tags)
		}
		a.UpdatedAt = now
		items = slices.Clone(items)
		items[i] = a
		b.SetAnnotations(kind, items)
		updated = a
		return nil
	})
	if err != nil {
		return entities.Annotation{}, err
	}
	return cloneAnnotation(updated), nil
}

func (r *Repository) DeleteAnnotation(bookID string, kind entities.AnnotationKind, annotationID string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	_, err := r.mutate(bookID, func(b *entities.Book, _ time.Time) error {
		items := b.Annotations(kind)
		i := slices.IndexFunc(items, func(a entities.Annotation) bool { return a.ID == annotationID })
		if i < 0 {
			return errors.NotFoundf("%s %s not found", kind, annotationID)
		}
		b.SetAnnotations(kind, slices.Delete(slices.Clone(items), i, i+1))
		return nil
	})
	return err
}

// SetAnnotationTags replaces the tag list of one annotation.
func (r *Repository) SetAnnotationTags(bookID string, kind entities.AnnotationKind, annotationID string, tags []string) (entities.Annotation, error) {
	if tags == nil {
		tags = []string{}
	}
	return r.UpdateAnnotation(bookID, kind, annotationID, entities.AnnotationPatch{Tags: &tags})
}

func (r *Repository) AddReview(bookID string, in entities.AnnotationInput) (entities.Annotation, error) {
	return r.AddAnnotation(bookID, entities.AnnotationReview, in)
}

func (r *Repository) UpdateReview(bookID, reviewID string, patch entities.AnnotationPatch) (entities.Annotation, error) {
	return r.UpdateAnnotation(bookID, entities.AnnotationReview, reviewID, patch)
}

func (r *Repository) DeleteReview(bookID, reviewID string) error {
	return r.DeleteAnnotation(bookID, entities.AnnotationReview, reviewID)
}

func checkPage(b *entities.Book, page int) error {
	if page < 1 {
		return errors.ValidationField("page", "must be a positive integer")
	}
	if b.PageCount > 0 && page > b.PageCount {
		return errors.ValidationField("page", fmt.Sprintf("must be at most %d", b.PageCount))
	}
	return nil
}

func checkKind(kind entities.AnnotationKind) error {
	if !kind.Valid() {
		return errors.ValidationField("kind", "must be one of: review quote note")
	}
	return nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return slices.Clone(tags)
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneBookmark(bm entities.Bookmark) entities.Bookmark {
	bm.Tags = slices.Clone(bm.Tags)
	return bm
}

func cloneAnnotation(a entities.Annotation) entities.Annotation {
	a.Tags = slices.Clone(a.Tags)
	a.Rating = copyInt(a.Rating)
	return a
}
