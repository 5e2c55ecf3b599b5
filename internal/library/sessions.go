package library

import (
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/errors"
	"github.com/mrlokans/readtrack/internal/id"
)

// RecordReadingSession appends a finished session and advances progress.
//
// CurrentPage becomes max(CurrentPage, EndPage), so resubmitting the same
// session never double-counts pages. A WantToRead book moves to Reading, and
// once CurrentPage reaches a known PageCount the book is Completed.
// A session whose id already exists on the book is ignored.
func (r *Repository) RecordReadingSession(bookID string, in entities.SessionInput) (entities.Book, error) {
	if err := r.validator.Validate(in); err != nil {
		return entities.Book{}, err
	}

	sessionID := in.ID
	if sessionID == "" {
		generated, err := id.Generate(id.PrefixSession)
		if err != nil {
			return entities.Book{}, errors.Wrap(err, errors.CodeInternal, "failed to generate session id")
		}
		sessionID = generated
	} else if existing, ok := r.GetBook(bookID); ok && hasSession(existing, sessionID) {
		log.Printf("[LIBRARY] Session %s already recorded for book %s", sessionID, bookID)
		return existing, nil
	}

	return r.mutate(bookID, func(b *entities.Book, now time.Time) error {
		if b.PageCount > 0 && in.EndPage > b.PageCount {
			return errors.ValidationField("end_page", fmt.Sprintf("must be at most %d", b.PageCount))
		}
		if hasSession(*b, sessionID) {
			return errors.Duplicatef("session %s already recorded", sessionID)
		}

		start := in.StartTime
		if start.IsZero() {
			start = now
		}
		start = start.UTC()
		end := now
		if in.EndTime != nil {
			end = in.EndTime.UTC()
		}
		if end.Before(start) {
			return errors.ValidationField("end_time", "must not be before start_time")
		}

		duration := in.DurationMs
		if duration == 0 {
			duration = max(end.Sub(start).Milliseconds()-in.TotalPausedMs, 0)
		}

		session := entities.ReadingSession{
			ID:            sessionID,
			StartTime:     start,
			EndTime:       &end,
			StartPage:     in.StartPage,
			EndPage:       in.EndPage,
			TotalPausedMs: in.TotalPausedMs,
			DurationMs:    duration,
			Notes:         in.Notes,
		}
		b.ReadingSessions = append(slices.Clone(b.ReadingSessions), session)

		b.CurrentPage = max(b.CurrentPage, in.EndPage)
		if b.PageCount > 0 {
			b.CurrentPage = min(b.CurrentPage, b.PageCount)
		}

		if b.Status == entities.StatusWantToRead {
			applyStatus(b, entities.StatusReading, start)
		}
		if b.PageCount > 0 && b.CurrentPage >= b.PageCount && b.Status != entities.StatusCompleted {
			applyStatus(b, entities.StatusCompleted, end)
		}
		return nil
	})
}

func hasSession(b entities.Book, sessionID string) bool {
	return slices.ContainsFunc(b.ReadingSessions, func(s entities.ReadingSession) bool { return s.ID == sessionID })
}
