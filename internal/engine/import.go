package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"tripline/internal/domain"
	"tripline/internal/events"
	"tripline/internal/ics"
	"tripline/internal/repo"
	"tripline/internal/timeline"
)

// ImportResult summarizes one ICS import run.
type ImportResult struct {
	Created int
	Updated int
	Skipped int
}

// ImportICS imports calendar events into a trip as event activities.
// Re-importing the same feed is idempotent: occurrences are matched by a
// stable key carried in the activity notes, and matched activities get
// their window and title refreshed instead of duplicating.
func (e Engine) ImportICS(ctx context.Context, tripID string, body []byte, from, to time.Time, actorID string) (ImportResult, error) {
	var res ImportResult
	if _, err := e.Repo.GetTrip(ctx, tripID); err != nil {
		return res, err
	}
	entries, err := ics.Parse(body, e.logger())
	if err != nil {
		return res, err
	}
	occ, err := ics.Expand(entries, from, to, e.logger())
	if err != nil {
		return res, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	now := e.now().UTC().Format(time.RFC3339)
	for _, o := range occ {
		if o.Summary == "" {
			res.Skipped++
			continue
		}
		marker := repo.ImportMarker(o.Key)
		var end *string
		if o.End != nil {
			v := o.End.UTC().Format(time.RFC3339)
			end = &v
		}
		existing, err := e.Repo.FindActivityByImportKey(ctx, tripID, o.Key)
		switch {
		case err == nil:
			if err := e.Repo.UpdateActivityWindow(ctx, tx, existing.ID, o.Start.UTC().Format(time.RFC3339), end, now); err != nil {
				return res, err
			}
			res.Updated++
		case errors.Is(err, repo.ErrNotFound):
			notes := marker
			if o.Notes != "" {
				notes = o.Notes + "\n" + marker
			}
			a := domain.Activity{
				ID:        uuid.NewString(),
				TripID:    tripID,
				Type:      string(timeline.TypeEvent),
				Title:     o.Summary,
				City:      firstSegment(o.Location),
				Notes:     notes,
				StartTime: o.Start.UTC().Format(time.RFC3339),
				EndTime:   end,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := e.Repo.InsertActivity(ctx, tx, a); err != nil {
				return res, err
			}
			if err := e.Events.Append(ctx, tx, "activity.imported", tripID, "activity", a.ID, actorID, events.EventPayload{
				"key":   o.Key,
				"title": a.Title,
			}); err != nil {
				return res, err
			}
			res.Created++
		default:
			return res, err
		}
	}
	if err := e.Events.Append(ctx, tx, "trip.import", tripID, "trip", tripID, actorID, events.EventPayload{
		"created": res.Created,
		"updated": res.Updated,
		"skipped": res.Skipped,
	}); err != nil {
		return res, err
	}
	if err := tx.Commit(); err != nil {
		return res, err
	}
	return res, nil
}

// firstSegment trims an ICS LOCATION down to its leading component, which
// is typically the venue or city name.
func firstSegment(loc string) string {
	if i := strings.IndexByte(loc, ','); i >= 0 {
		loc = loc[:i]
	}
	return strings.TrimSpace(loc)
}
