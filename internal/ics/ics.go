// Package ics turns iCalendar payloads into timeline activities.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"
)

// maxOccurrences caps recurrence expansion per event so a rule with no
// terminating clause cannot flood a trip.
const maxOccurrences = 200

// Entry is a normalized VEVENT before recurrence expansion.
type Entry struct {
	UID      string
	Summary  string
	Location string
	Notes    string
	Start    time.Time
	End      time.Time
	AllDay   bool
	RawRRule string
	ExDates  []time.Time
}

// Occurrence is one concrete instance of an entry within the import window.
type Occurrence struct {
	Key      string // stable dedup key, unique per instance
	Summary  string
	Location string
	Notes    string
	Start    time.Time
	End      *time.Time
}

// Parse reads a single ICS payload. Broken VEVENTs are skipped with a
// warning rather than failing the whole import.
func Parse(body []byte, logger *zap.Logger) ([]Entry, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ics body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}
	entries := make([]Entry, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		e, err := parseEvent(ve)
		if err != nil {
			logger.Warn("skipping vevent", zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseEvent(ve *ical.VEvent) (Entry, error) {
	var e Entry
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return e, errors.New("missing UID")
	}
	e.UID = uid.Value
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		e.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		e.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		e.Notes = p.Value
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return e, fmt.Errorf("uid %s: dtstart: %w", e.UID, err)
	}
	e.Start = start
	if end, err := ve.GetEndAt(); err == nil {
		e.End = end
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if vals, ok := p.ICalParameters["VALUE"]; ok && len(vals) > 0 && strings.EqualFold(vals[0], "DATE") {
			e.AllDay = true
		} else if !strings.Contains(p.Value, "T") {
			e.AllDay = true
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		e.RawRRule = p.Value
	}
	for _, p := range ve.Properties {
		if ical.ComponentProperty(p.IANAToken) != ical.ComponentPropertyExdate {
			continue
		}
		if ex, err := time.Parse("20060102T150405Z", p.Value); err == nil {
			e.ExDates = append(e.ExDates, ex)
		}
	}
	return e, nil
}

// Expand produces concrete occurrences of entries between from and to.
func Expand(entries []Entry, from, to time.Time, logger *zap.Logger) ([]Occurrence, error) {
	if to.Before(from) {
		return nil, errors.New("import window end before start")
	}
	var out []Occurrence
	for _, e := range entries {
		if e.RawRRule == "" {
			out = append(out, single(e, from, to)...)
			continue
		}
		occ, err := recurring(e, from, to)
		if err != nil {
			logger.Warn("skipping recurrence rule", zap.String("uid", e.UID), zap.Error(err))
			continue
		}
		out = append(out, occ...)
	}
	return out, nil
}

func single(e Entry, from, to time.Time) []Occurrence {
	end := e.effectiveEnd(e.Start)
	if e.Start.After(to) || endOr(end, e.Start).Before(from) {
		return nil
	}
	return []Occurrence{e.occurrence(e.Start, end, false)}
}

func recurring(e Entry, from, to time.Time) ([]Occurrence, error) {
	r, err := rrule.StrToRRule(e.RawRRule)
	if err != nil {
		return nil, fmt.Errorf("rrule %q: %w", e.RawRRule, err)
	}
	r.DTStart(e.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range e.ExDates {
		set.ExDate(ex.In(e.Start.Location()))
	}

	times := set.Between(from.In(e.Start.Location()), to.In(e.Start.Location()), true)
	if len(times) > maxOccurrences {
		times = times[:maxOccurrences]
	}
	out := make([]Occurrence, 0, len(times))
	for _, start := range times {
		out = append(out, e.occurrence(start, e.effectiveEnd(start), true))
	}
	return out, nil
}

func (e Entry) effectiveEnd(start time.Time) *time.Time {
	if e.AllDay {
		day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		end := day.Add(24 * time.Hour)
		return &end
	}
	if e.End.IsZero() || !e.End.After(e.Start) {
		return nil
	}
	end := start.Add(e.End.Sub(e.Start))
	return &end
}

func endOr(end *time.Time, fallback time.Time) time.Time {
	if end != nil {
		return *end
	}
	return fallback
}

func (e Entry) occurrence(start time.Time, end *time.Time, recurrent bool) Occurrence {
	key := e.UID
	if recurrent {
		key = fmt.Sprintf("%s/%d", e.UID, start.Unix())
	}
	o := Occurrence{
		Key:      key,
		Summary:  e.Summary,
		Location: e.Location,
		Notes:    e.Notes,
		Start:    start,
	}
	if e.AllDay {
		o.Start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	}
	o.End = end
	return o
}
