package server

import (
	"tripline/internal/domain"
	"tripline/internal/engine"
	"tripline/internal/timeline"
)

// Request payloads

type CreateTripRequest struct {
	ID          *string `json:"id,omitempty"`
	Name        string  `json:"name"`
	Destination *string `json:"destination,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
	StartDate   *string `json:"start_date,omitempty" format:"date-time"`
	EndDate     *string `json:"end_date,omitempty" format:"date-time"`
}

type UpdateTripRequest struct {
	Name        *string `json:"name,omitempty"`
	Destination *string `json:"destination,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
}

type CreateActivityRequest struct {
	ID    *string `json:"id,omitempty"`
	Type  string  `json:"type,omitempty" enum:"flight,transport,stay,event,task,note"`
	Title string  `json:"title"`
	City  *string `json:"city,omitempty"`
	Notes *string `json:"notes,omitempty"`
	Start string  `json:"start" format:"date-time"`
	End   *string `json:"end,omitempty" format:"date-time"`
}

type UpdateActivityRequest struct {
	Title *string `json:"title,omitempty"`
	City  *string `json:"city,omitempty"`
	Notes *string `json:"notes,omitempty"`
	Type  *string `json:"type,omitempty" enum:"flight,transport,stay,event,task,note"`
}

// UpdateWindowRequest moves or resizes one activity's time window.
type UpdateWindowRequest struct {
	Start  string  `json:"start" format:"date-time"`
	End    *string `json:"end,omitempty" format:"date-time"`
	Reason string  `json:"reason,omitempty" enum:"move,resize"`
}

type DevLoginRequest struct {
	ActorID string `json:"actor_id"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

// Response payloads

type TripResponse struct {
	Trip domain.Trip `json:"trip"`
}

type TripListResponse struct {
	Trips []domain.Trip `json:"trips"`
}

type ActivityResponse struct {
	Activity domain.Activity `json:"activity"`
}

type ActivityListResponse struct {
	Activities []domain.Activity `json:"activities"`
}

type ImportResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

type EventListResponse struct {
	Events []domain.Event `json:"events"`
}

// Timeline geometry, serialized for clients that render the bars.

type ColumnDTO struct {
	Start string `json:"start" format:"date-time"`
	Upper string `json:"upper,omitempty"`
	Lower string `json:"lower"`
}

type BarDTO struct {
	ActivityID string  `json:"activity_id"`
	Title      string  `json:"title"`
	City       string  `json:"city,omitempty"`
	Start      string  `json:"start" format:"date-time"`
	End        *string `json:"end,omitempty" format:"date-time"`
	X          float64 `json:"x"`
	Width      float64 `json:"width"`
	Row        int     `json:"row"`
}

type GroupDTO struct {
	Type     string   `json:"type"`
	Expanded bool     `json:"expanded"`
	Overlay  []BarDTO `json:"overlay"`
	Rows     []BarDTO `json:"rows,omitempty"`
}

type TimelineResponse struct {
	Mode        string     `json:"mode" enum:"hours,day,month"`
	RangeStart  string     `json:"range_start" format:"date-time"`
	RangeEnd    string     `json:"range_end" format:"date-time"`
	ColumnWidth float64    `json:"column_width"`
	GridWidth   float64    `json:"grid_width"`
	Columns     []ColumnDTO `json:"columns"`
	Groups      []GroupDTO  `json:"groups"`
}

func toBarDTO(b timeline.Bar) BarDTO {
	dto := BarDTO{
		ActivityID: b.Activity.ID,
		Title:      b.Activity.Title,
		City:       b.Activity.City,
		Start:      b.Activity.Start.UTC().Format(timeFormat),
		X:          b.X,
		Width:      b.VisualWidth(),
		Row:        b.Row,
	}
	if b.Activity.End != nil {
		v := b.Activity.End.UTC().Format(timeFormat)
		dto.End = &v
	}
	return dto
}

func toTimelineResponse(l timeline.Layout) TimelineResponse {
	resp := TimelineResponse{
		Mode:        string(l.Mode),
		RangeStart:  l.Range.Start.UTC().Format(timeFormat),
		RangeEnd:    l.Range.End.UTC().Format(timeFormat),
		ColumnWidth: l.Scale.ColumnWidth,
		GridWidth:   l.GridWidth,
		Columns:     make([]ColumnDTO, 0, len(l.Columns)),
		Groups:      make([]GroupDTO, 0, len(l.Groups)),
	}
	for _, c := range l.Columns {
		resp.Columns = append(resp.Columns, ColumnDTO{
			Start: c.Start.UTC().Format(timeFormat),
			Upper: c.Upper,
			Lower: c.Lower,
		})
	}
	for _, g := range l.Groups {
		dto := GroupDTO{
			Type:     string(g.Type),
			Expanded: g.Expanded,
			Overlay:  make([]BarDTO, 0, len(g.Overlay)),
		}
		for _, b := range g.Overlay {
			dto.Overlay = append(dto.Overlay, toBarDTO(b))
		}
		for _, row := range g.Rows {
			dto.Rows = append(dto.Rows, toBarDTO(row))
		}
		resp.Groups = append(resp.Groups, dto)
	}
	return resp
}

func toImportResponse(r engine.ImportResult) ImportResponse {
	return ImportResponse{Created: r.Created, Updated: r.Updated, Skipped: r.Skipped}
}
