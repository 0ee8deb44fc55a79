package domain

type Trip struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Destination string `json:"destination,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	StartDate   string `json:"start_date,omitempty" format:"date-time"`
	EndDate     string `json:"end_date,omitempty" format:"date-time"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type Activity struct {
	ID        string  `json:"id"`
	TripID    string  `json:"trip_id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	City      string  `json:"city,omitempty"`
	Notes     string  `json:"notes,omitempty"`
	StartTime string  `json:"start_time" format:"date-time"`
	EndTime   *string `json:"end_time,omitempty" format:"date-time"`
	CreatedAt string  `json:"created_at" format:"date-time"`
	UpdatedAt string  `json:"updated_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	TripID     string `json:"trip_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
