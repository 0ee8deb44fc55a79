// Package triplinesdk is a minimal client for the Tripline HTTP API.
package triplinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Tripline HTTP API client.
type Client struct {
	BaseURL     string
	TripID      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, tripID string) *Client {
	return &Client{
		BaseURL: baseURL,
		TripID:  tripID,
		Timeout: 10 * time.Second,
	}
}

// Activity represents the API activity model.
type Activity struct {
	ID        string  `json:"id"`
	TripID    string  `json:"trip_id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	City      string  `json:"city,omitempty"`
	Notes     string  `json:"notes,omitempty"`
	StartTime string  `json:"start_time"`
	EndTime   *string `json:"end_time,omitempty"`
}

// Trip represents the API trip model.
type Trip struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Destination string `json:"destination,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

// Bar is one positioned timeline bar.
type Bar struct {
	ActivityID string  `json:"activity_id"`
	Title      string  `json:"title"`
	Start      string  `json:"start"`
	End        *string `json:"end,omitempty"`
	X          float64 `json:"x"`
	Width      float64 `json:"width"`
	Row        int     `json:"row"`
}

// TimelineGroup is one activity-type lane.
type TimelineGroup struct {
	Type     string `json:"type"`
	Expanded bool   `json:"expanded"`
	Overlay  []Bar  `json:"overlay"`
	Rows     []Bar  `json:"rows,omitempty"`
}

// Timeline is the computed geometry for one trip.
type Timeline struct {
	Mode        string          `json:"mode"`
	RangeStart  string          `json:"range_start"`
	RangeEnd    string          `json:"range_end"`
	ColumnWidth float64         `json:"column_width"`
	GridWidth   float64         `json:"grid_width"`
	Groups      []TimelineGroup `json:"groups"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

type activityEnvelope struct {
	Activity Activity `json:"activity"`
}

type activityListEnvelope struct {
	Activities []Activity `json:"activities"`
}

type tripEnvelope struct {
	Trip Trip `json:"trip"`
}

// CreateActivity adds an activity to the client's trip.
func (c *Client) CreateActivity(ctx context.Context, typ, title, start string, end *string) (Activity, error) {
	body := map[string]any{
		"type":  typ,
		"title": title,
		"start": start,
	}
	if end != nil {
		body["end"] = *end
	}
	var resp activityEnvelope
	err := c.do(ctx, http.MethodPost, c.tripPath("activities"), body, &resp)
	return resp.Activity, err
}

// ListActivities lists the trip's activities.
func (c *Client) ListActivities(ctx context.Context) ([]Activity, error) {
	var resp activityListEnvelope
	err := c.do(ctx, http.MethodGet, c.tripPath("activities"), nil, &resp)
	return resp.Activities, err
}

// GetTrip fetches the client's trip.
func (c *Client) GetTrip(ctx context.Context) (Trip, error) {
	var resp tripEnvelope
	err := c.do(ctx, http.MethodGet, c.tripPath(""), nil, &resp)
	return resp.Trip, err
}

// MoveActivity shifts an activity to a new window, preserving intent as a move.
func (c *Client) MoveActivity(ctx context.Context, activityID, start string, end *string) (Activity, error) {
	return c.updateWindow(ctx, activityID, start, end, "move")
}

// ResizeActivity sets a new window from an edge drag.
func (c *Client) ResizeActivity(ctx context.Context, activityID, start string, end *string) (Activity, error) {
	return c.updateWindow(ctx, activityID, start, end, "resize")
}

func (c *Client) updateWindow(ctx context.Context, activityID, start string, end *string, reason string) (Activity, error) {
	body := map[string]any{
		"start":  start,
		"reason": reason,
	}
	if end != nil {
		body["end"] = *end
	}
	var resp activityEnvelope
	err := c.do(ctx, http.MethodPatch, "v0/activities/"+url.PathEscape(activityID)+"/window", body, &resp)
	return resp.Activity, err
}

// Timeline fetches computed geometry. mode may be empty for the server default.
func (c *Client) Timeline(ctx context.Context, mode string, width float64) (Timeline, error) {
	endpoint := c.tripPath("timeline")
	q := url.Values{}
	if mode != "" {
		q.Set("mode", mode)
	}
	if width > 0 {
		q.Set("width", fmt.Sprintf("%g", width))
	}
	if enc := q.Encode(); enc != "" {
		endpoint += "?" + enc
	}
	var resp Timeline
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	u := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, u, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) tripPath(p string) string {
	trip := url.PathEscape(c.TripID)
	if p == "" {
		return fmt.Sprintf("v0/trips/%s", trip)
	}
	return fmt.Sprintf("v0/trips/%s/%s", trip, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
