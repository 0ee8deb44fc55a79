// Package server exposes the trip timeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"tripline/internal/engine"
	"tripline/internal/repo"
	"tripline/internal/timeline"
)

const timeFormat = time.RFC3339

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
	Live     *Hub
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"bad_request"`
	Message string         `json:"message" example:"end must be after start"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError is the error envelope every endpoint returns.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Tripline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Tripline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerTrips(group, cfg.Engine)
	registerActivities(group, cfg.Engine)
	registerTimeline(group, cfg.Engine)
	registerImport(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerDevAuth(group, cfg.Auth)
	registerOpenAPI(router, api, basePath)
	if cfg.Live != nil {
		registerLive(router, basePath, cfg.Live)
	}

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "end must be after start"):
		return newAPIError(http.StatusUnprocessableEntity, "invalid_window", msg, nil)
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") ||
		strings.Contains(lowered, "required") || strings.Contains(lowered, "unknown"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "invalid_window"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Tripline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerTrips(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-trip",
		Method:        http.MethodPost,
		Path:          "/trips",
		Summary:       "Create trip",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body CreateTripRequest `json:"body"`
	}) (*struct {
		Body TripResponse `json:"body"`
	}, error) {
		actor, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		opts := engine.TripCreateOptions{Name: input.Body.Name, ActorID: actor}
		if input.Body.ID != nil {
			opts.ID = *input.Body.ID
		}
		if input.Body.Destination != nil {
			opts.Destination = *input.Body.Destination
		}
		if input.Body.Timezone != nil {
			opts.Timezone = *input.Body.Timezone
		}
		if input.Body.StartDate != nil {
			opts.StartDate = *input.Body.StartDate
		}
		if input.Body.EndDate != nil {
			opts.EndDate = *input.Body.EndDate
		}
		t, err := e.CreateTrip(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TripResponse `json:"body"`
		}{Body: TripResponse{Trip: t}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-trips",
		Method:      http.MethodGet,
		Path:        "/trips",
		Summary:     "List trips",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body TripListResponse `json:"body"`
	}, error) {
		trips, err := e.Repo.ListTrips(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TripListResponse `json:"body"`
		}{Body: TripListResponse{Trips: trips}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-trip",
		Method:      http.MethodGet,
		Path:        "/trips/{trip_id}",
		Summary:     "Get trip",
	}, func(ctx context.Context, input *struct {
		TripID string `path:"trip_id"`
	}) (*struct {
		Body TripResponse `json:"body"`
	}, error) {
		t, err := e.Repo.GetTrip(ctx, input.TripID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TripResponse `json:"body"`
		}{Body: TripResponse{Trip: t}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-trip",
		Method:      http.MethodPatch,
		Path:        "/trips/{trip_id}",
		Summary:     "Update trip fields",
	}, func(ctx context.Context, input *struct {
		TripID string            `path:"trip_id"`
		Body   UpdateTripRequest `json:"body"`
	}) (*struct {
		Body TripResponse `json:"body"`
	}, error) {
		actor, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.UpdateTrip(ctx, engine.TripUpdateOptions{
			ID:          input.TripID,
			Name:        input.Body.Name,
			Destination: input.Body.Destination,
			Timezone:    input.Body.Timezone,
			ActorID:     actor,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TripResponse `json:"body"`
		}{Body: TripResponse{Trip: t}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-trip",
		Method:        http.MethodDelete,
		Path:          "/trips/{trip_id}",
		Summary:       "Delete trip and its activities",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *struct {
		TripID string `path:"trip_id"`
	}) (*struct{}, error) {
		actor, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteTrip(ctx, input.TripID, actor); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerActivities(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-activity",
		Method:        http.MethodPost,
		Path:          "/trips/{trip_id}/activities",
		Summary:       "Create activity",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		TripID string                `path:"trip_id"`
		Body   CreateActivityRequest `json:"body"`
	}) (*struct {
		Body ActivityResponse `json:"body"`
	}, error) {
		actor, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		opts := engine.ActivityCreateOptions{
			TripID:  input.TripID,
			Type:    input.Body.Type,
			Title:   input.Body.Title,
			Start:   input.Body.Start,
			ActorID: actor,
		}
		if input.Body.ID != nil {
			opts.ID = *input.Body.ID
		}
		if input.Body.City != nil {
			opts.City = *input.Body.City
		}
		if input.Body.Notes != nil {
			opts.Notes = *input.Body.Notes
		}
		if input.Body.End != nil {
			opts.End = *input.Body.End
		}
		a, err := e.CreateActivity(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ActivityResponse `json:"body"`
		}{Body: ActivityResponse{Activity: a}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-activities",
		Method:      http.MethodGet,
		Path:        "/trips/{trip_id}/activities",
		Summary:     "List activities for a trip",
	}, func(ctx context.Context, input *struct {
		TripID string `path:"trip_id"`
	}) (*struct {
		Body ActivityListResponse `json:"body"`
	}, error) {
		if _, err := e.Repo.GetTrip(ctx, input.TripID); err != nil {
			return nil, handleError(err)
		}
		acts, err := e.Repo.ListActivities(ctx, input.TripID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ActivityListResponse `json:"body"`
		}{Body: ActivityListResponse{Activities: acts}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-activity",
		Method:      http.MethodGet,
		Path:        "/activities/{activity_id}",
		Summary:     "Get activity",
	}, func(ctx context.Context, input *struct {
		ActivityID string `path:"activity_id"`
	}) (*struct {
		Body ActivityResponse `json:"body"`
	}, error) {
		a, err := e.Repo.GetActivity(ctx, input.ActivityID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ActivityResponse `json:"body"`
		}{Body: ActivityResponse{Activity: a}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-activity",
		Method:      http.MethodPatch,
		Path:        "/activities/{activity_id}",
		Summary:     "Update activity fields",
	}, func(ctx context.Context, input *struct {
		ActivityID string                `path:"activity_id"`
		Body       UpdateActivityRequest `json:"body"`
	}) (*struct {
		Body ActivityResponse `json:"body"`
	}, error) {
		actor, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.UpdateActivity(ctx, engine.ActivityUpdateOptions{
			ID:      input.ActivityID,
			Title:   input.Body.Title,
			City:    input.Body.City,
			Notes:   input.Body.Notes,
			Type:    input.Body.Type,
			ActorID: actor,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ActivityResponse `json:"body"`
		}{Body: ActivityResponse{Activity: a}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-activity-window",
		Method:      http.MethodPatch,
		Path:        "/activities/{activity_id}/window",
		Summary:     "Move or resize an activity's time window",
	}, func(ctx context.Context, input *struct {
		ActivityID string              `path:"activity_id"`
		Body       UpdateWindowRequest `json:"body"`
	}) (*struct {
		Body ActivityResponse `json:"body"`
	}, error) {
		actor, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		start, err := time.Parse(time.RFC3339, input.Body.Start)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("start %q: invalid timestamp", input.Body.Start), nil)
		}
		var end *time.Time
		if input.Body.End != nil {
			et, err := time.Parse(time.RFC3339, *input.Body.End)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("end %q: invalid timestamp", *input.Body.End), nil)
			}
			end = &et
		}
		apply := e.MoveActivity
		if input.Body.Reason == "resize" {
			apply = e.ResizeActivity
		}
		a, err := apply(ctx, input.ActivityID, start, end, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ActivityResponse `json:"body"`
		}{Body: ActivityResponse{Activity: a}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-activity",
		Method:        http.MethodDelete,
		Path:          "/activities/{activity_id}",
		Summary:       "Delete activity",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *struct {
		ActivityID string `path:"activity_id"`
	}) (*struct{}, error) {
		actor, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteActivity(ctx, input.ActivityID, actor); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerTimeline(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "trip-timeline",
		Method:      http.MethodGet,
		Path:        "/trips/{trip_id}/timeline",
		Summary:     "Computed timeline geometry for a trip",
	}, func(ctx context.Context, input *struct {
		TripID   string  `path:"trip_id"`
		Mode     string  `query:"mode" enum:"hours,day,month" required:"false"`
		Width    float64 `query:"width" required:"false"`
		Zoom     float64 `query:"zoom" required:"false"`
		Expanded string  `query:"expanded" doc:"comma separated activity types to expand" required:"false"`
	}) (*struct {
		Body TimelineResponse `json:"body"`
	}, error) {
		opts := engine.TimelineOptions{
			TripID:         input.TripID,
			Mode:           timeline.ViewMode(input.Mode),
			ContainerWidth: input.Width,
		}
		if input.Zoom != 0 {
			z := timeline.NewZoom()
			// walk in quarter steps; the zoom type clamps at its bounds
			for i := 0; i < 10 && z.Multiplier() < input.Zoom; i++ {
				z.In()
			}
			for i := 0; i < 10 && z.Multiplier() > input.Zoom; i++ {
				z.Out()
			}
			opts.Zoom = z
		}
		if input.Expanded != "" {
			opts.Expanded = map[timeline.Type]bool{}
			for _, raw := range strings.Split(input.Expanded, ",") {
				opts.Expanded[timeline.Type(strings.TrimSpace(raw))] = true
			}
		}
		l, err := e.TimelineLayout(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TimelineResponse `json:"body"`
		}{Body: toTimelineResponse(l)}, nil
	})
}

func registerImport(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "import-ics",
		Method:      http.MethodPost,
		Path:        "/trips/{trip_id}/import/ics",
		Summary:     "Import an iCalendar feed into a trip",
	}, func(ctx context.Context, input *struct {
		TripID  string `path:"trip_id"`
		From    string `query:"from" format:"date-time" required:"false"`
		To      string `query:"to" format:"date-time" required:"false"`
		RawBody []byte `contentType:"text/calendar"`
	}) (*struct {
		Body ImportResponse `json:"body"`
	}, error) {
		actor, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		now := time.Now()
		from := now.AddDate(0, -1, 0)
		to := now.AddDate(1, 0, 0)
		if input.From != "" {
			t, err := time.Parse(time.RFC3339, input.From)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "from: invalid timestamp", nil)
			}
			from = t
		}
		if input.To != "" {
			t, err := time.Parse(time.RFC3339, input.To)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "to: invalid timestamp", nil)
			}
			to = t
		}
		res, err := e.ImportICS(ctx, input.TripID, input.RawBody, from, to, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ImportResponse `json:"body"`
		}{Body: toImportResponse(res)}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/trips/{trip_id}/events",
		Summary:     "Recent audit events for a trip",
	}, func(ctx context.Context, input *struct {
		TripID string `path:"trip_id"`
		Limit  int    `query:"limit" minimum:"1" maximum:"500" required:"false"`
		Type   string `query:"type" required:"false"`
	}) (*struct {
		Body EventListResponse `json:"body"`
	}, error) {
		limit := input.Limit
		if limit == 0 {
			limit = 50
		}
		evts, err := e.Repo.LatestEvents(ctx, limit, input.TripID, input.Type, "", "")
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EventListResponse `json:"body"`
		}{Body: EventListResponse{Events: evts}}, nil
	})
}

func registerDevAuth(api huma.API, authCfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "DEV ONLY: mint a JWT for local testing",
	}, func(ctx context.Context, input *struct {
		Body DevLoginRequest `json:"body"`
	}) (*struct {
		Body DevLoginResponse `json:"body"`
	}, error) {
		actor := strings.TrimSpace(input.Body.ActorID)
		if actor == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		token, err := signDevToken(authCfg.JWTSecret, actor)
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "internal_error", err.Error(), nil)
		}
		return &struct {
			Body DevLoginResponse `json:"body"`
		}{Body: DevLoginResponse{Token: token}}, nil
	})
}
