package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tripline/internal/config"
	"tripline/internal/db"
	"tripline/internal/engine"
	"tripline/internal/logging"
	"tripline/internal/migrate"
	"tripline/internal/repo"
	"tripline/internal/server"
	"tripline/internal/timeline"
	"tripline/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "tpl",
	Short: "Tripline CLI",
	Long: `Tripline plans trips on an interactive timeline.
Activities (flights, transport, stays, events, tasks, notes) live in a local
SQLite workspace. The timeline renders them as positioned bars across hour,
day, or month scales; bars can be dragged and resized in the TUI, and the
same geometry is served over HTTP for other clients.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TRIPLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("trip", "", "trip id (overrides config default)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("trip", rootCmd.PersistentFlags().Lookup("trip"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(tripCmd())
	rootCmd.AddCommand(activityCmd())
	rootCmd.AddCommand(timelineCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(uiCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(logCmd())
}

func tripCmd() *cobra.Command {
	trip := &cobra.Command{Use: "trip", Short: "Manage trips"}
	trip.AddCommand(tripCreateCmd())
	trip.AddCommand(tripListCmd())
	trip.AddCommand(tripShowCmd())
	trip.AddCommand(tripUpdateCmd())
	trip.AddCommand(tripDeleteCmd())
	return trip
}

func tripCreateCmd() *cobra.Command {
	var id, name, destination, timezone, start, end string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create trip",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CreateTrip(ctx, engine.TripCreateOptions{
					ID:          id,
					Name:        name,
					Destination: destination,
					Timezone:    timezone,
					StartDate:   start,
					EndDate:     end,
					ActorID:     viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				workspace := viper.GetString("workspace")
				cfgPath := config.Path(workspace)
				if _, statErr := os.Stat(cfgPath); os.IsNotExist(statErr) {
					if err := os.WriteFile(cfgPath, []byte(config.GenerateDefault(t.ID)), 0o644); err != nil {
						return fmt.Errorf("write config: %w", err)
					}
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "trip id (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "trip name")
	cmd.Flags().StringVar(&destination, "destination", "", "main destination")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone, e.g. Asia/Tokyo")
	cmd.Flags().StringVar(&start, "start", "", "trip start (RFC3339)")
	cmd.Flags().StringVar(&end, "end", "", "trip end (RFC3339)")
	return cmd
}

func tripListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trips",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				trips, err := r.ListTrips(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(trips)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Destination", "Timezone", "Start", "End"})
				for _, t := range trips {
					tw.AppendRow(table.Row{t.ID, t.Name, t.Destination, t.Timezone, t.StartDate, t.EndDate})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func tripShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [trip-id]",
		Short: "Show trip",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				id := ""
				if len(args) > 0 {
					id = args[0]
				}
				id, err := resolveTripID(ctx, r, id)
				if err != nil {
					return err
				}
				t, err := r.GetTrip(ctx, id)
				if err != nil {
					return err
				}
				if err := printJSONOrTable(t); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return nil
				}
				counts, err := r.CountActivitiesByType(ctx, id)
				if err != nil {
					return err
				}
				var parts []string
				for _, k := range timeline.KnownTypes {
					if n := counts[string(k)]; n > 0 {
						parts = append(parts, fmt.Sprintf("%s=%d", k, n))
					}
				}
				if len(parts) > 0 {
					fmt.Printf("Activities: %s\n", strings.Join(parts, " "))
				}
				return nil
			})
		},
	}
}

func tripUpdateCmd() *cobra.Command {
	var name, destination, timezone string
	cmd := &cobra.Command{
		Use:   "update [trip-id]",
		Short: "Update trip fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				id := ""
				if len(args) > 0 {
					id = args[0]
				}
				id, err := resolveTripID(ctx, e.Repo, id)
				if err != nil {
					return err
				}
				opts := engine.TripUpdateOptions{ID: id, ActorID: viper.GetString("actor-id")}
				if cmd.Flags().Changed("name") {
					opts.Name = &name
				}
				if cmd.Flags().Changed("destination") {
					opts.Destination = &destination
				}
				if cmd.Flags().Changed("timezone") {
					opts.Timezone = &timezone
				}
				t, err := e.UpdateTrip(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "trip name")
	cmd.Flags().StringVar(&destination, "destination", "", "main destination")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone")
	return cmd
}

func tripDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trip-id>",
		Short: "Delete a trip and its activities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteTrip(ctx, args[0], viper.GetString("actor-id")); err != nil {
					return err
				}
				fmt.Printf("Deleted trip %s\n", args[0])
				return nil
			})
		},
	}
}

func activityCmd() *cobra.Command {
	act := &cobra.Command{Use: "activity", Short: "Manage activities"}
	act.AddCommand(activityAddCmd())
	act.AddCommand(activityListCmd())
	act.AddCommand(activityUpdateCmd())
	act.AddCommand(activityMoveCmd())
	act.AddCommand(activityResizeCmd())
	act.AddCommand(activityDeleteCmd())
	return act
}

func activityAddCmd() *cobra.Command {
	var typ, title, city, notes, start, end string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an activity to the trip",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				tripID, err := resolveTripID(ctx, e.Repo, "")
				if err != nil {
					return err
				}
				a, err := e.CreateActivity(ctx, engine.ActivityCreateOptions{
					TripID:  tripID,
					Type:    typ,
					Title:   title,
					City:    city,
					Notes:   notes,
					Start:   start,
					End:     end,
					ActorID: viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&typ, "type", "event", "flight|transport|stay|event|task|note")
	cmd.Flags().StringVar(&title, "title", "", "activity title")
	cmd.Flags().StringVar(&city, "city", "", "city")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&start, "start", "", "start (RFC3339)")
	cmd.Flags().StringVar(&end, "end", "", "end (RFC3339), empty for a point activity")
	return cmd
}

func activityListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List activities for the trip",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				tripID, err := resolveTripID(ctx, r, "")
				if err != nil {
					return err
				}
				acts, err := r.ListActivities(ctx, tripID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(acts)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Title", "City", "Start", "End"})
				for _, a := range acts {
					end := ""
					if a.EndTime != nil {
						end = *a.EndTime
					}
					tw.AppendRow(table.Row{a.ID, a.Type, a.Title, a.City, a.StartTime, end})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func activityUpdateCmd() *cobra.Command {
	var title, city, notes, typ string
	cmd := &cobra.Command{
		Use:   "update <activity-id>",
		Short: "Update activity fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.ActivityUpdateOptions{ID: args[0], ActorID: viper.GetString("actor-id")}
				if cmd.Flags().Changed("title") {
					opts.Title = &title
				}
				if cmd.Flags().Changed("city") {
					opts.City = &city
				}
				if cmd.Flags().Changed("notes") {
					opts.Notes = &notes
				}
				if cmd.Flags().Changed("type") {
					opts.Type = &typ
				}
				a, err := e.UpdateActivity(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "activity title")
	cmd.Flags().StringVar(&city, "city", "", "city")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&typ, "type", "", "flight|transport|stay|event|task|note")
	return cmd
}

func activityMoveCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "move <activity-id>",
		Short: "Move an activity to a new start",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, endT, err := parseWindowFlags(start, end)
				if err != nil {
					return err
				}
				a, err := e.MoveActivity(ctx, args[0], s, endT, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "new start (RFC3339)")
	cmd.Flags().StringVar(&end, "end", "", "new end (RFC3339), empty keeps the activity pointlike")
	return cmd
}

func activityResizeCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "resize <activity-id>",
		Short: "Set a new time window for an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, endT, err := parseWindowFlags(start, end)
				if err != nil {
					return err
				}
				a, err := e.ResizeActivity(ctx, args[0], s, endT, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "new start (RFC3339)")
	cmd.Flags().StringVar(&end, "end", "", "new end (RFC3339)")
	return cmd
}

func activityDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <activity-id>",
		Short: "Delete an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteActivity(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
}

func parseWindowFlags(start, end string) (time.Time, *time.Time, error) {
	if start == "" {
		return time.Time{}, nil, fmt.Errorf("--start required")
	}
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("start %q: %w", start, err)
	}
	if end == "" {
		return s, nil, nil
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("end %q: %w", end, err)
	}
	return s, &e, nil
}

func timelineCmd() *cobra.Command {
	var mode string
	var width, zoomLevel float64
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Print the computed timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				tripID, err := resolveTripID(ctx, e.Repo, "")
				if err != nil {
					return err
				}
				var z timeline.Zoom
				for i := 0; i < 10 && z.Multiplier() < zoomLevel; i++ {
					z.In()
				}
				for i := 0; i < 10 && z.Multiplier() > zoomLevel; i++ {
					z.Out()
				}
				l, err := e.TimelineLayout(ctx, engine.TimelineOptions{
					TripID:         tripID,
					Mode:           timeline.ViewMode(mode),
					ContainerWidth: width,
					Zoom:           z,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(l)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Group", "Title", "Start", "End", "X", "Width"})
				for _, g := range l.Groups {
					bars := append(append([]timeline.Bar{}, g.Overlay...), g.Rows...)
					for _, b := range bars {
						end := ""
						if b.Activity.End != nil {
							end = b.Activity.End.Format(time.RFC3339)
						}
						tw.AppendRow(table.Row{
							g.Type, b.Activity.Title,
							b.Activity.Start.Format(time.RFC3339), end,
							fmt.Sprintf("%.1f", b.X), fmt.Sprintf("%.1f", b.VisualWidth()),
						})
					}
				}
				tw.Render()
				fmt.Printf("range %s .. %s, %d columns, grid %.0fpx\n",
					l.Range.Start.Format(time.RFC3339), l.Range.End.Format(time.RFC3339),
					len(l.Columns), l.GridWidth)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "hours|day|month (config default when empty)")
	cmd.Flags().Float64Var(&width, "width", 0, "container width in pixels")
	cmd.Flags().Float64Var(&zoomLevel, "zoom", 1.0, "zoom multiplier, clamped to [0.5,3.0]")
	return cmd
}

func importCmd() *cobra.Command {
	imp := &cobra.Command{Use: "import", Short: "Import external data"}
	var from, to string
	ics := &cobra.Command{
		Use:   "ics <file>",
		Short: "Import an iCalendar file as event activities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				tripID, err := resolveTripID(ctx, e.Repo, "")
				if err != nil {
					return err
				}
				body, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				now := time.Now()
				fromT := now.AddDate(0, -1, 0)
				toT := now.AddDate(1, 0, 0)
				if from != "" {
					if fromT, err = time.Parse(time.RFC3339, from); err != nil {
						return fmt.Errorf("from: %w", err)
					}
				}
				if to != "" {
					if toT, err = time.Parse(time.RFC3339, to); err != nil {
						return fmt.Errorf("to: %w", err)
					}
				}
				res, err := e.ImportICS(ctx, tripID, body, fromT, toT, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
	ics.Flags().StringVar(&from, "from", "", "window start (RFC3339), default one month ago")
	ics.Flags().StringVar(&to, "to", "", "window end (RFC3339), default one year ahead")
	imp.AddCommand(ics)
	return imp
}

func uiCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				tripID, err := resolveTripID(ctx, e.Repo, "")
				if err != nil {
					return err
				}
				viewMode := e.Config.DefaultMode()
				if mode != "" {
					viewMode = timeline.ViewMode(mode)
					if _, err := timeline.ScaleFor(viewMode); err != nil {
						return err
					}
				}
				return ui.Run(e, tripID, viewMode, e.Config.ExpandedTypes())
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "hours|day|month")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var anonymous bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			logger, err := logging.New(viper.GetString("log-level"), "console")
			if err != nil {
				return err
			}
			defer logger.Sync()

			e := engine.New(conn, cfg)
			e.Logger = logger
			hub := server.NewHub(logger)
			e.OnWindowChange = hub.NotifyWindowChange

			authCfg := server.AuthConfig{
				JWTSecret:      os.Getenv("TRIPLINE_JWT_SECRET"),
				AllowAnonymous: anonymous,
				Logger:         logger,
			}
			if !anonymous && authCfg.JWTSecret == "" {
				return fmt.Errorf("TRIPLINE_JWT_SECRET is required for bearer auth (or pass --anonymous)")
			}
			if cfg != nil && basePath == "" {
				basePath = cfg.Server.BasePath
			}
			if cfg != nil && addr == "127.0.0.1:8787" && cfg.Server.Addr != "" {
				addr = cfg.Server.Addr
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg, Live: hub})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Tripline API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8787", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path, default /v0")
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "skip auth for local use")
	return cmd
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Event log"}
	var n int
	var evtType string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				tripID, err := resolveTripID(ctx, r, "")
				if err != nil {
					return err
				}
				evts, err := r.LatestEvents(ctx, n, tripID, evtType, "", "")
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(evts)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"TS", "Type", "Entity", "Actor", "Payload"})
				for _, ev := range evts {
					tw.AppendRow(table.Row{ev.TS, ev.Type, ev.EntityKind + "/" + ev.EntityID, ev.ActorID, ev.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	tail.Flags().IntVarP(&n, "lines", "n", 20, "number of events")
	tail.Flags().StringVar(&evtType, "type", "", "event type filter")
	lg.AddCommand(tail)
	return lg
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

// resolveTripID picks the trip: explicit id, then --trip flag, then the
// config default, then the only trip in the workspace.
func resolveTripID(ctx context.Context, r repo.Repo, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if flag := viper.GetString("trip"); flag != "" {
		return flag, nil
	}
	cfg, err := config.LoadOptional(viper.GetString("workspace"))
	if err != nil {
		return "", err
	}
	if cfg != nil && cfg.Trip.ID != "" {
		return cfg.Trip.ID, nil
	}
	t, err := r.SingleTrip(ctx)
	if err != nil {
		return "", fmt.Errorf("no trip selected: %w", err)
	}
	return t.ID, nil
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
