package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"events-portal/internal/events"
	"events-portal/internal/events/detail"
	"events-portal/internal/events/form"
	"events-portal/internal/events/listing"
	"events-portal/internal/gateway"
	"events-portal/internal/kafka"
	"events-portal/internal/logger"
	"events-portal/internal/models"
	"events-portal/internal/notify"
)

const (
	listTimeLayout   = "January 2, 2006 at 3:04 PM"
	detailDateLayout = "Monday, January 2, 2006"
	detailTimeLayout = "Monday, January 2, 2006 at 3:04 PM"
)

// runtime is what every command builds from the global flags.
type runtime struct {
	log      *logger.Logger
	gateway  *gateway.Client
	reporter *events.Reporter
}

func newRuntime(c *cli.Context) *runtime {
	log := logger.New(logger.Options{
		Name:        "eventsctl",
		Level:       c.String("log-level"),
		Output:      c.App.ErrWriter,
		DisableFile: true,
		NoColor:     true,
	})
	gw := gateway.NewClient(c.String("api"), &http.Client{Timeout: c.Duration("timeout")}, log)
	toasts := notify.Func(func(_ context.Context, t models.Toast) {
		fmt.Fprintf(c.App.ErrWriter, "[%s] %s\n", t.Status, t.Title)
	})
	return &runtime{
		log:      log,
		gateway:  gw,
		reporter: &events.Reporter{Logger: log, Notifier: toasts},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List events, optionally filtered.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "case-insensitive title search"},
			&cli.StringFlag{Name: "category", Value: models.AllCategories, Usage: "category name"},
			&cli.StringFlag{Name: "match", Value: string(models.MatchExact), EnvVars: []string{"CATEGORY_MATCH"}, Usage: "category match mode: exact or substring"},
		},
		Action: func(c *cli.Context) error {
			mode, err := models.ParseMatchMode(c.String("match"))
			if err != nil {
				return err
			}
			rt := newRuntime(c)

			list := listing.New(rt.gateway, rt.reporter, mode)
			defer list.Close()
			list.SetFilter(models.NewFilter(c.String("search"), c.String("category")))
			list.Load(c.Context)
			if err := list.Wait(c.Context); err != nil {
				return err
			}

			view := list.Snapshot()
			if view.EventsState == listing.Failed {
				return errors.New("events could not be loaded")
			}

			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tSTART\tCATEGORIES")
			for _, row := range view.Rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Event.ID, row.Event.Title, row.Event.StartTime.Format(listTimeLayout), row.CategoryLabel())
			}
			return tw.Flush()
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one event with its categories and creator.",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := models.ID(c.Args().First())
			if id.IsZero() {
				return errors.New("an event id is required")
			}
			rt := newRuntime(c)

			d := detail.New(rt.gateway, rt.reporter, c.Int("fanout"))
			defer d.Close()
			d.Open(c.Context, id)
			if err := d.Wait(c.Context); err != nil {
				return err
			}
			if err := d.WaitCreator(c.Context); err != nil {
				return err
			}

			view := d.Snapshot()
			if view.Status != detail.Ready || view.Event == nil {
				return fmt.Errorf("event %s could not be loaded", id)
			}
			printEvent(c, view)
			return nil
		},
	}
}

func printEvent(c *cli.Context, view detail.View) {
	e := view.Event
	names := make([]string, 0, len(view.Badges))
	for _, b := range view.Badges {
		names = append(names, b.Name)
	}
	categories := strings.Join(names, ", ")
	if len(names) == 0 {
		categories = models.NoCategories
	}

	w := c.App.Writer
	fmt.Fprintln(w, e.Title)
	fmt.Fprintln(w, e.StartTime.Format(detailDateLayout))
	fmt.Fprintf(w, "Categories: %s\n", categories)
	fmt.Fprintf(w, "Description: %s\n", e.Description)
	fmt.Fprintf(w, "Start Time: %s\n", e.StartTime.Format(detailTimeLayout))
	fmt.Fprintf(w, "End Time: %s\n", e.EndTime.Format(detailTimeLayout))
	fmt.Fprintf(w, "Location: %s\n", e.Location)
	fmt.Fprintf(w, "Image: %s\n", e.ImageOrDefault())
	if name := view.CreatorName(); name != "" {
		fmt.Fprintf(w, "Created By: %s\n", name)
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Add an event.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title"},
			&cli.StringFlag{Name: "description"},
			&cli.StringFlag{Name: "location"},
			&cli.StringFlag{Name: "start", Usage: "start time, e.g. 2024-05-01T18:00"},
			&cli.StringFlag{Name: "end", Usage: "end time, e.g. 2024-05-01T20:00"},
			&cli.StringFlag{Name: "image", Usage: "image URL (optional)"},
			&cli.StringFlag{Name: "created-by", Usage: "your name"},
			&cli.StringSliceFlag{Name: "category", Usage: "category id, repeatable"},
		},
		Action: func(c *cli.Context) error {
			rt := newRuntime(c)

			draft := form.Draft{
				Title:       c.String("title"),
				Description: c.String("description"),
				Location:    c.String("location"),
				Image:       c.String("image"),
				CreatedBy:   c.String("created-by"),
			}
			var err error
			if draft.StartTime, err = models.ParseTime(c.String("start")); err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			if draft.EndTime, err = models.ParseTime(c.String("end")); err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}
			for _, id := range c.StringSlice("category") {
				draft.Toggle(models.ID(id))
			}

			creator := &createdRecorder{list: listing.New(rt.gateway, rt.reporter, models.MatchExact)}
			if _, err := draft.Submit(c.Context, creator); err != nil {
				var verr *models.ValidationError
				if errors.As(err, &verr) {
					fmt.Fprintln(c.App.ErrWriter, models.RequiredFieldsMessage)
				}
				return err
			}
			fmt.Fprintf(c.App.Writer, "Created event %s\n", creator.created.ID)
			return nil
		},
	}
}

// createdRecorder keeps the record the backend assigned.
type createdRecorder struct {
	list    *listing.Synchronizer
	created *models.Event
}

func (r *createdRecorder) Create(ctx context.Context, event models.Event) (*models.Event, error) {
	created, err := r.list.Create(ctx, event)
	r.created = created
	return created, err
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete an event.",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "confirm the deletion; it cannot be undone"},
		},
		Action: func(c *cli.Context) error {
			id := models.ID(c.Args().First())
			if id.IsZero() {
				return errors.New("an event id is required")
			}
			rt := newRuntime(c)

			d := detail.New(rt.gateway, rt.reporter, c.Int("fanout"))
			defer d.Close()
			d.Open(c.Context, id)
			if err := d.Wait(c.Context); err != nil {
				return err
			}
			if err := d.RequestDelete(); err != nil {
				return err
			}
			if !c.Bool("yes") {
				d.CancelDelete()
				return errors.New("refusing to delete without --yes")
			}

			if _, err := d.ConfirmDelete(c.Context); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Deleted event %s\n", id)
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print event changes as they are published.",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "brokers", Value: cli.NewStringSlice("localhost:9092"), EnvVars: []string{"KAFKA_BROKERS"}},
			&cli.StringFlag{Name: "topic", Value: "events.changes", EnvVars: []string{"KAFKA_TOPIC_EVENTS"}},
			&cli.StringFlag{Name: "group", Usage: "consumer group (defaults to a fresh one)"},
		},
		Action: func(c *cli.Context) error {
			rt := newRuntime(c)
			group := c.String("group")
			if group == "" {
				group = "eventsctl-" + uuid.NewString()
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			consumer := kafka.NewConsumer(c.StringSlice("brokers"), c.String("topic"), group, rt.log)
			defer consumer.Close()
			return consumer.Start(ctx, func(change models.EventChange) {
				fmt.Fprintln(c.App.Writer, formatChange(change))
			})
		},
	}
}

func formatChange(change models.EventChange) string {
	line := fmt.Sprintf("%s %-7s %s", change.OccurredAt.Format("2006-01-02T15:04:05Z07:00"), change.Kind, change.EventID)
	if change.Event != nil && change.Event.Title != "" {
		line += " " + change.Event.Title
	}
	return line
}
