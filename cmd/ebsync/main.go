// Command ebsync mirrors an Eventbrite organizer's catalog into Postgres.
//
// Usage:
//
//	ebsync [-dry-run] [-verbose] events [-status S]
//	ebsync [-dry-run] [-verbose] event <event_id>
//	ebsync [-dry-run] [-verbose] attendees <event_id> [-status S]
//	ebsync summary <event_id>
//	ebsync serve
//	ebsync token <subject> [-ttl D]
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventbritesync/config"
	"eventbritesync/internal/adapters/auth"
	"eventbritesync/internal/adapters/email"
	"eventbritesync/internal/adapters/eventbrite"
	"eventbritesync/internal/adapters/lock"
	delivery "eventbritesync/internal/delivery/http"
	"eventbritesync/internal/delivery/http/controllers"
	"eventbritesync/internal/delivery/http/middleware"
	"eventbritesync/internal/domain"
	"eventbritesync/internal/mapping"
	"eventbritesync/internal/materializer"
	"eventbritesync/internal/repository/memory"
	"eventbritesync/internal/repository/postgres"
	"eventbritesync/internal/services"

	"github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const usage = `usage: ebsync [-dry-run] [-verbose] <command> [args]

commands:
  events [-status S]               sync every event owned by the token's user
  event <event_id>                 sync one event and its ticket classes
  attendees <event_id> [-status S] sync the attendees of one event
  summary <event_id>               print the sales summary of a mirrored event
  serve                            run the HTTP API
  token <subject> [-ttl D]         issue a bearer token for the HTTP API
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "ebsync:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("ebsync", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "keep records in memory instead of Postgres")
	verbose := fs.Bool("verbose", false, "trace every mapped field")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *verbose {
		cfg.Sync.Verbose = true
	}
	logger := config.NewLogger(stdout, cfg.Sync.Verbose)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd == "token" {
		return issueToken(stdout, cfg.JWTSecret, rest)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := newApp(ctx, cfg, logger, *dryRun)
	if err != nil {
		return err
	}
	defer cleanup()

	switch cmd {
	case "events":
		sub := flag.NewFlagSet("events", flag.ContinueOnError)
		status := sub.String("status", "", "Eventbrite status filter")
		if err := sub.Parse(rest); err != nil {
			return err
		}
		opts, err := statusOptions(*status)
		if err != nil {
			return err
		}
		report, err := app.sync.SyncOwnedEvents(ctx, opts)
		return printReport(stdout, logger, report, err)
	case "event":
		eventID, err := singleArg(rest, "event_id")
		if err != nil {
			return err
		}
		event, err := app.sync.SyncEvent(ctx, eventID)
		if err != nil {
			return err
		}
		logger.Info("event synced", "eb_id", event.EBID, "id", event.ID, "tickets", len(event.Tickets))
		return writeJSON(stdout, event)
	case "attendees":
		if len(rest) == 0 {
			return errors.New("attendees: missing event_id")
		}
		sub := flag.NewFlagSet("attendees", flag.ContinueOnError)
		status := sub.String("status", "", "attendee status filter")
		if err := sub.Parse(rest[1:]); err != nil {
			return err
		}
		report, err := app.sync.SyncEventAttendees(ctx, rest[0], domain.ListOptions{Status: *status})
		return printReport(stdout, logger, report, err)
	case "summary":
		eventID, err := singleArg(rest, "event_id")
		if err != nil {
			return err
		}
		summary, err := app.sync.EventSummary(ctx, eventID)
		if err != nil {
			return err
		}
		return writeJSON(stdout, summary)
	case "serve":
		return serve(ctx, cfg, logger, app)
	}
	fs.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

type app struct {
	sync     domain.SyncService
	verifier domain.TokenVerifier
}

// newApp wires the sync service. The returned cleanup closes the database and
// Redis clients; on error they are already closed.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, dryRun bool) (_ *app, _ func(), err error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var (
		store   domain.RecordStore
		queries domain.EventQueries
	)
	if dryRun {
		logger.Info("dry run, records are kept in memory")
		mem := memory.NewStore()
		store, queries = mem, mem
	} else {
		db, err := sql.Open("postgres", cfg.DBUrl)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		if err := db.PingContext(ctx); err != nil {
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}
		pg := postgres.NewRecordStore(db)
		store, queries = pg, pg
	}

	var locker domain.Locker = lock.NewLocal()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		closers = append(closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		locker = lock.NewRedis(rdb, "ebsync:", lock.DefaultTTL, logger)
	}

	client := eventbrite.NewClient(eventbrite.Config{
		BaseURL:     cfg.Eventbrite.BaseURL,
		Token:       cfg.Eventbrite.Token,
		RatePerHour: cfg.Eventbrite.RatePerHour,
		Logger:      logger,
	})

	m := materializer.New(mapping.EventbriteRegistry(), store, logger,
		materializer.WithVerbose(cfg.Sync.Verbose),
		materializer.WithMaxDepth(cfg.Sync.MaxDepth),
	)

	mailer := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.SESRegion,
			AccessKeyID:        cfg.Email.SESAccessKeyID,
			SecretAccessKey:    cfg.Email.SESSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	notifier := services.NewImportReportNotifier(mailer, email.NewTemplateRenderer(), cfg.Sync.ReportEmail, logger)

	a := &app{
		sync: services.NewSyncService(client, store, queries, m, locker, notifier, logger, cfg.Sync.Timeout),
	}
	if cfg.JWTSecret != "" {
		a.verifier = auth.NewJWTVerifier(cfg.JWTSecret)
	}
	return a, cleanup, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, a *app) error {
	if a.verifier == nil {
		logger.Warn("JWT_SECRET is not set, the HTTP API is unauthenticated")
	}
	router := delivery.NewRouter(controllers.NewSyncController(logger, a.sync), a.verifier, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.LoggingMiddleware(logger, 30*time.Second, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// issueToken prints a signed token for the HTTP API. Flags follow the subject.
func issueToken(w io.Writer, secret string, args []string) error {
	if secret == "" {
		return errors.New("token: JWT_SECRET is not set")
	}
	if len(args) == 0 || args[0] == "" {
		return errors.New("token: missing subject")
	}
	sub := flag.NewFlagSet("token", flag.ContinueOnError)
	ttl := sub.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := sub.Parse(args[1:]); err != nil {
		return err
	}
	if *ttl <= 0 {
		return fmt.Errorf("token: ttl must be positive, got %s", *ttl)
	}
	token, err := auth.NewJWTIssuer(secret).Issue(args[0], *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

func statusOptions(status string) (domain.ListOptions, error) {
	if status == "" {
		return domain.ListOptions{}, nil
	}
	st, err := domain.ParseEventStatus(status)
	if err != nil {
		return domain.ListOptions{}, err
	}
	return domain.ListOptions{Status: string(st)}, nil
}

func singleArg(args []string, name string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("expected exactly one %s argument", name)
	}
	return args[0], nil
}

// printReport writes the report summary. Per-item failures are logged only;
// a stopped import still returns its error.
func printReport(w io.Writer, logger *slog.Logger, report *domain.ImportReport, err error) error {
	if report != nil {
		for _, f := range report.Failed {
			logger.Warn("item failed", "kind", report.Kind, "label", f.Label, "eb_id", f.ExternalID, "error", f.Err)
		}
		if werr := writeJSON(w, report.Summary()); werr != nil {
			return werr
		}
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
