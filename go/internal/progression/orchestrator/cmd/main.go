package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/progression/go/clients/referencedata"
	"github.com/mcdev12/progression/go/clients/usersgroups"
	"github.com/mcdev12/progression/go/internal/dbconfig"
	"github.com/mcdev12/progression/go/internal/progression/config"
	"github.com/mcdev12/progression/go/internal/progression/dispatch"
	"github.com/mcdev12/progression/go/internal/progression/enrichment"
	"github.com/mcdev12/progression/go/internal/progression/journal"
	"github.com/mcdev12/progression/go/internal/progression/ops"
	"github.com/mcdev12/progression/go/internal/progression/orchestrator"
	"github.com/mcdev12/progression/go/internal/progression/readmodel"
	"github.com/mcdev12/progression/go/internal/progression/rules"
	"github.com/mcdev12/progression/go/internal/progression/stream"
	"github.com/mcdev12/progression/go/internal/progression/telemetry"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	env, err := config.ParseEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid environment")
	}
	setupLogging(env)

	file, err := config.Load(env.ConfigPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", env.ConfigPath).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		Endpoint:    env.OTLPEndpoint,
		Insecure:    env.OTLPInsecure,
		ServiceName: env.ServiceName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to flush traces")
		}
	}()

	metrics, err := telemetry.NewOtelMetrics(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create metrics")
	}

	connCfg := stream.DefaultConnConfig()
	connCfg.URL = env.NATSURL
	nc, js, err := stream.Connect(connCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer nc.Close()

	for _, s := range []config.StreamSettings{file.Streams.Inbound, file.Streams.Commands, file.Streams.Public} {
		if err := stream.Ensure(ctx, js, s.Stream()); err != nil {
			log.Fatal().Err(err).Str("stream", s.Name).Msg("failed to ensure stream")
		}
	}

	clock := clockwork.NewRealClock()
	gateway := newGateway(env, file)
	resolver := enrichment.NewResolver(gateway, file.Enrichment.Parallelism)

	var transport dispatch.Transport = dispatch.NewJetStreamTransport(js, file.JetStream(), clock)
	if env.DryRun {
		log.Warn().Msg("dry run: outbound messages are logged, not published")
		transport = dispatch.LogTransport{}
	}
	sequencer := dispatch.NewSequencer(dispatch.NewMetricTransport(transport, metrics, clock), file.Dispatch.SendTimeout)

	feed := ops.NewFeed(ops.DefaultFeedConfig())
	reactorOpts := []orchestrator.Option{
		orchestrator.WithMetrics(metrics),
		orchestrator.WithClock(clock),
	}

	var (
		db       *sql.DB
		repo     *journal.Repository
		listener *journal.Listener
		recent   ops.RecentSource
	)
	if env.JournalEnabled {
		dbCfg, err := dbconfig.NewConfigFromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("invalid database configuration")
		}
		db, err = sql.Open("pgx", dbCfg.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}

		repo = journal.NewRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate journal")
		}

		listenerCfg := journal.DefaultListenerConfig()
		listenerCfg.DatabaseURL = dbCfg.DSN()
		listener, err = journal.NewListener(repo, feed, listenerCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create journal listener")
		}

		feed.WithBacklog(repo, file.Ops.RecentLimit)
		recent = repo
		// every replica's entries reach the feed through the listener
		reactorOpts = append(reactorOpts, orchestrator.WithRecorder(repo))
	} else {
		reactorOpts = append(reactorOpts, orchestrator.WithFeed(feed))
	}

	reactor := orchestrator.NewReactor(rules.Default(), resolver, sequencer, reactorOpts...)
	consumer := orchestrator.NewConsumer(js, reactor, file.ConsumerConfig())

	health := ops.NewHealthChecker(nc, consumer, reactor, ops.HealthConfig{
		StaleAfter:    file.Ops.StaleAfter,
		FailureWindow: file.Ops.FailureWindow,
	})
	if repo != nil {
		health.WithJournal(db, repo)
	}

	server := ops.NewServer(ops.ServerConfig{
		Addr:           env.OpsAddr,
		AllowedOrigins: file.Ops.AllowedOrigins,
		RecentLimit:    file.Ops.RecentLimit,
	}, feed, health, reactor, recent)

	log.Info().
		Str("nats_url", env.NATSURL).
		Str("inbound_stream", file.Streams.Inbound.Name).
		Int("workers", file.Consumer.Workers).
		Bool("journal", env.JournalEnabled).
		Bool("dry_run", env.DryRun).
		Msg("starting progression orchestrator")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		feed.Start(gctx)
		return nil
	})
	g.Go(func() error {
		logStats(gctx, feed, file.Ops.StatsInterval)
		return nil
	})
	if listener != nil {
		g.Go(func() error { return listener.Start(gctx) })
	}
	g.Go(func() error { return consumer.Run(gctx) })
	g.Go(func() error { return server.Run(gctx) })

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("progression orchestrator stopped with error")
		return
	}
	log.Info().Msg("progression orchestrator shutdown complete")
}

func setupLogging(env config.Env) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if strings.EqualFold(env.LogFormat, "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(strings.ToLower(env.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// newGateway routes case and hearing queries to the Connect read stores and
// reference data and user queries to the REST services.
func newGateway(env config.Env, file config.File) *readmodel.Router {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	router := readmodel.NewRouter(file.Enrichment.DefaultTimeout).
		Route(readmodel.NewConnectGateway(httpClient, env.CaseStoreURL, env.HearingStoreURL), readmodel.ConnectKinds()...).
		Route(readmodel.NewRESTGateway(
			referencedata.NewClient(env.ReferenceDataURL, env.SystemUserID),
			usersgroups.NewClient(env.UsersGroupsURL, env.SystemUserID),
		), readmodel.RESTKinds()...)
	for kind, d := range file.QueryTimeouts() {
		router.Timeout(kind, d)
	}
	return router
}

func logStats(ctx context.Context, feed *ops.Feed, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := feed.Stats()
			log.Debug().
				Int("connections", s.Connections).
				Interface("outcomes", s.Outcomes).
				Msg("reaction feed stats")
		}
	}
}
