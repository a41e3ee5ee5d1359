package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/patreg-insight/internal/application/export"
	"github.com/turtacn/patreg-insight/internal/application/filters"
	"github.com/turtacn/patreg-insight/internal/application/stats"
	"github.com/turtacn/patreg-insight/internal/config"
	"github.com/turtacn/patreg-insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/patreg-insight/internal/infrastructure/database/postgres/repositories"
	redisdb "github.com/turtacn/patreg-insight/internal/infrastructure/database/redis"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patreg-insight/internal/infrastructure/monitoring/prometheus"
	httpiface "github.com/turtacn/patreg-insight/internal/interfaces/http"
	"github.com/turtacn/patreg-insight/internal/interfaces/http/handlers"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: "Serve starts the query, statistics, filter and export API. The server\n" +
			"shuts down gracefully on SIGINT or SIGTERM, draining in-flight requests\n" +
			"within the configured shutdown timeout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cliCtx.Config, cliCtx.Logger)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	pool, err := postgres.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	var cache redisdb.Cache
	if cfg.Cache.Enabled {
		client, err := redisdb.NewClient(cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		cache = redisdb.NewCache(client, logger, redisdb.WithPrefix(cfg.Cache.Prefix))
	}

	metrics := prometheus.NewMetrics()

	patentRepo := repositories.NewPatentRepository(pool, logger)
	personRepo := repositories.NewPersonRepository(pool, logger)
	filterRepo := repositories.NewFilterRepository(pool, logger)

	statsSvc := stats.NewService(repositories.NewStatsQuerier(pool), filterRepo, logger)
	filterSvc := filters.NewService(filterRepo, logger)
	exportSvc := export.NewService(repositories.NewExportSource(pool), logger)

	router := httpiface.NewRouter(httpiface.RouterConfig{
		PatentHandler: handlers.NewPatentHandler(patentRepo, statsSvc, cache, logger),
		PersonHandler: handlers.NewPersonHandler(personRepo, statsSvc, cache, logger),
		FilterHandler: handlers.NewFilterHandler(filterSvc, cache, logger),
		ExportHandler: handlers.NewExportHandler(exportSvc, logger),
		HealthHandler: handlers.NewHealthHandler(pool),
		Logger:        logger,
		Metrics:       metrics,
	})

	server := httpiface.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	if err := server.Shutdown(context.Background()); err != nil {
		return err
	}
	return <-errCh
}
