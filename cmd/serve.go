package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/markuskkkl/dav-pimcore/config"
	"github.com/markuskkkl/dav-pimcore/internal/api"
	"github.com/markuskkkl/dav-pimcore/internal/report"
	"github.com/markuskkkl/dav-pimcore/internal/service"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest report over HTTP and refresh it periodically",
	Long: `Run an initial collection, then keep re-collecting on a fixed interval
and publish the latest report over HTTP (HTML on /, records as JSON on
/api/records).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	collector, cleanup, err := buildCollector(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	store := report.NewStore()
	writer := report.NewWriter(cfg.Report.OutputDir, cfg.Report.Title)

	// The initial collection has to succeed; a dead session is not worth
	// serving.
	if err := refresh(ctx, collector, store, writer, cfg); err != nil {
		if errors.Is(err, service.ErrProbeFailed) {
			fmt.Fprint(os.Stderr, probeRemediation)
		}
		return err
	}

	server := api.NewServer(cfg.Server, store)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Server.RefreshInterval),
			gocron.NewTask(func() {
				log.Info().Msg("Running scheduled report refresh")
				if err := refresh(ctx, collector, store, writer, cfg); err != nil {
					log.Error().Err(err).Msg("Scheduled report refresh failed")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Serve mode error")
		return err
	}

	log.Info().Msg("Shutting down gracefully")
	return nil
}

// refresh runs one collection, updates the store and writes the report file.
func refresh(ctx context.Context, collector *service.Collector, store *report.Store, writer *report.Writer, cfg config.Config) error {
	result, err := collector.Run(ctx)
	if err != nil {
		return err
	}

	rendered, err := report.Render(cfg.Report.Title, result)
	if err != nil {
		return err
	}
	store.Set(result, rendered)

	if _, err := writer.Write(result); err != nil {
		return err
	}

	return nil
}
