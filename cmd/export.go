package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/markuskkkl/dav-pimcore/config"
	"github.com/markuskkkl/dav-pimcore/internal/archive"
	"github.com/markuskkkl/dav-pimcore/internal/cache"
	"github.com/markuskkkl/dav-pimcore/internal/pimcore"
	"github.com/markuskkkl/dav-pimcore/internal/report"
	"github.com/markuskkkl/dav-pimcore/internal/search"
	"github.com/markuskkkl/dav-pimcore/internal/service"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const probeRemediation = `The backend did not accept the session credentials.

To obtain fresh ones:
  1. Log in to the Pimcore admin (<base-url>/admin) in your browser.
  2. Open the developer tools and copy the PHPSESSID cookie value.
  3. Copy the CSRF token from any admin XHR request's X-pimcore-csrf-token header.
  4. Re-run with --cookie "PHPSESSID=..." --csrf-token "..."
`

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run one collection and write the report",
	Long: `Run one full collection: probe the backend, list both event classes,
fetch and normalize every published object, and write the sorted report to a
timestamped HTML file.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	collector, cleanup, err := buildCollector(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := collector.Run(ctx)
	if err != nil {
		if errors.Is(err, service.ErrProbeFailed) {
			fmt.Fprint(os.Stderr, probeRemediation)
		}
		return err
	}

	writer := report.NewWriter(cfg.Report.OutputDir, cfg.Report.Title)
	path, err := writer.Write(result)
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}

// buildCollector wires the collector with its optional subsystems. Cache
// failures downgrade to running without caching; archive and search are only
// built when enabled.
func buildCollector(cfg config.Config) (*service.Collector, func(), error) {
	client := pimcore.NewClient(cfg.Backend)

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
		redisCache = nil
	}

	runArchive, err := archive.NewArchive(cfg.Archive)
	if err != nil {
		return nil, nil, err
	}

	var elasticClient *search.ElasticClient
	if cfg.Elastic.Enabled {
		elasticClient, err = search.NewElasticClient(cfg.Elastic)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without indexing")
			elasticClient = nil
		}
	}

	cleanup := func() {
		if err := redisCache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis connection")
		}
	}

	return service.NewCollector(client, redisCache, runArchive, elasticClient, cfg.Backend), cleanup, nil
}
