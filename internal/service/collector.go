// Package service orchestrates a full collection run: probe the backend,
// list both event classes, fetch and normalize every discovered object
// sequentially, then sort and hand off the result.
package service

import (
	"context"
	"sort"
	"time"

	"github.com/markuskkkl/dav-pimcore/config"
	"github.com/markuskkkl/dav-pimcore/internal/archive"
	"github.com/markuskkkl/dav-pimcore/internal/cache"
	"github.com/markuskkkl/dav-pimcore/internal/models"
	"github.com/markuskkkl/dav-pimcore/internal/normalize"
	"github.com/markuskkkl/dav-pimcore/internal/pimcore"
	"github.com/markuskkkl/dav-pimcore/internal/search"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrProbeFailed means the connectivity probe did not succeed and the run
// was aborted before any listing or fetching happened.
var ErrProbeFailed = errors.New("backend connectivity probe failed")

// Backend is the slice of the Pimcore client the collector needs.
type Backend interface {
	Probe(ctx context.Context) bool
	ListObjects(ctx context.Context, folderID int64, classID string) ([]models.ObjectListing, error)
	FetchObject(ctx context.Context, id int64) (map[string]interface{}, error)
}

// Collector runs the collection pipeline
type Collector struct {
	backend       Backend
	cache         *cache.RedisCache
	archive       *archive.Archive
	elasticClient *search.ElasticClient
	cfg           config.BackendConfig
}

// NewCollector creates a collector. cache, archive and elasticClient are
// optional; pass nil (or a disabled instance) to skip the side-writes.
func NewCollector(
	backend Backend,
	cache *cache.RedisCache,
	archive *archive.Archive,
	elasticClient *search.ElasticClient,
	cfg config.BackendConfig,
) *Collector {
	return &Collector{
		backend:       backend,
		cache:         cache,
		archive:       archive,
		elasticClient: elasticClient,
		cfg:           cfg,
	}
}

// Run executes one full collection. Only a failed probe aborts it; listing
// and per-object failures are logged and skipped so the run always attempts
// every discovered object.
func (c *Collector) Run(ctx context.Context) (*models.CollectionResult, error) {
	started := time.Now()

	if !c.backend.Probe(ctx) {
		return nil, ErrProbeFailed
	}

	runID := uuid.New()
	log.Info().Str("run_id", runID.String()).Msg("Starting collection run")

	// Both classes in fixed order. An object listed in both would be
	// fetched and reported twice; the backend folder layout does not
	// produce that today.
	var listings []models.ObjectListing
	for _, classID := range []string{c.cfg.TourClassID, c.cfg.EventClassID} {
		rows, err := c.backend.ListObjects(ctx, c.cfg.FolderID, classID)
		if err != nil {
			log.Warn().Err(err).Str("class_id", classID).Msg("Listing failed, continuing without this class")
			continue
		}
		listings = append(listings, rows...)
	}

	result := &models.CollectionResult{
		RunID:       runID,
		GeneratedAt: started,
		Records:     make([]models.ReportRecord, 0, len(listings)),
	}

	for i, listing := range listings {
		if i > 0 && c.cfg.RequestDelay > 0 {
			select {
			case <-time.After(c.cfg.RequestDelay):
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "collection run cancelled")
			}
		}

		data, err := c.fetchDetail(ctx, listing)
		if err != nil {
			if errors.Is(err, pimcore.ErrEditLocked) {
				log.Warn().Int64("id", listing.ID).Msg("Object stayed edit-locked, skipping")
			} else {
				log.Warn().Err(err).Int64("id", listing.ID).Msg("Detail fetch failed, skipping")
			}
			result.Skipped++
			continue
		}

		result.Records = append(result.Records, normalize.Record(listing.ID, data))
	}

	sort.SliceStable(result.Records, func(i, j int) bool {
		return result.Records[i].StartKey() < result.Records[j].StartKey()
	})

	result.Duration = time.Since(started)

	log.Info().
		Str("run_id", runID.String()).
		Int("records", len(result.Records)).
		Int("skipped", result.Skipped).
		Dur("duration", result.Duration).
		Msg("Collection run finished")

	c.sideWrites(ctx, result)

	return result, nil
}

// fetchDetail retrieves one object detail, going through the cache when it
// is enabled. The cache key carries the listing's modificationDate, so a
// modified object always misses.
func (c *Collector) fetchDetail(ctx context.Context, listing models.ObjectListing) (map[string]interface{}, error) {
	if !c.cache.Enabled() {
		return c.backend.FetchObject(ctx, listing.ID)
	}

	key := cache.ObjectCacheKey(listing.ID, listing.ModificationDate)
	if data, err := c.cache.GetObject(ctx, key); err == nil {
		log.Debug().Int64("id", listing.ID).Msg("Detail served from cache")
		return data, nil
	}

	data, err := c.backend.FetchObject(ctx, listing.ID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetObject(ctx, key, data); err != nil {
		log.Warn().Err(err).Int64("id", listing.ID).Msg("Failed to cache detail")
	}

	return data, nil
}

// sideWrites archives and indexes the finished run. Both are optional and
// best-effort; failures never affect the returned result.
func (c *Collector) sideWrites(ctx context.Context, result *models.CollectionResult) {
	if c.archive.Enabled() {
		if err := c.archive.SaveRun(ctx, result); err != nil {
			log.Warn().Err(err).Msg("Failed to archive run, continuing")
		}
	}

	if c.elasticClient != nil {
		if err := c.elasticClient.IndexRun(ctx, result); err != nil {
			log.Warn().Err(err).Msg("Failed to index run, continuing")
		}
	}
}
