package archive

import (
	"context"

	"github.com/markuskkkl/dav-pimcore/config"
	"github.com/markuskkkl/dav-pimcore/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Archive persists collection runs and their records in Postgres
type Archive struct {
	db      *gorm.DB
	enabled bool
}

// NewArchive creates the run archive and runs its migrations
func NewArchive(cfg config.ArchiveConfig) (*Archive, error) {
	if !cfg.Enabled {
		return &Archive{enabled: false}, nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to archive database")
	}

	if err := models.SetupModels(db); err != nil {
		return nil, errors.Wrap(err, "failed to run archive migrations")
	}

	return &Archive{db: db, enabled: true}, nil
}

// Enabled reports whether the archive is usable
func (a *Archive) Enabled() bool {
	return a != nil && a.enabled
}

// SaveRun stores one collection run and all its records in a single
// transaction.
func (a *Archive) SaveRun(ctx context.Context, result *models.CollectionResult) error {
	if !a.Enabled() {
		return errors.New("archive is disabled")
	}

	run := models.ReportRun{
		ID:          result.RunID,
		GeneratedAt: result.GeneratedAt,
		DurationMs:  result.Duration.Milliseconds(),
		RecordCount: len(result.Records),
		Skipped:     result.Skipped,
	}

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return errors.Wrap(err, "failed to create report run")
		}

		for i, record := range result.Records {
			archived := models.ArchivedRecord{
				ID:                uuid.New(),
				RunID:             result.RunID,
				Position:          i,
				ObjectID:          record.ID,
				Gruppe:            record.Gruppe,
				Titel:             record.Titel,
				TerminStart:       record.TerminStart,
				TerminEnde:        record.TerminEnde,
				Tourenleitung:     record.Tourenleitung,
				Veranstaltungsort: record.Veranstaltungsort,
				Treffpunkt:        record.Treffpunkt,
				Beschreibung:      record.Beschreibung,
				BeschreibungHTML:  record.BeschreibungHTML,
			}
			if err := tx.Create(&archived).Error; err != nil {
				return errors.Wrap(err, "failed to create archived record")
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("run_id", result.RunID.String()).
		Int("records", len(result.Records)).
		Msg("Run archived successfully")

	return nil
}
