package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ObjectListing is one row of a grid-proxy listing response. It only exists
// to drive the detail-fetch loop; the interesting data lives in the detail
// object.
type ObjectListing struct {
	ID               int64  `json:"id"`
	Fullpath         string `json:"fullpath"`
	Type             string `json:"type"`
	Subtype          string `json:"subtype"`
	Classname        string `json:"classname"`
	Filename         string `json:"filename"`
	CreationDate     int64  `json:"creationDate"`
	ModificationDate int64  `json:"modificationDate"`
	Published        bool   `json:"published"`
}

// ReportRecord is one flat row of the Gruppentermine report. ID is always
// set; every other optional column is a pointer so that absent source data
// stays absent in the output instead of turning into an empty string.
type ReportRecord struct {
	ID                string  `json:"ID"`
	Gruppe            *string `json:"Gruppe,omitempty"`
	Titel             string  `json:"Titel"`
	TerminStart       *string `json:"Termin_Start,omitempty"`
	TerminEnde        *string `json:"Termin_Ende,omitempty"`
	Tourenleitung     *string `json:"Tourenleitung,omitempty"`
	Veranstaltungsort *string `json:"Veranstaltungsort,omitempty"`
	Treffpunkt        *string `json:"Treffpunkt,omitempty"`
	Beschreibung      *string `json:"Beschreibung,omitempty"`
	BeschreibungHTML  *string `json:"Beschreibung_HTML,omitempty"`
}

// StartKey returns the value the final sort orders by. Records without a
// start date sort first (empty string).
func (r ReportRecord) StartKey() string {
	if r.TerminStart == nil {
		return ""
	}
	return *r.TerminStart
}

// CollectionResult is the outcome of one collection run.
type CollectionResult struct {
	RunID       uuid.UUID      `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Duration    time.Duration  `json:"duration"`
	Skipped     int            `json:"skipped"`
	Records     []ReportRecord `json:"records"`
}

// ReportRun is one archived collection run.
type ReportRun struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	GeneratedAt time.Time        `json:"generated_at"`
	DurationMs  int64            `json:"duration_ms"`
	RecordCount int              `json:"record_count"`
	Skipped     int              `json:"skipped"`
	Records     []ArchivedRecord `gorm:"foreignKey:RunID" json:"-"`
}

// ArchivedRecord is one report row persisted for a run.
type ArchivedRecord struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	RunID             uuid.UUID `gorm:"type:uuid;not null;index" json:"run_id"`
	Position          int       `gorm:"not null" json:"position"`
	ObjectID          string    `gorm:"not null" json:"object_id"`
	Gruppe            *string   `json:"gruppe"`
	Titel             string    `json:"titel"`
	TerminStart       *string   `json:"termin_start"`
	TerminEnde        *string   `json:"termin_ende"`
	Tourenleitung     *string   `json:"tourenleitung"`
	Veranstaltungsort *string   `json:"veranstaltungsort"`
	Treffpunkt        *string   `json:"treffpunkt"`
	Beschreibung      *string   `json:"beschreibung"`
	BeschreibungHTML  *string   `json:"beschreibung_html"`
}

// SetupModels runs the archive schema migrations
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&ReportRun{},
		&ArchivedRecord{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to migrate archive models")
	}

	return nil
}
