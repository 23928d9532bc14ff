// Package normalize maps one raw Pimcore object detail onto one flat report
// record. The mapping is a pure function of its inputs; malformed or missing
// sub-fields degrade to omitted columns, never to an error.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/markuskkkl/dav-pimcore/internal/htmltext"
	"github.com/markuskkkl/dav-pimcore/internal/models"
	"github.com/markuskkkl/dav-pimcore/internal/utils"
)

const (
	dateOnlyFormat = "2006-01-02"
	dateTimeFormat = "2006-01-02 15:04"
)

// Record flattens one object detail into a report record. id is the object
// id the detail was fetched under and becomes the record's ID verbatim.
func Record(id int64, data map[string]interface{}) models.ReportRecord {
	record := models.ReportRecord{
		ID:    strconv.FormatInt(id, 10),
		Titel: utils.GetStringValue(data, "title"),
	}

	if groups := utils.GetSliceValue(data, "assignedGroups"); len(groups) > 0 {
		if first, ok := groups[0].(map[string]interface{}); ok {
			if path := utils.GetStringValue(first, "fullpath"); path != "" {
				name := lastSegment(path)
				record.Gruppe = &name
			}
		}
	}

	if leaders := leaderNames(utils.GetSliceValue(data, "leaders")); len(leaders) > 0 {
		joined := strings.Join(leaders, "; ")
		record.Tourenleitung = &joined
	}

	if locations := utils.GetMapValue(data, "locations"); locations != nil {
		record.Veranstaltungsort = utils.GetOptionalString(locations, "name")
	}

	record.Treffpunkt = htmltext.Strip(utils.GetOptionalString(data, "meetingPoint"))
	record.Beschreibung = htmltext.Strip(utils.GetOptionalString(data, "description"))
	record.BeschreibungHTML = utils.GetOptionalString(data, "description")

	applyDates(&record, data)

	return record
}

// leaderNames extracts the display name (last path segment) of each leader
// reference, skipping entries without a usable fullpath.
func leaderNames(leaders []interface{}) []string {
	var names []string
	for _, entry := range leaders {
		leader, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if path := utils.GetStringValue(leader, "fullpath"); path != "" {
			names = append(names, lastSegment(path))
		}
	}
	return names
}

// applyDates formats the first entry of dates.data. The epoch timestamps are
// converted to the machine's local timezone; a start instant landing exactly
// on local midnight marks the event as all-day and both ends are formatted
// date-only, otherwise both carry the wall-clock minute. Without a start
// the whole block is skipped, end included.
//
// The midnight check depends on the local timezone at run time: the same
// instant can be all-day on one machine and timed on another. Known quirk,
// kept because changing it would alter every existing all-day row.
func applyDates(record *models.ReportRecord, data map[string]interface{}) {
	dates := utils.GetMapValue(data, "dates")
	entries := utils.GetSliceValue(dates, "data")
	if len(entries) == 0 {
		return
	}

	first, ok := entries[0].(map[string]interface{})
	if !ok {
		return
	}

	startEpoch, ok := utils.GetInt64Value(first, "dateStart")
	if !ok {
		return
	}

	start := time.Unix(startEpoch, 0)
	format := dateTimeFormat
	if h, m, s := start.Clock(); h == 0 && m == 0 && s == 0 {
		format = dateOnlyFormat
	}

	formatted := start.Format(format)
	record.TerminStart = &formatted

	if endEpoch, ok := utils.GetInt64Value(first, "dateEnd"); ok {
		end := time.Unix(endEpoch, 0).Format(format)
		record.TerminEnde = &end
	}
}

func lastSegment(path string) string {
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}
