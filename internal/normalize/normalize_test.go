package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func detailWithDates(dateStart, dateEnd interface{}) map[string]interface{} {
	first := map[string]interface{}{}
	if dateStart != nil {
		first["dateStart"] = dateStart
	}
	if dateEnd != nil {
		first["dateEnd"] = dateEnd
	}
	return map[string]interface{}{
		"title": "Skitour",
		"dates": map[string]interface{}{
			"data": []interface{}{first},
		},
	}
}

func TestRecordAllDayEvent(t *testing.T) {
	// Local midnight start marks the event as all-day: both ends date-only.
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local).Unix()
	end := time.Date(2025, 6, 2, 0, 0, 0, 0, time.Local).Unix()

	record := Record(42, detailWithDates(float64(start), float64(end)))

	require.Equal(t, "42", record.ID)
	require.NotNil(t, record.TerminStart)
	require.Equal(t, "2025-06-01", *record.TerminStart)
	require.NotNil(t, record.TerminEnde)
	require.Equal(t, "2025-06-02", *record.TerminEnde)
}

func TestRecordTimedEvent(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 30, 0, 0, time.Local).Unix()
	end := time.Date(2025, 6, 1, 17, 0, 0, 0, time.Local).Unix()

	record := Record(42, detailWithDates(float64(start), float64(end)))

	require.NotNil(t, record.TerminStart)
	require.Equal(t, "2025-06-01 09:30", *record.TerminStart)
	require.NotNil(t, record.TerminEnde)
	require.Equal(t, "2025-06-01 17:00", *record.TerminEnde)
}

func TestRecordStartWithoutEnd(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 30, 0, 0, time.Local).Unix()

	record := Record(42, detailWithDates(float64(start), nil))

	require.NotNil(t, record.TerminStart)
	require.Nil(t, record.TerminEnde)
}

func TestRecordEndWithoutStartSkipsDateBlock(t *testing.T) {
	end := time.Date(2025, 6, 1, 17, 0, 0, 0, time.Local).Unix()

	record := Record(42, detailWithDates(nil, float64(end)))

	require.Nil(t, record.TerminStart)
	require.Nil(t, record.TerminEnde)
}

func TestRecordGroupAndLeaders(t *testing.T) {
	data := map[string]interface{}{
		"title": "Hochtour",
		"assignedGroups": []interface{}{
			map[string]interface{}{"fullpath": "/gruppen/jugend/Jugend Alpin"},
		},
		"leaders": []interface{}{
			map[string]interface{}{"fullpath": "/a/b/Jane Doe"},
			map[string]interface{}{"fullpath": "/a/c/John Roe"},
		},
	}

	record := Record(7, data)

	require.NotNil(t, record.Gruppe)
	require.Equal(t, "Jugend Alpin", *record.Gruppe)
	require.NotNil(t, record.Tourenleitung)
	require.Equal(t, "Jane Doe; John Roe", *record.Tourenleitung)
}

func TestRecordLocationAndTextFields(t *testing.T) {
	data := map[string]interface{}{
		"title":        "Stammtisch",
		"locations":    map[string]interface{}{"name": "Vereinsheim"},
		"meetingPoint": "<p>Am <b>Eingang</b></p>",
		"description":  "<p>Gem&uuml;tlicher Abend</p>",
	}

	record := Record(7, data)

	require.NotNil(t, record.Veranstaltungsort)
	require.Equal(t, "Vereinsheim", *record.Veranstaltungsort)
	require.NotNil(t, record.Treffpunkt)
	require.Equal(t, "Am Eingang\n", *record.Treffpunkt)
	require.NotNil(t, record.Beschreibung)
	require.Equal(t, "Gemütlicher Abend\n", *record.Beschreibung)
	require.NotNil(t, record.BeschreibungHTML)
	require.Equal(t, "<p>Gem&uuml;tlicher Abend</p>", *record.BeschreibungHTML)
}

func TestRecordSparseDetail(t *testing.T) {
	// A detail missing all optional blocks still yields a record; the
	// dependent columns just stay absent.
	record := Record(7, map[string]interface{}{})

	require.Equal(t, "7", record.ID)
	require.Equal(t, "", record.Titel)
	require.Nil(t, record.Gruppe)
	require.Nil(t, record.Tourenleitung)
	require.Nil(t, record.TerminStart)
	require.Nil(t, record.TerminEnde)
	require.Nil(t, record.Veranstaltungsort)
	require.Nil(t, record.Treffpunkt)
	require.Nil(t, record.Beschreibung)
	require.Nil(t, record.BeschreibungHTML)
}

func TestRecordMalformedSubFields(t *testing.T) {
	data := map[string]interface{}{
		"title":          "Kaputt",
		"assignedGroups": []interface{}{"not an object"},
		"leaders":        "not a list",
		"dates":          map[string]interface{}{"data": []interface{}{"not an object"}},
	}

	record := Record(7, data)

	require.Equal(t, "Kaputt", record.Titel)
	require.Nil(t, record.Gruppe)
	require.Nil(t, record.Tourenleitung)
	require.Nil(t, record.TerminStart)
}

func TestRecordIsPure(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 30, 0, 0, time.Local).Unix()
	data := detailWithDates(float64(start), nil)

	first := Record(42, data)
	second := Record(42, data)

	require.Equal(t, first, second)
}
