// Package report renders and stores the Gruppentermine report. The column
// order is fixed; downstream consumers rely on it.
package report

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"

	"github.com/markuskkkl/dav-pimcore/internal/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Columns is the fixed column order of the rendered report.
var Columns = []string{
	"Gruppe",
	"Titel",
	"Termin Start",
	"Termin Ende",
	"Tourenleitung",
	"Veranstaltungsort",
	"Treffpunkt",
	"Beschreibung",
	"ID",
}

const reportTemplate = `<!DOCTYPE html>
<html lang="de">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.6em; text-align: left; vertical-align: top; }
th { background: #eee; }
footer { margin-top: 1em; color: #666; font-size: 0.8em; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<table>
<thead>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{range .Records}}<tr>
<td>{{deref .Gruppe}}</td>
<td>{{.Titel}}</td>
<td>{{deref .TerminStart}}</td>
<td>{{deref .TerminEnde}}</td>
<td>{{deref .Tourenleitung}}</td>
<td>{{deref .Veranstaltungsort}}</td>
<td>{{deref .Treffpunkt}}</td>
<td>{{deref .Beschreibung}}</td>
<td>{{.ID}}</td>
</tr>
{{end}}</tbody>
</table>
<footer>Generiert am {{.GeneratedAt}} &middot; {{len .Records}} Termine &middot; Lauf {{.RunID}}</footer>
</body>
</html>
`

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}).Parse(reportTemplate))

// Render produces the HTML report for one collection result.
func Render(title string, result *models.CollectionResult) ([]byte, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, map[string]interface{}{
		"Title":       title,
		"Columns":     Columns,
		"Records":     result.Records,
		"GeneratedAt": result.GeneratedAt.Format("2006-01-02 15:04:05"),
		"RunID":       result.RunID.String(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to render report template")
	}

	return buf.Bytes(), nil
}

// Writer writes rendered reports into an output directory.
type Writer struct {
	outputDir string
	title     string
}

// NewWriter creates a report writer
func NewWriter(outputDir, title string) *Writer {
	return &Writer{outputDir: outputDir, title: title}
}

// Write renders the result and writes it to a timestamped file, returning
// the file's path.
func (w *Writer) Write(result *models.CollectionResult) (string, error) {
	rendered, err := Render(w.title, result)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create report output directory")
	}

	filename := "gruppentermine_" + result.GeneratedAt.Format("20060102_150405") + ".html"
	path := filepath.Join(w.outputDir, filename)

	if err := os.WriteFile(path, rendered, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write report file")
	}

	log.Info().Str("path", path).Int("records", len(result.Records)).Msg("Report written")
	return path, nil
}
