package web

// views.go maps pipeline results onto what the client sees: templates.*View
// for HTML pages and the *Response types for the JSON API. JSON fields are
// camelCase; artifact bytes are base64 encoded by encoding/json.

import (
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"github.com/JonMunkholm/DataTransformer/internal/core"
	"github.com/JonMunkholm/DataTransformer/internal/web/templates"
	"github.com/jackc/pgx/v5/pgtype"
)

type batchResponse struct {
	BatchID    string         `json:"batchId"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	DurationMs int64          `json:"durationMs"`
	Files      []fileResponse `json:"files"`
}

type fileResponse struct {
	FileName  string `json:"fileName"`
	SizeBytes int64  `json:"sizeBytes"`
	SizeLabel string `json:"sizeLabel"`
	OK        bool   `json:"ok"`

	Error    *core.UserMessage  `json:"error,omitempty"`
	Warnings []core.UserMessage `json:"warnings,omitempty"`
	Notices  []string           `json:"notices,omitempty"`

	SourceColumns     []string         `json:"sourceColumns,omitempty"`
	Columns           []columnResponse `json:"columns,omitempty"`
	Rows              int              `json:"rows"`
	DuplicatesRemoved int              `json:"duplicatesRemoved"`
	CellsFilled       int              `json:"cellsFilled"`
	Preview           [][]any          `json:"preview,omitempty"`

	Chart    *chartResponse    `json:"chart,omitempty"`
	Artifact *artifactResponse `json:"artifact,omitempty"`

	DurationMs int64 `json:"durationMs"`
}

type columnResponse struct {
	Name    string          `json:"name"`
	Kind    core.ColumnKind `json:"kind"`
	Missing int             `json:"missing"`
}

type chartResponse struct {
	Index     []int            `json:"index"`
	Series    []seriesResponse `json:"series"`
	Truncated bool             `json:"truncated"`
	TotalRows int              `json:"totalRows"`
}

type seriesResponse struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

type artifactResponse struct {
	FileName  string `json:"fileName"`
	MIMEType  string `json:"mimeType"`
	SizeBytes int    `json:"sizeBytes"`
	Data      []byte `json:"data"`
}

type healthResponse struct {
	Status  string                   `json:"status"`
	Uploads core.UploadLimiterStatus `json:"uploads"`
}

func toBatchResponse(b *core.BatchResult) batchResponse {
	out := batchResponse{
		BatchID:    b.ID,
		Succeeded:  b.Succeeded,
		Failed:     b.Failed,
		DurationMs: b.Duration.Milliseconds(),
		Files:      make([]fileResponse, len(b.Files)),
	}
	for i := range b.Files {
		out.Files[i] = toFileResponse(&b.Files[i])
	}
	return out
}

func toFileResponse(r *core.FileResult) fileResponse {
	out := fileResponse{
		FileName:          r.FileName,
		SizeBytes:         r.SizeBytes,
		SizeLabel:         core.FormatKB(r.SizeBytes),
		OK:                r.OK(),
		Notices:           r.Notices,
		SourceColumns:     r.SourceColumns,
		Rows:              r.Rows(),
		DuplicatesRemoved: r.DuplicatesRemoved,
		CellsFilled:       r.CellsFilled,
		DurationMs:        r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		msg := core.MapError(r.Err)
		out.Error = &msg
	}
	for _, w := range r.Warnings {
		out.Warnings = append(out.Warnings, core.MapError(w))
	}

	if r.Table != nil {
		for _, c := range r.Table.Columns {
			out.Columns = append(out.Columns, columnResponse{Name: c.Name, Kind: c.Kind, Missing: c.Missing()})
		}
	}
	if p := r.Preview; p != nil {
		out.Preview = make([][]any, p.NumRows())
		for i := range out.Preview {
			row := make([]any, p.NumCols())
			for j, c := range p.Columns {
				row[j] = jsonCell(c, i)
			}
			out.Preview[i] = row
		}
	}

	if c := r.Chart; c != nil {
		cr := &chartResponse{Index: c.Index, Truncated: c.Truncated, TotalRows: c.TotalRows, Series: []seriesResponse{}}
		for _, s := range c.Series {
			cr.Series = append(cr.Series, seriesResponse{Name: s.Name, Values: floatPtrs(s.Values)})
		}
		out.Chart = cr
	}

	if a := r.Artifact; a != nil {
		out.Artifact = &artifactResponse{
			FileName:  a.FileName,
			MIMEType:  a.MIMEType,
			SizeBytes: len(a.Data),
			Data:      a.Data,
		}
	}
	return out
}

// jsonCell returns a cell as a JSON-safe value. encoding/json rejects
// infinities, so non-finite numbers are sent in their text form.
func jsonCell(c *core.Column, i int) any {
	v := c.Value(i)
	if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return core.FormatNumber(f)
	}
	return v
}

// floatPtrs maps missing and non-finite values to nil.
func floatPtrs(values []pgtype.Float8) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if v.Valid && !math.IsInf(v.Float64, 0) && !math.IsNaN(v.Float64) {
			f := v.Float64
			out[i] = &f
		}
	}
	return out
}

func toBatchView(b *core.BatchResult) templates.BatchView {
	out := templates.BatchView{
		ID:        b.ID,
		Succeeded: b.Succeeded,
		Failed:    b.Failed,
		Duration:  b.Duration.Round(time.Millisecond).String(),
		Files:     make([]templates.FileView, len(b.Files)),
	}
	for i := range b.Files {
		out.Files[i] = toFileView(&b.Files[i])
	}
	return out
}

func toFileView(r *core.FileResult) templates.FileView {
	out := templates.FileView{
		Name:      r.FileName,
		SizeLabel: core.FormatKB(r.SizeBytes),
		Notices:   r.Notices,
		TotalRows: r.Rows(),
	}
	if r.Err != nil {
		a := alertView(r.Err)
		out.Error = &a
	}
	for _, w := range r.Warnings {
		out.Warnings = append(out.Warnings, alertView(w))
	}

	if p := r.Preview; p != nil {
		for _, c := range p.Columns {
			out.Columns = append(out.Columns, templates.ColumnView{Name: c.Name, Kind: c.Kind.String()})
		}
		for i := 0; i < p.NumRows(); i++ {
			out.Rows = append(out.Rows, p.Row(i))
		}
	}

	out.ColumnField, out.ColumnChoices = columnChoices(r)

	if c := r.Chart; c != nil {
		cv := &templates.ChartView{Points: len(c.Index), Truncated: c.Truncated, TotalRows: c.TotalRows}
		for _, s := range c.Series {
			cv.Series = append(cv.Series, templates.SeriesView{Name: s.Name, Values: floatPtrs(s.Values)})
		}
		out.Chart = cv
	}

	if a := r.Artifact; a != nil {
		out.Download = &templates.DownloadView{
			FileName: a.FileName,
			MIMEType: a.MIMEType,
			Href:     dataURL(a),
			Size:     core.FormatKB(int64(len(a.Data))),
		}
	}
	return out
}

// columnChoices offers every column read from the file, checked when it
// survived into the result table.
func columnChoices(r *core.FileResult) (string, []templates.ColumnChoice) {
	if len(r.SourceColumns) == 0 {
		return "", nil
	}
	kept := make(map[string]bool)
	if r.Table != nil {
		for _, name := range r.Table.ColumnNames() {
			kept[name] = true
		}
	}
	choices := make([]templates.ColumnChoice, len(r.SourceColumns))
	for i, name := range r.SourceColumns {
		choices[i] = templates.ColumnChoice{Name: name, Checked: kept[name]}
	}
	return fieldFileColumnsPrefix + r.FileName, choices
}

func alertView(err error) templates.AlertView {
	msg := core.MapError(err)
	return templates.AlertView{Message: msg.Message, Action: msg.Action, Code: msg.Code, Detail: msg.Detail}
}

func dataURL(a *core.ExportArtifact) string {
	return fmt.Sprintf("data:%s;base64,%s", a.MIMEType, base64.StdEncoding.EncodeToString(a.Data))
}
