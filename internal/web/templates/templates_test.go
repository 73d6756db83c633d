package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, c.Render(context.Background(), &sb))
	return sb.String()
}

func ptr(f float64) *float64 { return &f }

var testIndex = IndexView{MaxFiles: 3, MaxFileSize: "1.00 KB", Accept: []string{".csv", ".xlsx"}, ExportFormat: "excel"}

func TestLayout(t *testing.T) {
	out := render(t, Layout("Upload <files>", Index(testIndex, nil)))

	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, "<title>Upload &lt;files&gt;</title>")
	assert.Contains(t, out, `<script src="https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"></script>`)
	assert.Contains(t, out, `<meta name="htmx-config" content="{&#34;responseHandling&#34;:`)
	assert.Contains(t, out, `action="/transform"`)
	assert.Contains(t, out, `accept=".csv,.xlsx"`)
	assert.Contains(t, out, `<option value="excel" selected>`)
	assert.Contains(t, out, `<option value="csv">`)
	assert.Contains(t, out, "Up to 3 files, 1.00 KB each.")
}

func TestIndex_HTMXWiring(t *testing.T) {
	t.Run("empty swap target", func(t *testing.T) {
		out := render(t, Index(testIndex, nil))
		assert.Contains(t, out, `<form id="upload-form"`)
		assert.Contains(t, out, `hx-post="/transform"`)
		assert.Contains(t, out, `hx-target="#results"`)
		assert.Contains(t, out, `hx-swap="outerHTML"`)
		assert.Contains(t, out, `hx-encoding="multipart/form-data"`)
		assert.True(t, strings.HasSuffix(out, `<section id="results"></section>`))
	})

	t.Run("results follow the form", func(t *testing.T) {
		out := render(t, Index(testIndex, Results(BatchView{ID: "b-9"})))
		form := strings.Index(out, "</form>")
		results := strings.Index(out, `<section id="results" data-batch-id="b-9">`)
		require.Positive(t, form)
		assert.Greater(t, results, form)
		assert.Equal(t, 1, strings.Count(out, `id="results"`))
	})
}

func TestFileCard_EscapesUserContent(t *testing.T) {
	out := render(t, FileCard(FileView{
		Name:      `<script>alert(1)</script>.csv`,
		SizeLabel: "0.01 KB",
		Columns:   []ColumnView{{Name: "a&b", Kind: "text"}},
		Rows:      [][]string{{`<b>bold</b>`}, {""}},
		TotalRows: 2,
	}))

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "a&amp;b")
	assert.Contains(t, out, "&lt;b&gt;bold&lt;/b&gt;")
	assert.Contains(t, out, `<td class="missing">`)
	assert.Contains(t, out, "2 rows · 1 columns")
}

func TestFileCard_ErrorAndDownload(t *testing.T) {
	out := render(t, FileCard(FileView{
		Name:     "report.pdf",
		Error:    &AlertView{Message: "Unsupported file format", Code: "FILE002", Action: "Upload a .csv or .xlsx file"},
		Warnings: []AlertView{{Message: "careful", Code: "COL001"}},
		Notices:  []string{"Duplicates removed: 1 row(s)"},
		Download: &DownloadView{FileName: "x.csv", Href: "data:text/csv;base64,YQ==", Size: "0.00 KB"},
	}))

	assert.Contains(t, out, `class="alert alert-error"`)
	assert.Contains(t, out, "(FILE002)")
	assert.Contains(t, out, `class="alert alert-warn"`)
	assert.Contains(t, out, "Duplicates removed: 1 row(s)")
	assert.Contains(t, out, `href="data:text/csv;base64,YQ=="`)
	assert.Contains(t, out, `download="x.csv"`)
}

func TestResults_Summary(t *testing.T) {
	out := render(t, Results(BatchView{
		ID:        "b-1",
		Files:     []FileView{{Name: "a.csv"}, {Name: "b.csv"}},
		Succeeded: 1,
		Failed:    1,
		Duration:  "12ms",
	}))
	assert.Contains(t, out, `data-batch-id="b-1"`)
	assert.Contains(t, out, "2 file(s) processed, 1 failed, in 12ms.")
	assert.Equal(t, 2, strings.Count(out, `<article class="card">`))
}

func TestFileCard_ColumnPicker(t *testing.T) {
	out := render(t, FileCard(FileView{
		Name:        "sales.csv",
		ColumnField: "columns:sales.csv",
		ColumnChoices: []ColumnChoice{
			{Name: "region", Checked: true},
			{Name: `"total"`},
		},
	}))

	assert.Contains(t, out, `<input type="checkbox" form="upload-form" name="columns:sales.csv" value="region" checked>`)
	assert.Contains(t, out, `name="columns:sales.csv" value="&#34;total&#34;">`)
	assert.Equal(t, 1, strings.Count(out, " checked"))
}

func TestFileCard_NoPickerWithoutColumns(t *testing.T) {
	out := render(t, FileCard(FileView{Name: "bad.csv", Error: &AlertView{Message: "broken"}}))
	assert.NotContains(t, out, `form="upload-form"`)
}

func TestErrorSection(t *testing.T) {
	out := render(t, ErrorSection("No files uploaded", "Choose a file", "FILE004"))
	assert.True(t, strings.HasPrefix(out, `<section id="results"><div class="alert alert-error" role="alert">`))
	assert.Contains(t, out, "(FILE004)")
	assert.True(t, strings.HasSuffix(out, "</section>"))
}

func TestErrorAlert(t *testing.T) {
	out := render(t, ErrorAlert("Too many requests", "Wait", "RATE001"))
	assert.Contains(t, out, `role="alert"`)
	assert.Contains(t, out, "Too many requests")
	assert.Contains(t, out, "RATE001")
}

func TestBarChart(t *testing.T) {
	out := render(t, BarChart(ChartView{
		Series: []SeriesView{
			{Name: "x", Values: []*float64{ptr(1), nil, ptr(-2)}},
			{Name: "y", Values: []*float64{ptr(3), ptr(4), ptr(5)}},
		},
		Points:    3,
		Truncated: true,
		TotalRows: 10,
	}))

	assert.Contains(t, out, "<svg")
	assert.Equal(t, 5, strings.Count(out, "<rect"), "missing values draw no bar")
	assert.Contains(t, out, "x[2] = -2")
	assert.Contains(t, out, "(first 3 of 10 rows)")
	assert.Contains(t, out, `<span class="series-1">■</span> <span>y</span>`)
}

func TestLayoutChart(t *testing.T) {
	g := layoutChart(ChartView{
		Series: []SeriesView{{Name: "v", Values: []*float64{ptr(4), ptr(-4)}}},
		Points: 2,
	})

	assert.Equal(t, "0 0 640 240", g.ViewBox)
	require.Len(t, g.Bars, 2)
	assert.Equal(t, g.Bars[0].Height, g.Bars[1].Height, "bars of equal magnitude have equal height")
	assert.Equal(t, "8", g.Bars[0].Y, "positive bar rises to the top padding")
	assert.Equal(t, g.Baseline.Y1, g.Bars[1].Y, "negative bar hangs from the baseline")
	assert.Empty(t, g.Caption)
}

func TestBarChart_Empty(t *testing.T) {
	out := render(t, BarChart(ChartView{}))
	assert.Contains(t, out, "No numeric columns to chart.")
	assert.NotContains(t, out, "<svg")
}

func TestValueRange(t *testing.T) {
	lo, hi := valueRange([]SeriesView{{Values: []*float64{ptr(5), ptr(7)}}})
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 7.0, hi)

	lo, hi = valueRange([]SeriesView{{Values: []*float64{ptr(0)}}})
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
}
