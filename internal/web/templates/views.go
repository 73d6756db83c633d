// Package templates renders the transformer's HTML pages.
//
// Markup lives in the .templ files; run `templ generate` after editing them.
// Components are plain templ.Component values so they can be rendered by
// handlers, embedded in each other, or served as HTMX fragments.
package templates

// htmxConfig makes htmx swap error responses too, so a rejected upload
// replaces the results section with its alert.
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"[23]..","swap":true},{"code":"[45]..","swap":true,"error":true}]}`

type formatOption struct {
	Value string
	Label string
}

var formatOptions = []formatOption{{"csv", "CSV"}, {"excel", "Excel"}}

// IndexView drives the upload form.
type IndexView struct {
	MaxFiles     int
	MaxFileSize  string // already formatted, e.g. "204800.00 KB"
	Accept       []string
	ExportFormat string
}

// BatchView is one processed upload.
type BatchView struct {
	ID        string
	Files     []FileView
	Succeeded int
	Failed    int
	Duration  string
}

// FileView is everything shown for one file.
type FileView struct {
	Name      string
	SizeLabel string

	Error    *AlertView
	Notices  []string
	Warnings []AlertView

	Columns   []ColumnView
	Rows      [][]string
	TotalRows int

	Chart    *ChartView
	Download *DownloadView

	// ColumnField is the form field the column picker submits with the
	// next upload; ColumnChoices lists every column read from the file.
	ColumnField   string
	ColumnChoices []ColumnChoice
}

// ColumnChoice is one source column, checked when it is in the result.
type ColumnChoice struct {
	Name    string
	Checked bool
}

// ColumnView names a preview column and its kind.
type ColumnView struct {
	Name string
	Kind string
}

// AlertView is a user-facing message with its support code.
type AlertView struct {
	Message string
	Action  string
	Code    string
	Detail  string
}

// DownloadView is a link to an export artifact. Href is usually a data: URL.
type DownloadView struct {
	FileName string
	MIMEType string
	Href     string
	Size     string
}

// ChartView is a bar chart against the row index. A nil value is a gap.
type ChartView struct {
	Series    []SeriesView
	Points    int
	Truncated bool
	TotalRows int
}

// SeriesView is one plotted column.
type SeriesView struct {
	Name   string
	Values []*float64
}
