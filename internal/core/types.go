// Package core provides the business logic of the data transformer.
// This package has no UI dependencies and can be used by any frontend.
package core

import "time"

// UploadedFile is one file as received from the client.
type UploadedFile struct {
	Name string // original file name, extension included
	Size int64  // size reported by the client, in bytes
	Data []byte
}

// ExportArtifact is a serialized table ready for download.
type ExportArtifact struct {
	FileName string
	MIMEType string
	Data     []byte
}

// Job pairs a file with the choices to apply to it.
type Job struct {
	File    UploadedFile
	Choices UserChoices
}

// FileResult is the outcome of running one file through the pipeline.
//
// Err is set when the file could not be loaded or exported. A file whose
// export failed still carries its Table and Preview. Warnings never stop
// the pipeline; they describe choices that were partly or not applied.
type FileResult struct {
	FileName  string
	SizeBytes int64

	// SourceColumns are the column names as loaded, before projection.
	SourceColumns []string

	Table    *Table
	Preview  *Table
	Chart    *ChartData
	Artifact *ExportArtifact

	DuplicatesRemoved int
	CellsFilled       int

	Notices  []string
	Warnings []error
	Err      error

	Duration time.Duration
}

// OK reports whether the file went through without error.
func (r *FileResult) OK() bool {
	return r.Err == nil
}

// Rows returns the row count of the final table, 0 if none was loaded.
func (r *FileResult) Rows() int {
	if r.Table == nil {
		return 0
	}
	return r.Table.NumRows()
}

// BatchResult collects the results of one request, in upload order.
type BatchResult struct {
	ID        string
	Files     []FileResult
	Succeeded int
	Failed    int
	Duration  time.Duration
}
