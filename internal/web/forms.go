package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"

	"github.com/JonMunkholm/DataTransformer/internal/core"
)

// multipartMemory is how much of a multipart body is held in memory before
// parts spill to temporary files.
const multipartMemory = 32 << 20

// Form field names.
const (
	fieldFiles           = "files"
	fieldFile            = "file"
	fieldCleanDuplicates = "clean_duplicates"
	fieldFillMissing     = "fill_missing"
	fieldChart           = "chart"
	fieldExport          = "export"
	fieldFormat          = "format"
	fieldColumns         = "columns"
	fieldChoices         = "choices"

	// fieldFileColumnsPrefix plus a file name carries the column picker of
	// one result card.
	fieldFileColumnsPrefix = "columns:"
)

// maxRequestBytes bounds the whole multipart body: every file at its limit
// plus room for the other fields.
func (s *Server) maxRequestBytes() int64 {
	u := s.cfg.Upload
	return int64(u.MaxFiles)*u.MaxFileSize + 1<<20
}

// parseJobs reads the multipart upload into one job per file.
//
// Shared choices come from the plain form fields. A "columns:<file name>"
// field, repeated once per checked column, replaces the shared column list
// for that file. The optional "choices" field is a JSON object keyed by file
// name whose values override both for that file only:
//
//	{"sales.csv": {"selected_columns": ["region", "total"], "export_format": "excel"}}
func (s *Server) parseJobs(w http.ResponseWriter, r *http.Request) ([]core.Job, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidForm, err)
	}

	form := r.MultipartForm
	headers := form.File[fieldFiles]
	if len(headers) == 0 {
		headers = form.File[fieldFile]
	}
	if len(headers) == 0 {
		return nil, core.ErrNoFiles
	}

	shared, err := sharedChoices(form)
	if err != nil {
		return nil, err
	}
	overrides, err := parseOverrides(form.Value[fieldChoices])
	if err != nil {
		return nil, err
	}

	jobs := make([]core.Job, 0, len(headers))
	for _, fh := range headers {
		file, err := s.readFile(fh)
		if err != nil {
			return nil, err
		}
		choices := shared
		if cols := fileColumns(form, fh.Filename); len(cols) > 0 {
			choices.SelectedColumns = cols
		}
		choices, err = applyOverride(choices, overrides[fh.Filename])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		jobs = append(jobs, core.Job{File: file, Choices: choices})
	}
	return jobs, nil
}

// readFile reads at most one byte past the size limit, enough for the
// pipeline to reject an oversized file without buffering all of it.
func (s *Server) readFile(fh *multipart.FileHeader) (core.UploadedFile, error) {
	f, err := fh.Open()
	if err != nil {
		return core.UploadedFile{}, fmt.Errorf("%w: open %s: %v", core.ErrInvalidForm, fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.Upload.MaxFileSize+1))
	if err != nil {
		return core.UploadedFile{}, fmt.Errorf("%w: read %s: %v", core.ErrInvalidForm, fh.Filename, err)
	}
	return core.UploadedFile{Name: fh.Filename, Size: fh.Size, Data: data}, nil
}

func sharedChoices(form *multipart.Form) (core.UserChoices, error) {
	format, err := core.ParseFormat(formValue(form, fieldFormat))
	if err != nil {
		return core.UserChoices{}, err
	}
	return core.UserChoices{
		CleanDuplicates: formBool(form, fieldCleanDuplicates),
		FillMissing:     formBool(form, fieldFillMissing),
		SelectedColumns: splitColumns(form.Value[fieldColumns]),
		ChartRequested:  formBool(form, fieldChart),
		ExportFormat:    format,
		Export:          formBool(form, fieldExport),
	}, nil
}

func parseOverrides(values []string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		var m map[string]json.RawMessage
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("%w: choices field is not a JSON object: %v", core.ErrInvalidChoices, err)
		}
		for name, raw := range m {
			out[name] = raw
		}
	}
	return out, nil
}

// applyOverride decodes raw over a copy of shared. Fields absent from raw
// keep their shared value.
func applyOverride(shared core.UserChoices, raw json.RawMessage) (core.UserChoices, error) {
	choices := shared
	choices.SelectedColumns = slices.Clone(shared.SelectedColumns)
	if len(raw) == 0 {
		return choices, nil
	}
	if err := json.Unmarshal(raw, &choices); err != nil {
		return core.UserChoices{}, fmt.Errorf("%w: %v", core.ErrInvalidChoices, err)
	}
	if choices.ExportFormat != "" {
		f, err := core.ParseFormat(string(choices.ExportFormat))
		if err != nil {
			return core.UserChoices{}, err
		}
		choices.ExportFormat = f
	}
	return choices, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// formBool treats a checked checkbox ("on") and the usual truthy strings
// as true.
func formBool(form *multipart.Form, key string) bool {
	switch strings.ToLower(strings.TrimSpace(formValue(form, key))) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// fileColumns returns the picks submitted for one file. Each value is one
// column name and is not split on commas.
func fileColumns(form *multipart.Form, fileName string) []string {
	var out []string
	for _, v := range form.Value[fieldFileColumnsPrefix+fileName] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// splitColumns accepts repeated fields, comma-separated lists, or both.
// Names are trimmed and blanks dropped; order is kept.
func splitColumns(values []string) []string {
	var out []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
