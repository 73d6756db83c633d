package web

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/DataTransformer/internal/core"
	"github.com/JonMunkholm/DataTransformer/internal/logging"
	"github.com/JonMunkholm/DataTransformer/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/render"
)

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "Data Transformer", templates.Index(s.indexView(), nil))
}

// handleTransform processes the upload and renders the form with its
// results, or only the results section for HTMX requests.
func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	batch, ok := s.processUpload(w, r)
	if !ok {
		return
	}

	results := templates.Results(toBatchView(batch))
	if isHTMX(r) {
		s.renderComponent(w, r, results)
		return
	}
	s.renderPage(w, r, "Results", templates.Index(s.indexView(), results))
}

// handleProcess is the JSON twin of handleTransform.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	batch, ok := s.processUpload(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, toBatchResponse(batch))
}

// handleConvert takes exactly one file and answers with the converted file
// itself as an attachment.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.parseJobs(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if len(jobs) != 1 {
		err := fmt.Errorf("%w: convert takes one file, got %d", core.ErrTooManyFiles, len(jobs))
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	jobs[0].Choices.Export = true

	batch, err := s.service.ProcessBatch(s.clientContext(r), jobs)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	res := &batch.Files[0]
	if res.Err != nil {
		s.respondError(w, r, res.Err, statusFor(res.Err))
		return
	}
	if len(res.Warnings) > 0 {
		codes := make([]string, len(res.Warnings))
		for i, warn := range res.Warnings {
			codes[i] = core.MapError(warn).Code
		}
		w.Header().Set("X-Transform-Warnings", strings.Join(codes, ","))
	}

	a := res.Artifact
	w.Header().Set("Content-Type", a.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	if _, err := w.Write(a.Data); err != nil {
		logging.FromContext(r.Context()).Warn("write artifact", "file", a.FileName, "error", err)
	}
}

// handleHealth reports liveness and upload slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{
		Status:  "ok",
		Uploads: s.service.UploadLimiterStatus(),
	})
}

// processUpload parses the form and runs the batch. On failure it has
// already written the error response and returns false.
func (s *Server) processUpload(w http.ResponseWriter, r *http.Request) (*core.BatchResult, bool) {
	jobs, err := s.parseJobs(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return nil, false
	}

	batch, err := s.service.ProcessBatch(s.clientContext(r), jobs)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return nil, false
	}
	return batch, true
}

func (s *Server) indexView() templates.IndexView {
	return templates.IndexView{
		MaxFiles:     s.cfg.Upload.MaxFiles,
		MaxFileSize:  core.FormatKB(s.cfg.Upload.MaxFileSize),
		Accept:       core.SupportedExtensions,
		ExportFormat: string(core.FormatCSV),
	}
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, title string, body templ.Component) {
	s.renderComponent(w, r, templates.Layout(title, body))
}

func (s *Server) renderComponent(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}
