package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/DataTransformer/internal/config"
	"github.com/JonMunkholm/DataTransformer/internal/core"
	"github.com/JonMunkholm/DataTransformer/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, RequestTimeout: 30 * time.Second},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxFiles:      5,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       time.Minute,
		},
		Pipeline:  config.PipelineConfig{PreviewRows: 5, Workers: 2, ChartMaxRows: 100},
		RateLimit: config.RateLimitConfig{Enabled: false},
		Security:  config.SecurityConfig{EnableCSP: true},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	rec := metrics.NewRecorder()
	srv, err := NewServer(core.NewService(cfg, rec), cfg, rec.Handler())
	require.NoError(t, err)
	return srv
}

type upload struct {
	name string
	body string
}

// multipartRequest builds a POST with the given files and plain fields.
func multipartRequest(t *testing.T, path string, files []upload, fields map[string][]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(key, v))
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	srv := newTestServer(t, testConfig())
	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `enctype="multipart/form-data"`)
	assert.Contains(t, rec.Body.String(), `hx-post="/transform"`)
	assert.Contains(t, rec.Body.String(), `<section id="results"></section>`)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "script-src 'self' https://unpkg.com")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestProcess_JSON(t *testing.T) {
	srv := newTestServer(t, testConfig())
	req := multipartRequest(t, "/api/process",
		[]upload{
			{"data.CSV", "a,b\n1,x\n1,x\n,y\n"},
			{"report.pdf", "%PDF"},
		},
		map[string][]string{
			"clean_duplicates": {"on"},
			"fill_missing":     {"true"},
			"columns":          {"b, a"},
			"chart":            {"1"},
			"export":           {"on"},
			"format":           {"excel"},
		})

	rec := serve(srv, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.BatchID)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Files, 2)

	ok := resp.Files[0]
	assert.True(t, ok.OK)
	assert.Equal(t, []string{"a", "b"}, ok.SourceColumns)
	assert.Equal(t, 1, ok.DuplicatesRemoved)
	assert.Equal(t, 1, ok.CellsFilled)
	assert.Equal(t, 2, ok.Rows)
	require.Len(t, ok.Columns, 2)
	assert.Equal(t, "b", ok.Columns[0].Name)
	assert.Equal(t, []any{"y", 1.0}, ok.Preview[1])
	require.NotNil(t, ok.Chart)
	assert.Len(t, ok.Chart.Series, 1)
	require.NotNil(t, ok.Artifact)
	assert.Equal(t, "data.xlsx", ok.Artifact.FileName)
	assert.Equal(t, core.MIMETypeXLSX, ok.Artifact.MIMEType)

	wb, err := excelize.OpenReader(bytes.NewReader(ok.Artifact.Data))
	require.NoError(t, err)
	defer wb.Close()
	v, err := wb.GetCellValue(core.ExcelSheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	bad := resp.Files[1]
	assert.False(t, bad.OK)
	require.NotNil(t, bad.Error)
	assert.Equal(t, "FILE002", bad.Error.Code)
	assert.Equal(t, "0.00 KB", bad.SizeLabel)
}

func TestProcess_PerFileOverride(t *testing.T) {
	srv := newTestServer(t, testConfig())
	req := multipartRequest(t, "/api/process",
		[]upload{{"one.csv", "a,b\n1,2\n"}, {"two.csv", "a,b\n3,4\n"}},
		map[string][]string{
			"columns": {"a"},
			"choices": {`{"two.csv": {"selected_columns": ["b"], "export": true, "export_format": "xlsx"}}`},
		})

	rec := serve(srv, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 2)
	assert.Equal(t, "a", resp.Files[0].Columns[0].Name)
	assert.Nil(t, resp.Files[0].Artifact)
	assert.Equal(t, "b", resp.Files[1].Columns[0].Name)
	require.NotNil(t, resp.Files[1].Artifact)
	assert.Equal(t, "two.xlsx", resp.Files[1].Artifact.FileName)
}

func TestProcess_PickedColumnsPerFile(t *testing.T) {
	srv := newTestServer(t, testConfig())
	req := multipartRequest(t, "/api/process",
		[]upload{{"one.csv", "a,b,\"c,d\"\n1,2,3\n"}, {"two.csv", "a,b\n3,4\n"}},
		map[string][]string{
			"columns":         {"a"},
			"columns:two.csv": {"b"},
			"columns:one.csv": {"c,d", " b "},
		})

	rec := serve(srv, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 2)

	names := func(f fileResponse) []string {
		var out []string
		for _, c := range f.Columns {
			out = append(out, c.Name)
		}
		return out
	}
	assert.Equal(t, []string{"c,d", "b"}, names(resp.Files[0]), "picks are taken whole and in order")
	assert.Equal(t, []string{"b"}, names(resp.Files[1]))
	assert.Equal(t, []string{"a", "b"}, resp.Files[1].SourceColumns)
}

func TestProcess_OverrideBeatsPickedColumns(t *testing.T) {
	srv := newTestServer(t, testConfig())
	req := multipartRequest(t, "/api/process",
		[]upload{{"two.csv", "a,b\n3,4\n"}},
		map[string][]string{
			"columns:two.csv": {"b"},
			"choices":         {`{"two.csv": {"selected_columns": ["a"]}}`},
		})

	rec := serve(srv, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Files[0].Columns, 1)
	assert.Equal(t, "a", resp.Files[0].Columns[0].Name)
}

func TestProcess_UnknownColumnWarning(t *testing.T) {
	srv := newTestServer(t, testConfig())
	req := multipartRequest(t, "/api/process",
		[]upload{{"one.csv", "a,b\n1,2\n"}},
		map[string][]string{"columns": {"zz"}})

	rec := serve(srv, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	f := resp.Files[0]
	assert.True(t, f.OK)
	assert.Len(t, f.Columns, 2)
	require.Len(t, f.Warnings, 1)
	assert.Equal(t, "COL001", f.Warnings[0].Code)
}

func TestProcess_Errors(t *testing.T) {
	srv := newTestServer(t, testConfig())

	t.Run("no files", func(t *testing.T) {
		rec := serve(srv, multipartRequest(t, "/api/process", nil, map[string][]string{"chart": {"on"}}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "FILE004", resp.Code)
	})

	t.Run("bad format", func(t *testing.T) {
		rec := serve(srv, multipartRequest(t, "/api/process",
			[]upload{{"a.csv", "a\n1\n"}}, map[string][]string{"format": {"pdf"}}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "REQ001")
	})

	t.Run("bad choices json", func(t *testing.T) {
		rec := serve(srv, multipartRequest(t, "/api/process",
			[]upload{{"a.csv", "a\n1\n"}}, map[string][]string{"choices": {"[1,2"}}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "REQ001")
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader("x"))
		req.Header.Set("Content-Type", "text/plain")
		rec := serve(srv, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "REQ002")
	})

	t.Run("too many files", func(t *testing.T) {
		files := make([]upload, 6)
		for i := range files {
			files[i] = upload{"a.csv", "a\n1\n"}
		}
		rec := serve(srv, multipartRequest(t, "/api/process", files, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "FILE006")
	})
}

func TestTransform_HTML(t *testing.T) {
	srv := newTestServer(t, testConfig())
	req := multipartRequest(t, "/transform",
		[]upload{{"data.csv", "x,y\n1,2\n3,4\n"}},
		map[string][]string{"chart": {"on"}, "export": {"on"}})

	rec := serve(srv, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!doctype html>"))
	assert.Contains(t, body, `id="upload-form"`, "results page keeps the form for the next run")
	assert.Contains(t, body, "data.csv")
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, `href="data:text/csv;base64,`)
	assert.Contains(t, body, "1 file(s) processed, 0 failed")
}

func TestTransform_HTMXPartial(t *testing.T) {
	srv := newTestServer(t, testConfig())
	req := multipartRequest(t, "/transform", []upload{{"data.csv", "x\n1\n"}}, nil)
	req.Header.Set("HX-Request", "true")

	rec := serve(srv, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<!doctype html>")
	assert.NotContains(t, rec.Body.String(), `id="upload-form"`)
	assert.Contains(t, rec.Body.String(), `<section id="results"`)
	assert.Contains(t, rec.Body.String(), `name="columns:data.csv" value="x" checked`)
}

func TestTransform_HTMXError(t *testing.T) {
	srv := newTestServer(t, testConfig())
	req := multipartRequest(t, "/transform", nil, nil)
	req.Header.Set("HX-Request", "true")

	rec := serve(srv, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), `<section id="results">`), "error replaces the results section")
	assert.Contains(t, rec.Body.String(), `role="alert"`)
	assert.Contains(t, rec.Body.String(), "FILE004")
}

func TestConvert(t *testing.T) {
	srv := newTestServer(t, testConfig())
	req := multipartRequest(t, "/api/convert",
		[]upload{{"Sales.CSV", "region,total\nnorth,10\n"}},
		map[string][]string{"format": {"csv"}})

	rec := serve(srv, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, core.MIMETypeCSV, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=Sales.csv`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "region,total\nnorth,10\n", rec.Body.String())
}

func TestConvert_Failures(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(srv, multipartRequest(t, "/api/convert",
		[]upload{{"a.csv", "a\n1\n"}, {"b.csv", "b\n2\n"}}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(srv, multipartRequest(t, "/api/convert", []upload{{"report.pdf", "%PDF"}}, nil))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE002")

	rec = serve(srv, multipartRequest(t, "/api/convert",
		[]upload{{"inf.csv", "a\ninf\n"}}, map[string][]string{"format": {"excel"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "EXP001")
}

func TestFileTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 16
	srv := newTestServer(t, cfg)

	rec := serve(srv, multipartRequest(t, "/api/process",
		[]upload{{"big.csv", "a\n" + strings.Repeat("1\n", 20)}, {"ok.csv", "a\n1\n"}}, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FILE001", resp.Files[0].Error.Code)
	assert.True(t, resp.Files[1].OK)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 2, health.Uploads.MaxConcurrent)

	serve(srv, multipartRequest(t, "/api/process", []upload{{"a.csv", "a\n1\n"}}, nil))
	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `datatransformer_files_processed_total{format="csv",outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `datatransformer_batches_total{result="ok"} 1`)
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, testConfig())
	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "REQ003")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	srv := newTestServer(t, cfg)

	first := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "RATE001")
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
}

func TestNewServer_InvalidProxy(t *testing.T) {
	cfg := testConfig()
	cfg.Security.TrustedProxies = []string{"nope"}
	_, err := NewServer(core.NewService(cfg, nil), cfg, nil)
	assert.Error(t, err)
}

func TestSplitColumns(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, splitColumns([]string{" b, a ", "", "c,"}))
	assert.Nil(t, splitColumns(nil))
}

func TestApplyOverride_DoesNotShareColumns(t *testing.T) {
	shared := core.UserChoices{SelectedColumns: []string{"a", "b"}}
	got, err := applyOverride(shared, []byte(`{"selected_columns": ["z"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, got.SelectedColumns)
	assert.Equal(t, []string{"a", "b"}, shared.SelectedColumns)
}
