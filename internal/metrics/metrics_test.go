package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JonMunkholm/DataTransformer/internal/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_FileProcessed(t *testing.T) {
	r := NewRecorder()

	tbl, err := core.Load("a.csv", []byte("x\n1\n2\n"))
	require.NoError(t, err)

	r.FileProcessed(&core.FileResult{
		FileName: "a.csv",
		Table:    tbl,
		Artifact: &core.ExportArtifact{FileName: "a.xlsx"},
		Warnings: []error{&core.ColumnError{Err: core.ErrUnknownColumn, Columns: []string{"z"}}},
		Duration: 10 * time.Millisecond,
	})
	r.FileProcessed(&core.FileResult{
		FileName: "report.pdf",
		Err:      &core.FormatError{Name: "report.pdf", Ext: ".pdf"},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.filesProcessed.WithLabelValues("csv", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.filesProcessed.WithLabelValues("other", "unsupported_format")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.rowsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.exports.WithLabelValues("excel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.warnings.WithLabelValues("unknown_column")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.fileDuration))
}

func TestRecorder_BatchProcessed(t *testing.T) {
	r := NewRecorder()

	r.BatchProcessed(&core.BatchResult{Succeeded: 2}, nil)
	r.BatchProcessed(&core.BatchResult{Succeeded: 1, Failed: 1}, nil)
	r.BatchProcessed(&core.BatchResult{Failed: 3}, nil)
	r.BatchProcessed(nil, errors.New("busy"))

	for _, label := range []string{"ok", "partial", "failed", "rejected"} {
		assert.Equal(t, 1.0, testutil.ToFloat64(r.batches.WithLabelValues(label)), label)
	}
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.FileProcessed(&core.FileResult{FileName: "a.csv"})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `datatransformer_files_processed_total{format="csv",outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestInputFormat(t *testing.T) {
	assert.Equal(t, "csv", inputFormat("A.CSV"))
	assert.Equal(t, "xlsx", inputFormat("b.xlsx"))
	assert.Equal(t, "other", inputFormat("c.pdf"))
}
