package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/statusdeck/statusdeck-backend/internal/data/repos/snapshots"
	"github.com/statusdeck/statusdeck-backend/internal/data/repos/testutil"
	httpH "github.com/statusdeck/statusdeck-backend/internal/http/handlers"
	"github.com/statusdeck/statusdeck-backend/internal/importer"
	"github.com/statusdeck/statusdeck-backend/internal/services"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	repo := snapshots.NewRepo(gdb, log)
	parser := importer.NewParser(log, false, nil)
	importSvc := services.NewImportService(gdb, log, parser, repo)
	snapshotSvc := services.NewSnapshotService(gdb, log, repo)

	return NewRouter(RouterConfig{
		Log:             log,
		AllowedOrigins:  []string{"http://localhost:3000"},
		ImportHandler:   httpH.NewImportHandler(log, importSvc),
		SnapshotHandler: httpH.NewSnapshotHandler(log, snapshotSvc),
		HealthHandler:   httpH.NewHealthHandler(gdb),
	})
}

func fixtureWorkbook(t *testing.T, statusCells [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheets := map[string][][]interface{}{
		"Headers": {
			{"Portfolio", "B2B Delivery"},
			{"Period", "2025-09-10", "2025-09-17"},
			{"As of", "2025-09-17"},
		},
		"Status": append([][]interface{}{
			{"Project", "Status", "Trend", "Manager", "Next Milestone"},
		}, statusCells...),
	}
	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, row := range rows {
			if err := f.SetSheetRow(name, fmt.Sprintf("A%d", r+1), &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatalf("delete default sheet: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func uploadWorkbook(t *testing.T, r *gin.Engine, raw []byte, query string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "status.xlsx")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write(raw); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/imports"+query, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Actor", "tester")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body)
	}
}

func TestCurrentBeforeAnyImport(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/snapshots/current", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestImportCommitThenCurrentWithETag(t *testing.T) {
	r := newTestRouter(t)

	raw := fixtureWorkbook(t, [][]interface{}{
		{"Alpha", "green", "up", "Bob", "M1"},
	})
	w := uploadWorkbook(t, r, raw, "?commit=true")
	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d, body: %s", w.Code, w.Body)
	}
	var imported struct {
		OK        bool    `json:"ok"`
		Committed bool    `json:"committed"`
		VersionID *string `json:"version_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &imported); err != nil {
		t.Fatalf("decode import response: %v", err)
	}
	if !imported.OK || !imported.Committed || imported.VersionID == nil {
		t.Fatalf("import response = %s", w.Body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/snapshots/current", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("current status = %d", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("current response carries no ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/snapshots/current", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("conditional status = %d, want 304", w.Code)
	}
}

func TestImportRejectionCarriesReport(t *testing.T) {
	r := newTestRouter(t)

	raw := fixtureWorkbook(t, [][]interface{}{
		{"Alpha", "green", "up", "Bob", "M1"},
		{"Beta", "purple", "sideways", "Ann", "M3"},
	})
	w := uploadWorkbook(t, r, raw, "?commit=true")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body: %s", w.Code, w.Body)
	}
	var body struct {
		OK           bool   `json:"ok"`
		ReportBase64 string `json:"report_base64"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.OK || body.ReportBase64 == "" {
		t.Fatalf("body = %s", w.Body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/snapshots/current", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("rejected import persisted a snapshot: %d", w.Code)
	}
}

func TestRollbackAndHistoryEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := uploadWorkbook(t, r, fixtureWorkbook(t, [][]interface{}{
		{"Alpha", "green", "up", "Bob", "M1"},
	}), "?commit=true")
	if w.Code != http.StatusOK {
		t.Fatalf("first import: %d", w.Code)
	}
	var first struct {
		VersionID string `json:"version_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = uploadWorkbook(t, r, fixtureWorkbook(t, [][]interface{}{
		{"Alpha", "red", "down", "Bob", "M1"},
	}), "?commit=true")
	if w.Code != http.StatusOK {
		t.Fatalf("second import: %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/snapshots/"+first.VersionID+"/rollback", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("rollback status = %d, body: %s", w.Code, w.Body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/snapshots/00000000-0000-0000-0000-000000000001/rollback", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown rollback status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/snapshots/history", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}
	var history struct {
		Events []struct {
			Action string `json:"action"`
		} `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.Events) != 3 || history.Events[0].Action != "rollback" {
		t.Fatalf("history = %s", w.Body)
	}
}

func TestTemplateDownload(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/template", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type = %q", ct)
	}
	if w.Header().Get("Content-Disposition") == "" {
		t.Error("missing Content-Disposition")
	}
	if _, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes())); err != nil {
		t.Errorf("template not a readable workbook: %v", err)
	}
}

func TestSnapshotIDValidation(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/snapshots/not-a-uuid", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
