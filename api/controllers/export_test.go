package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yutonagata/shipsnap-backend/internal/export"
)

func frozenClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = prev })
}

func TestExportRecordsDefaultsToJSON(t *testing.T) {
	svc, _, _ := newTestStack(t)
	mustCreateViaService(t, svc, "2024-05-10", "1234-5678-9012")
	frozenClock(t, time.Date(2024, 5, 12, 9, 30, 45, 0, time.UTC))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export", nil)
	resp := httptest.NewRecorder()

	ExportRecords(svc, export.NewService(), testLogg())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Content-Disposition"); got != `attachment; filename="shipping-records_20240512-093045.json"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	var payload struct {
		RecordCount int `json:"recordCount"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if payload.RecordCount != 1 {
		t.Fatalf("expected 1 exported record got %d", payload.RecordCount)
	}
}

func TestExportRecordsCSV(t *testing.T) {
	svc, _, _ := newTestStack(t)
	mustCreateViaService(t, svc, "2024-05-10", "1234-5678-9012")
	frozenClock(t, time.Date(2024, 5, 12, 9, 30, 45, 0, time.UTC))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export?format=csv", nil)
	resp := httptest.NewRecorder()

	ExportRecords(svc, export.NewService(), testLogg())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.HasPrefix(body, "\ufeff") {
		t.Fatal("csv export missing UTF-8 BOM")
	}
	if !strings.Contains(body, "1234-5678-9012") {
		t.Fatalf("csv export missing record row: %q", body)
	}
}

func TestExportRecordsRejectsUnknownFormat(t *testing.T) {
	svc, _, _ := newTestStack(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export?format=xml", nil)
	resp := httptest.NewRecorder()

	ExportRecords(svc, export.NewService(), testLogg())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
