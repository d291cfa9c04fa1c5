package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yutonagata/shipsnap-backend/internal/records"
	"github.com/yutonagata/shipsnap-backend/internal/syncer"
	"github.com/yutonagata/shipsnap-backend/pkg/config"
	"github.com/yutonagata/shipsnap-backend/pkg/db"
	"github.com/yutonagata/shipsnap-backend/pkg/db/models"
	"github.com/yutonagata/shipsnap-backend/pkg/logger"
)

func testLogg() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestStack(t *testing.T) (records.Service, *records.Repository, *db.Client) {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "controllers_test.db"),
	}, nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.DB().AutoMigrate(&models.ShippingRecord{}, &models.RecordImage{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	repo := records.NewRepository(client.DB())
	svc, err := records.NewService(repo, client, config.MediaConfig{MaxImages: 3, MaxUploadMB: 20})
	if err != nil {
		t.Fatalf("new record service: %v", err)
	}
	return svc, repo, client
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func createBody(shipDate, tracking string) string {
	payload := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	return fmt.Sprintf(`{
		"ship_date": %q,
		"tracking_number": %q,
		"note": "station drop-off",
		"images": [{"file_name": "label.jpg", "mime_type": "image/jpeg", "payload": %q}]
	}`, shipDate, tracking, payload)
}

func decodeRecordEnvelope(t *testing.T, body []byte) records.RecordDTO {
	t.Helper()
	var envelope struct {
		Data records.RecordDTO `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return envelope.Data
}

func TestCreateRecordReturnsCreated(t *testing.T) {
	svc, _, _ := newTestStack(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(createBody("2024-05-10", "1234-5678-9012")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	CreateRecord(svc, nil, config.AppConfig{Mode: config.ModeLocalFirst}, testLogg())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	created := decodeRecordEnvelope(t, resp.Body.Bytes())
	if created.ID == uuid.Nil {
		t.Fatal("expected record id to be minted")
	}
	if created.TrackingNumber != "1234-5678-9012" {
		t.Fatalf("unexpected tracking number %q", created.TrackingNumber)
	}
	if len(created.Images) != 1 || !created.Images[0].HasPayload {
		t.Fatalf("expected one stored image, got %+v", created.Images)
	}
}

func TestCreateRecordRejectsBadShipDate(t *testing.T) {
	svc, _, _ := newTestStack(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(createBody("10/05/2024", "1234-5678-9012")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	CreateRecord(svc, nil, config.AppConfig{}, testLogg())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateRecordRejectsInvalidBase64(t *testing.T) {
	svc, _, _ := newTestStack(t)

	body := `{"ship_date": "2024-05-10", "tracking_number": "1234-5678-9012",
		"images": [{"file_name": "label.jpg", "mime_type": "image/jpeg", "payload": "%%%not-base64"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	CreateRecord(svc, nil, config.AppConfig{}, testLogg())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateRecordCloudFirstRollsBackOnUploadFailure(t *testing.T) {
	svc, repo, _ := newTestStack(t)
	coordinator := newTestCoordinator(t, repo, &stubUploader{enabled: true, err: fmt.Errorf("bucket unreachable")})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(createBody("2024-05-10", "1234-5678-9012")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	CreateRecord(svc, coordinator, config.AppConfig{Mode: config.ModeCloudFirst}, testLogg())(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d: %s", resp.Code, resp.Body.String())
	}
	rows, err := svc.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected record rolled back, found %d records", len(rows))
	}
}

func TestCreateRecordCloudFirstReturnsSyncedRecord(t *testing.T) {
	svc, repo, _ := newTestStack(t)
	coordinator := newTestCoordinator(t, repo, &stubUploader{enabled: true})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(createBody("2024-05-10", "1234-5678-9012")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	CreateRecord(svc, coordinator, config.AppConfig{Mode: config.ModeCloudFirst}, testLogg())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	created := decodeRecordEnvelope(t, resp.Body.Bytes())
	if created.SyncStatus != "synced" {
		t.Fatalf("expected synced record, got %q", created.SyncStatus)
	}
	if created.Images[0].RemoteURL == nil {
		t.Fatal("expected remote url on synced image")
	}
}

func TestGetRecordNotFound(t *testing.T) {
	svc, _, _ := newTestStack(t)

	req := addRouteParam(httptest.NewRequest(http.MethodGet, "/api/v1/records/"+uuid.NewString(), nil), "recordId", uuid.NewString())
	resp := httptest.NewRecorder()

	GetRecord(svc, testLogg())(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestGetRecordInvalidID(t *testing.T) {
	svc, _, _ := newTestStack(t)

	req := addRouteParam(httptest.NewRequest(http.MethodGet, "/api/v1/records/invalid", nil), "recordId", "invalid")
	resp := httptest.NewRecorder()

	GetRecord(svc, testLogg())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateRecordPatchesFields(t *testing.T) {
	svc, _, _ := newTestStack(t)
	created := mustCreateViaService(t, svc, "2024-05-10", "1234-5678-9012")

	body := `{"tracking_number": "9999-8888-7777", "note": "rerouted"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/records/"+created.ID.String(), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "recordId", created.ID.String())
	resp := httptest.NewRecorder()

	UpdateRecord(svc, testLogg())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	updated := decodeRecordEnvelope(t, resp.Body.Bytes())
	if updated.TrackingNumber != "9999-8888-7777" {
		t.Fatalf("tracking number not updated: %q", updated.TrackingNumber)
	}
	if updated.Note != "rerouted" {
		t.Fatalf("note not updated: %q", updated.Note)
	}
	if updated.ShipDate != "2024-05-10" {
		t.Fatalf("ship date should be untouched, got %q", updated.ShipDate)
	}
}

func TestDeleteRecordRemovesRecord(t *testing.T) {
	svc, _, _ := newTestStack(t)
	created := mustCreateViaService(t, svc, "2024-05-10", "1234-5678-9012")

	req := addRouteParam(httptest.NewRequest(http.MethodDelete, "/api/v1/records/"+created.ID.String(), nil), "recordId", created.ID.String())
	resp := httptest.NewRecorder()

	DeleteRecord(svc, nil, testLogg())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if _, err := svc.GetRecord(context.Background(), created.ID); err == nil {
		t.Fatal("expected record to be gone")
	}
}

func TestListRecordsFiltersByTrackingQuery(t *testing.T) {
	svc, _, _ := newTestStack(t)
	mustCreateViaService(t, svc, "2024-05-10", "1234-5678-9012")
	mustCreateViaService(t, svc, "2024-05-11", "5555-6666-7777")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records?q=66667", nil)
	resp := httptest.NewRecorder()

	ListRecords(svc, testLogg())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Records []records.RecordDTO `json:"records"`
			Count   int                 `json:"count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Count != 1 {
		t.Fatalf("expected 1 match got %d", envelope.Data.Count)
	}
	if envelope.Data.Records[0].TrackingNumber != "5555-6666-7777" {
		t.Fatalf("unexpected match %q", envelope.Data.Records[0].TrackingNumber)
	}
}

func TestListRecordsRejectsUnknownPreset(t *testing.T) {
	svc, _, _ := newTestStack(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records?preset=yesterday", nil)
	resp := httptest.NewRecorder()

	ListRecords(svc, testLogg())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetRecordImageStreamsPayload(t *testing.T) {
	svc, _, _ := newTestStack(t)
	created := mustCreateViaService(t, svc, "2024-05-10", "1234-5678-9012")
	imageID := created.Images[0].ID

	req := addRouteParam(httptest.NewRequest(http.MethodGet, "/api/v1/images/"+imageID.String(), nil), "imageId", imageID.String())
	resp := httptest.NewRecorder()

	GetRecordImage(svc, testLogg())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Fatalf("unexpected content type %q", got)
	}
	if !bytes.Equal(resp.Body.Bytes(), []byte("jpeg-bytes")) {
		t.Fatalf("unexpected payload %q", resp.Body.String())
	}
}

func mustCreateViaService(t *testing.T, svc records.Service, shipDate, tracking string) *records.RecordDTO {
	t.Helper()
	created, err := svc.CreateRecord(context.Background(), records.CreateRecordDTO{
		ShipDate:       shipDate,
		TrackingNumber: tracking,
		Images: []records.NewImageDTO{{
			FileName: "label.jpg",
			MimeType: "image/jpeg",
			Payload:  []byte("jpeg-bytes"),
		}},
	})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	return created
}

type stubUploader struct {
	enabled bool
	err     error
	uploads int
	deleted []string
}

func (s *stubUploader) Enabled() bool {
	return s.enabled
}

func (s *stubUploader) Upload(ctx context.Context, object string, data []byte, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.uploads++
	return "https://storage.example.com/bucket/" + object, nil
}

func (s *stubUploader) Delete(ctx context.Context, object string) error {
	s.deleted = append(s.deleted, object)
	return nil
}

func newTestCoordinator(t *testing.T, repo *records.Repository, storage *stubUploader) *syncer.Coordinator {
	t.Helper()
	coordinator, err := syncer.NewCoordinator(repo, storage, config.GCSConfig{CollectionPrefix: "evidence"}, testLogg(), nil)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	return coordinator
}
